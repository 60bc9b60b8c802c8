// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/config"
	"github.com/jeranaias/insights-tui/internal/store"
	"github.com/jeranaias/insights-tui/internal/upload"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is the part of liner the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// ChatCLI provides input history and line editing for the chat REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.HistoryPath()
	if err != nil {
		historyFile = filepath.Join(os.TempDir(), "insights_chat_history")
	}

	c := &ChatCLI{line: line, historyFile: historyFile}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// Prompt reads one line.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	return c.line.Prompt(prompt)
}

// AppendHistory records a line for arrow-key recall.
func (c *ChatCLI) AppendHistory(item string) {
	c.line.AppendHistory(item)
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// repl is one interactive chat session over a loaded store.
type repl struct {
	store  *store.Store
	up     *upload.Transport
	print  *printer
	out    io.Writer
	errOut io.Writer
	log    *zap.Logger
}

const replHelp = `Commands:
  /upload <file>   upload a report (then /analyze)
  /analyze         analyze the uploaded report
  /history         print the conversation
  /reload          fetch the conversation again
  /help            show this help
  /quit            leave (also exit, Ctrl+D)`

// run reads lines until EOF, abort or /quit.
func (r *repl) run(ctx context.Context, in lineReader) error {
	r.print.transcript(r.store.Messages())
	fmt.Fprintln(r.out, DimStyle.Render("Type a question, or /help."))

	for {
		input, err := in.Prompt("insights> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		in.AppendHistory(input)

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}
		if strings.HasPrefix(input, "/") {
			if !r.command(ctx, input) {
				return nil
			}
			continue
		}

		if !r.store.ChatEnabled() {
			r.fail(errors.New("no analyzed report yet: /upload a file, then /analyze"))
			continue
		}
		if err := r.store.Send(ctx, input); err != nil {
			r.fail(err)
			continue
		}
		if reply, ok := lastAssistant(r.store.Messages()); ok {
			fmt.Fprintln(r.out, r.print.body(reply))
		}
	}
}

// command runs a slash command and reports whether to keep going.
func (r *repl) command(ctx context.Context, input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/quit", "/exit", "/q":
		return false
	case "/help", "/?":
		fmt.Fprintln(r.out, replHelp)
	case "/history":
		r.print.transcript(r.store.Messages())
	case "/reload":
		if err := r.store.Load(ctx); err != nil {
			r.fail(err)
		}
	case "/upload":
		file, err := upload.Open(arg)
		if err != nil {
			r.fail(err)
			return true
		}
		pending, err := r.up.Upload(ctx, file, nil)
		if err != nil {
			r.fail(err)
			return true
		}
		r.store.Stage(pending)
		fmt.Fprintln(r.out, SuccessStyle.Render("[OK] ")+file.Name+" uploaded. Type /analyze to analyze it.")
	case "/analyze":
		if err := r.store.AnalyzeStaged(ctx); err != nil {
			r.fail(err)
		}
		if result, ok := lastAssistant(r.store.Messages()); ok {
			fmt.Fprintln(r.out, r.print.body(result))
		}
	default:
		r.fail(fmt.Errorf("unknown command %s (try /help)", name))
	}
	return true
}

func (r *repl) fail(err error) {
	r.log.Debug("chat command failed", zap.Error(err))
	fmt.Fprintln(r.errOut, ErrorStyle.Render("[X] ")+err.Error())
}

func (a *App) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-based chat without the full-screen interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !IsTTY() {
				return &TTYRequiredError{Operation: "insights chat"}
			}
			ctx := cmd.Context()
			sess, err := a.newSession(ctx)
			if err != nil {
				return err
			}
			if err := sess.store.Load(ctx); err != nil {
				return fmt.Errorf("failed to load conversation: %w", err)
			}

			line := NewChatCLI()
			defer line.Close()

			r := &repl{
				store:  sess.store,
				up:     sess.transport,
				print:  a.newPrinter(cmd.OutOrStdout()),
				out:    cmd.OutOrStdout(),
				errOut: cmd.ErrOrStderr(),
				log:    a.log.Named("chat"),
			}
			return r.run(ctx, line)
		},
	}
}
