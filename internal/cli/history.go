// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/analysis"
	"github.com/jeranaias/insights-tui/internal/model"
)

// =============================================================================
// TRANSCRIPT OUTPUT
// =============================================================================

// printer writes transcript entries, rendering markdown with glamour when
// the destination is a color terminal.
type printer struct {
	out      io.Writer
	renderer *analysis.Terminal
}

func (a *App) newPrinter(out io.Writer) *printer {
	p := &printer{out: out}
	if !colorsEnabled(out) {
		return p
	}
	width := a.cfg.UI.WordWrap
	if tw := terminalWidth(out) - 4; width == 0 || tw < width {
		width = tw
	}
	r, err := analysis.NewTerminal(a.cfg.UI.Theme, width)
	if err != nil {
		a.log.Warn("markdown renderer unavailable", zap.Error(err))
		return p
	}
	p.renderer = r
	return p
}

// body renders one message without its label.
func (p *printer) body(msg model.Message) string {
	switch {
	case msg.Kind == model.KindNotice:
		return WarningStyle.Render("[!] " + msg.Text)
	case msg.Role == model.RoleUser:
		return msg.Text
	case p.renderer != nil:
		return p.renderer.Render(msg.Text)
	default:
		return analysis.PrepareForTerminal(msg.Text)
	}
}

// message prints a labeled entry.
func (p *printer) message(msg model.Message) {
	fmt.Fprintln(p.out, roleLabel(msg.Role))
	fmt.Fprintln(p.out, p.body(msg))
}

// transcript prints every message, with a rule between them.
func (p *printer) transcript(msgs []model.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(p.out, DimStyle.Render("No messages yet. Upload a report with: insights upload <file> --analyze"))
		return
	}
	rule := RenderSeparator(min(terminalWidth(p.out)-4, 70))
	for i, msg := range msgs {
		if i > 0 {
			fmt.Fprintln(p.out, rule)
		}
		p.message(msg)
	}
}

// lastAssistant returns the newest assistant message.
func lastAssistant(msgs []model.Message) (model.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

// =============================================================================
// COMMANDS
// =============================================================================

func (a *App) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.newSession(ctx)
			if err != nil {
				return err
			}
			if err := sess.store.Load(ctx); err != nil {
				return fmt.Errorf("failed to load conversation: %w", err)
			}
			a.newPrinter(cmd.OutOrStdout()).transcript(sess.store.Messages())
			return nil
		},
	}
}

func (a *App) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one follow-up question and print the reply",
		Long: `Sends one message in the existing conversation and prints the reply.
A report must have been analyzed first.

Example:
  insights ask "Is my LDL high for my age?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.newSession(ctx)
			if err != nil {
				return err
			}
			if err := sess.store.Load(ctx); err != nil {
				return fmt.Errorf("failed to load conversation: %w", err)
			}
			if !sess.store.ChatEnabled() {
				return fmt.Errorf("no analyzed report yet: run insights upload <file> --analyze first")
			}
			if err := sess.store.Send(ctx, strings.Join(args, " ")); err != nil {
				return fmt.Errorf("failed to send message: %w", err)
			}
			if reply, ok := lastAssistant(sess.store.Messages()); ok {
				fmt.Fprintln(cmd.OutOrStdout(), a.newPrinter(cmd.OutOrStdout()).body(reply))
			}
			return nil
		},
	}
}
