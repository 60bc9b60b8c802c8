// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/insights-tui/internal/upload"
)

// progressLine redraws one status line on a terminal and prints only the
// final state elsewhere.
type progressLine struct {
	out  io.Writer
	tty  bool
	name string
	last int
}

func (p *progressLine) update(pr upload.Progress) {
	if !p.tty || pr.Percent == p.last {
		return
	}
	p.last = pr.Percent
	fmt.Fprintf(p.out, "\rUploading %s: %s   ", p.name, pr.String())
}

func (p *progressLine) done(size int64) {
	if p.tty {
		fmt.Fprint(p.out, "\r")
	}
	fmt.Fprintf(p.out, "Uploaded %s (%s)          \n", p.name, humanize.Bytes(uint64(size)))
}

func (a *App) uploadCmd() *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a lab report, optionally analyzing it",
		Long: `Uploads a PDF, PNG, JPEG or TIFF lab report to the Health Insights
service. With --analyze the report is analyzed right away and the result is
printed; the analysis then starts the chat thread.

Example:
  insights upload ~/Downloads/cbc.pdf --analyze`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// The file type is checked before any network call.
			file, err := upload.Open(args[0])
			if err != nil {
				return err
			}

			sess, err := a.newSession(ctx)
			if err != nil {
				return err
			}

			status := &progressLine{out: cmd.ErrOrStderr(), tty: isTerminal(cmd.ErrOrStderr()), name: file.Name, last: -1}
			pending, err := sess.transport.Upload(ctx, file, status.update)
			if err != nil {
				if status.tty {
					fmt.Fprintln(status.out)
				}
				return err
			}
			status.done(file.Size)

			if !analyze {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", RenderLabel("Blob URL:"), pending.BlobURL)
				fmt.Fprintln(cmd.OutOrStdout(), DimStyle.Render("Run again with --analyze, or analyze it from the interactive view."))
				return nil
			}

			if err := sess.store.Load(ctx); err != nil {
				return fmt.Errorf("failed to load conversation: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), DimStyle.Render("Analyzing "+file.Name+"..."))
			if err := sess.store.Analyze(ctx, pending); err != nil {
				return err
			}
			if result, ok := lastAssistant(sess.store.Messages()); ok {
				fmt.Fprintln(cmd.OutOrStdout(), a.newPrinter(cmd.OutOrStdout()).body(result))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "analyze the report after uploading")
	return cmd
}
