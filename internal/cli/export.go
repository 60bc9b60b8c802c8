// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/insights-tui/internal/export"
)

func (a *App) exportCmd() *cobra.Command {
	var (
		format string
		outDir string
		stdout bool
		theme  string
		bare   bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the conversation as Markdown, HTML or JSON",
		Long: `Fetches the conversation and writes it to a file in the current
directory (or --dir). The file is readable only by you.

Examples:
  insights export --format html
  insights export --format json --stdout | jq .`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &export.Options{OutputDir: outDir, IncludeMetadata: !bare, Theme: theme}
			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := a.newSession(ctx)
			if err != nil {
				return err
			}
			if err := sess.store.Load(ctx); err != nil {
				return fmt.Errorf("failed to load conversation: %w", err)
			}

			t := export.NewTranscript(sess.store.Messages(), sess.userID)
			if stdout {
				data, err := exporter.Export(t)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			path, err := export.WriteFile(t, exporter, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("[OK] ")+"Exported to "+path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "markdown, html or json")
	cmd.Flags().StringVarP(&outDir, "dir", "d", ".", "output directory")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write to stdout instead of a file")
	cmd.Flags().StringVar(&theme, "theme", "light", "HTML theme: light or dark")
	cmd.Flags().BoolVar(&bare, "no-metadata", false, "omit the metadata header")
	return cmd
}
