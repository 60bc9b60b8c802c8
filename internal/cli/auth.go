// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jeranaias/insights-tui/internal/api"
	"github.com/jeranaias/insights-tui/internal/auth"
	"github.com/jeranaias/insights-tui/internal/config"
	"github.com/jeranaias/insights-tui/internal/storage"
)

// readToken reads a token without echo from a terminal, or the first line
// of piped input.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Paste your access token (input hidden): ")
		// SECURITY: no echo, the token never reaches the scrollback.
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (a *App) loginCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save an access token for the Health Insights service",
		Long: `Reads a bearer token from your identity provider and stores it in
~/.insights/token with owner-only permissions. Pipe it in or paste it at the
prompt:

  az account get-access-token --query accessToken -o tsv | insights login

To fetch a fresh token for every session instead, set auth.token_command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd)
			if err != nil {
				return err
			}
			if token == "" {
				return auth.ErrNoToken
			}

			if check {
				client := api.New(a.cfg.API.BaseURL, auth.Static(token),
					api.WithTimeout(a.cfg.Timeout()),
					api.WithLogger(a.log.Named("api")))
				if _, err := client.ListMessages(cmd.Context()); err != nil {
					return fmt.Errorf("token rejected: %w", err)
				}
			}

			path, err := config.TokenPath()
			if err != nil {
				return err
			}
			if err := auth.File(path).Save(token); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, SuccessStyle.Render("[OK] ")+"Token saved to "+path)
			if sub := auth.Subject(token); sub != "" {
				fmt.Fprintf(out, "%s %s\n", RenderLabel("Subject:"), sub)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "verify the token against the backend before saving")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved token and local hints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.TokenPath()
			if err != nil {
				return err
			}
			if err := auth.File(path).Clear(); err != nil {
				return err
			}

			hints, err := storage.NewHintStore(a.cfg.HintTTL())
			if err != nil {
				return err
			}
			if err := hints.Clear(); err != nil {
				return fmt.Errorf("failed to clear hints: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("[OK] ")+"Signed out")
			if a.cfg.Auth.Token != "" || a.cfg.Auth.TokenCommand != "" {
				fmt.Fprintln(cmd.OutOrStdout(), DimStyle.Render("A token or token command is still configured in config or environment."))
			}
			return nil
		},
	}
}
