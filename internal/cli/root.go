// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/api"
	"github.com/jeranaias/insights-tui/internal/config"
	"github.com/jeranaias/insights-tui/internal/logging"
)

// Version information, set by main from build flags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// annotationRawConfig marks commands that must run even when the config
// file does not validate, so it can be inspected and repaired.
const annotationRawConfig = "raw-config"

// App holds the flags and the state built in PersistentPreRunE. Commands
// read from it instead of package globals.
type App struct {
	configPath string
	apiURL     string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand builds the insights command tree.
func NewRootCommand() *cobra.Command {
	a := &App{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "insights",
		Short: "Health Insights - lab report analysis in your terminal",
		Long: `insights uploads a lab report (PDF or image) to the Health Insights
service, asks for an analysis, and lets you follow up in a chat thread.

Run without arguments to start the interactive interface.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
		RunE: a.runTUI,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.insights/config.toml)")
	flags.StringVar(&a.apiURL, "api", "", "backend base URL (overrides api.base_url)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.historyCmd(),
		a.askCmd(),
		a.uploadCmd(),
		a.chatCmd(),
		a.exportCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.configCmd(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("[X] ")+err.Error())
		return 1
	}
	return 0
}

// setup loads .env, the config file and the logger. It runs before every
// command.
func (a *App) setup(cmd *cobra.Command, args []string) error {
	api.UserAgent = "insights-tui/" + Version
	lipgloss.SetColorProfile(colorProfile(cmd.OutOrStdout()))

	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		if cmd.Annotations[annotationRawConfig] == "" {
			return err
		}
		cfg = config.Default()
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(a.apiURL), "/")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    logPath,
		Verbose: a.verbose,
	})
	if err != nil {
		return err
	}
	a.log = logger
	a.log.Debug("starting",
		zap.String("command", cmd.CommandPath()),
		zap.String("version", Version),
		zap.String("api", cfg.API.BaseURL))
	return nil
}
