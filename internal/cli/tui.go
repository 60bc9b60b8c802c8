// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/insights-tui/internal/analysis"
	"github.com/jeranaias/insights-tui/internal/store"
	"github.com/jeranaias/insights-tui/internal/ui/app"
	"github.com/jeranaias/insights-tui/internal/ui/styles"
	"github.com/jeranaias/insights-tui/internal/watch"
)

// runTUI starts the full-screen interface with the folder watcher and the
// poller running beside it. The first of them to fail stops the rest.
func (a *App) runTUI(cmd *cobra.Command, args []string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: "the interactive interface"}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sess, err := a.newSession(ctx)
	if err != nil {
		return err
	}

	theme := styles.NewTheme(a.cfg.UI.Theme)
	theme.Apply()

	opts := []app.Option{
		app.WithTokens(sess.tokens),
		app.WithTheme(theme),
		app.WithLogger(a.log.Named("ui")),
	}
	renderer, err := analysis.NewTerminal(a.cfg.UI.Theme, a.cfg.UI.WordWrap)
	if err != nil {
		a.log.Warn("markdown renderer unavailable", zap.Error(err))
	} else {
		opts = append(opts, app.WithRenderer(renderer))
	}

	g, gctx := errgroup.WithContext(ctx)

	if dir := a.cfg.WatchDir(); dir != "" {
		w, err := watch.New(dir, watch.DefaultDebounce, a.log.Named("watch"))
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		opts = append(opts, app.WithFiles(w.Files()))
		g.Go(func() error { return w.Run(gctx) })
	}

	if interval := a.cfg.PollInterval(); interval > 0 {
		poller := store.NewPoller(sess.store, interval, a.log.Named("poll"))
		g.Go(func() error { return poller.Run(gctx) })
	}

	model := app.New(gctx, sess.store, sess.transport, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))

	g.Go(func() error {
		defer cancel()
		final, err := p.Run()
		if m, ok := final.(app.Model); ok {
			m.Close()
		}
		if err != nil && gctx.Err() == nil {
			return fmt.Errorf("interface failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		p.Quit()
		return nil
	})

	return g.Wait()
}
