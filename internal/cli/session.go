// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/api"
	"github.com/jeranaias/insights-tui/internal/auth"
	"github.com/jeranaias/insights-tui/internal/config"
	"github.com/jeranaias/insights-tui/internal/storage"
	"github.com/jeranaias/insights-tui/internal/store"
	"github.com/jeranaias/insights-tui/internal/upload"
)

// userLookupTimeout bounds the token fetch used to derive the hint key.
const userLookupTimeout = 10 * time.Second

// session is everything a command needs to talk to the backend.
type session struct {
	tokens    auth.TokenSource
	tokenFile *auth.FileSource
	client    *api.Client
	hints     *storage.HintStore
	store     *store.Store
	transport *upload.Transport
	userID    string
}

// tokenSources builds the chain: static token, then the IdP command, then
// the file written by "insights login".
func tokenSources(cfg *config.Config) (auth.TokenSource, *auth.FileSource, error) {
	path, err := config.TokenPath()
	if err != nil {
		return nil, nil, err
	}
	file := auth.File(path)

	var sources []auth.TokenSource
	if cfg.Auth.Token != "" {
		sources = append(sources, auth.Static(cfg.Auth.Token))
	}
	if cfg.Auth.TokenCommand != "" {
		sources = append(sources, auth.Command(cfg.Auth.TokenCommand, cfg.TokenTTL()))
	}
	sources = append(sources, file)
	return auth.Chain(sources...), file, nil
}

// newSession wires the client, the hint cache and the store.
func (a *App) newSession(ctx context.Context) (*session, error) {
	tokens, file, err := tokenSources(a.cfg)
	if err != nil {
		return nil, err
	}

	client := api.New(a.cfg.API.BaseURL, tokens,
		api.WithTimeout(a.cfg.Timeout()),
		api.WithLogger(a.log.Named("api")),
	)

	s := &session{
		tokens:    tokens,
		tokenFile: file,
		client:    client,
		transport: upload.NewTransport(client, upload.WithLogger(a.log.Named("upload"))),
		userID:    a.resolveUserID(ctx, tokens),
	}

	opts := []store.Option{store.WithLogger(a.log.Named("store"))}
	hints, err := storage.NewHintStore(a.cfg.HintTTL())
	if err != nil {
		// Hints are an optimization; run without them.
		a.log.Warn("hint cache unavailable", zap.Error(err))
	} else {
		s.hints = hints
		opts = append(opts, store.WithHints(hints, s.userID))
	}
	s.store = store.New(client, opts...)
	return s, nil
}

// resolveUserID picks the hint key: config first, then the token's subject.
// An empty result means the store's shared default key.
func (a *App) resolveUserID(ctx context.Context, tokens auth.TokenSource) string {
	if a.cfg.Auth.UserID != "" {
		return a.cfg.Auth.UserID
	}
	ctx, cancel := context.WithTimeout(ctx, userLookupTimeout)
	defer cancel()

	token, err := tokens.Token(ctx)
	if err != nil {
		a.log.Debug("no token for user lookup", zap.Error(err))
		return ""
	}
	return auth.Subject(token)
}
