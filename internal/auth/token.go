// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth supplies bearer tokens obtained from an outside identity
// provider. Nothing here speaks an authentication protocol: tokens come from
// configuration, a saved file, or a provider CLI.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/insights-tui/internal/util"
)

// ErrNoToken indicates a source has no token to offer.
var ErrNoToken = errors.New("no access token available")

// TokenSource returns a bearer token for the next request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Invalidator is implemented by sources that cache tokens. Invalidate drops
// the cached token so the next Token call fetches a new one.
type Invalidator interface {
	Invalidate()
}

// Invalidate drops any token cached by ts. Sources without a cache are left
// alone.
func Invalidate(ts TokenSource) {
	if inv, ok := ts.(Invalidator); ok {
		inv.Invalidate()
	}
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// =============================================================================
// STATIC
// =============================================================================

// Static returns a source that always yields the same token.
func Static(token string) TokenSource {
	token = strings.TrimSpace(token)
	return TokenFunc(func(context.Context) (string, error) {
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	})
}

// =============================================================================
// FILE
// =============================================================================

// FileSource reads a token saved by "insights login".
type FileSource struct {
	Path string
}

// File returns a source backed by the token file at path.
func File(path string) *FileSource {
	return &FileSource{Path: path}
}

// Token implements TokenSource. The file is re-read on every call so a
// login from another terminal takes effect immediately.
func (f *FileSource) Token(context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Save writes a token to the file with owner-only permissions.
func (f *FileSource) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	if err := util.AtomicWriteFileWithDir(f.Path, []byte(token+"\n"), 0600, 0700); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the token file. A missing file is not an error.
func (f *FileSource) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// =============================================================================
// COMMAND
// =============================================================================

// CommandSource runs a provider CLI (for example
// "az account get-access-token --query accessToken -o tsv") and caches the
// token it prints for TTL.
type CommandSource struct {
	Argv []string
	TTL  time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
	run     func(ctx context.Context, argv []string) ([]byte, error)
}

// Command returns a source for cmdline, split on whitespace and run without
// a shell. An empty command line yields a source that always reports
// ErrNoToken.
func Command(cmdline string, ttl time.Duration) *CommandSource {
	return &CommandSource{
		Argv: strings.Fields(cmdline),
		TTL:  ttl,
		now:  time.Now,
		run:  runCommand,
	}
}

// Token implements TokenSource. Concurrent callers share one refresh.
func (c *CommandSource) Token(ctx context.Context) (string, error) {
	if len(c.Argv) == 0 {
		return "", ErrNoToken
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	out, err := c.run(ctx, c.Argv)
	if err != nil {
		return "", fmt.Errorf("token command %q failed: %w", c.Argv[0], err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("token command %q printed nothing: %w", c.Argv[0], ErrNoToken)
	}

	c.token = token
	c.expires = c.now().Add(c.TTL)
	return token, nil
}

// Invalidate drops the cached token so the next call runs the command again.
func (c *CommandSource) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expires = time.Time{}
	c.mu.Unlock()
}

func runCommand(ctx context.Context, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, util.TruncateRunes(msg, 200))
		}
		return nil, err
	}
	return out, nil
}

// =============================================================================
// CHAIN
// =============================================================================

// Chain tries each source in order and returns the first token.
// Sources reporting ErrNoToken are skipped; any other error stops the chain.
// Invalidating the chain invalidates every source in it.
func Chain(sources ...TokenSource) TokenSource {
	return chain(sources)
}

type chain []TokenSource

func (c chain) Token(ctx context.Context) (string, error) {
	for _, s := range c {
		if s == nil {
			continue
		}
		token, err := s.Token(ctx)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrNoToken) {
			return "", err
		}
	}
	return "", ErrNoToken
}

func (c chain) Invalidate() {
	for _, s := range c {
		if s != nil {
			Invalidate(s)
		}
	}
}
