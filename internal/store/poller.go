// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MinPollGap bounds how often the poller may hit the backend, including
// nudges.
const MinPollGap = 2 * time.Second

// Poller refreshes a Ready store on an interval so replies written by
// other clients show up.
type Poller struct {
	store    *Store
	interval time.Duration
	limiter  *rate.Limiter
	nudge    chan struct{}
	log      *zap.Logger
}

// NewPoller creates a poller. An interval of zero or less disables ticking;
// Nudge still works.
func NewPoller(s *Store, interval time.Duration, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		store:    s,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(MinPollGap), 1),
		nudge:    make(chan struct{}, 1),
		log:      log,
	}
}

// Nudge asks for a refresh as soon as the rate limit allows.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Run polls until ctx is canceled. It returns nil on cancellation so it can
// run under an errgroup next to the program.
func (p *Poller) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		case <-p.nudge:
		}
		if !p.limiter.Allow() {
			continue
		}
		if err := p.store.Refresh(ctx); err != nil && ctx.Err() == nil {
			p.log.Debug("poll failed", zap.Error(err))
		}
	}
}
