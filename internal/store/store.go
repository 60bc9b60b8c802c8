// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the chat message list and reconciles it with the
// backend.
//
// The Store is the only writer of the list. Views read copies through
// Snapshot and re-read whenever a Subscribe channel fires. Send and
// Analyze are serialized: while one is in flight the other is rejected
// with ErrBusy. Optimistic entries are resolved by correlation ID, and
// results that arrive after Reset are discarded with ErrStale.
package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/api"
	"github.com/jeranaias/insights-tui/internal/model"
	"github.com/jeranaias/insights-tui/internal/storage"
)

// Assistant texts the store writes itself.
const (
	PlaceholderText    = "🔎 Analyzing your report…"
	AnalyzeFailedText  = "❌ Analysis failed. Please try again."
	defaultHintsUserID = "default"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy indicates a send or analyze is already in flight.
	ErrBusy = errors.New("another request is in progress")

	// ErrNotReady indicates the history has not been loaded yet.
	ErrNotReady = errors.New("messages are not loaded yet")

	// ErrStale indicates the store was reset while the request ran.
	// The result was discarded.
	ErrStale = errors.New("result discarded after reset")
)

// =============================================================================
// STATE
// =============================================================================

// State is the load state of the store.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Activity is the Ready substate.
type Activity int

const (
	Idle Activity = iota
	Sending
	Analyzing
)

// String returns the activity name.
func (a Activity) String() string {
	switch a {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Analyzing:
		return "analyzing"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the store's state.
type Snapshot struct {
	State      State
	Activity   Activity
	Messages   []model.Message
	Pending    model.PendingUpload
	LastError  error
	Generation uint64
}

// HasHistory reports whether there is at least one message.
func (s Snapshot) HasHistory() bool {
	return len(s.Messages) > 0
}

// ChatEnabled is derived from the list, never stored.
func (s Snapshot) ChatEnabled() bool {
	return s.HasHistory()
}

// ShowUpload is true iff the list is empty.
func (s Snapshot) ShowUpload() bool {
	return !s.HasHistory()
}

// Busy reports whether a send or analyze is in flight.
func (s Snapshot) Busy() bool {
	return s.Activity != Idle
}

// =============================================================================
// STORE
// =============================================================================

// Backend is the subset of the API client the store calls.
type Backend interface {
	ListMessages(ctx context.Context) ([]model.Message, error)
	SendChat(ctx context.Context, text string) (api.ChatReply, error)
	Analyze(ctx context.Context, req api.AnalyzeRequest) (api.AnalyzeResponse, error)
}

// HintCache persists the "analysis done" hint between runs.
// *storage.HintStore implements it.
type HintCache interface {
	Get(userID string) (storage.Hint, bool)
	Put(userID string, chatEnabled bool) error
}

// Store holds the message list for one session.
type Store struct {
	backend Backend
	log     *zap.Logger
	hints   HintCache
	userID  string

	mu       sync.Mutex
	state    State
	activity Activity
	msgs     []model.Message
	pending  model.PendingUpload
	lastErr  error
	gen      uint64 // bumped by Reset
	rev      uint64 // bumped by every list mutation
	subs     map[int]chan struct{}
	nextSub  int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHints enables the on-disk hint for userID.
func WithHints(h HintCache, userID string) Option {
	return func(s *Store) {
		s.hints = h
		if userID == "" {
			userID = defaultHintsUserID
		}
		s.userID = userID
	}
}

// New creates an empty store.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		log:     zap.NewNop(),
		subs:    make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns all state at once.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		State:      s.state,
		Activity:   s.activity,
		Messages:   model.Clone(s.msgs),
		Pending:    s.pending,
		LastError:  s.lastErr,
		Generation: s.gen,
	}
}

// Messages returns a copy of the list.
func (s *Store) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Clone(s.msgs)
}

// State returns the load state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ChatEnabled reports whether the chat panel applies.
func (s *Store) ChatEnabled() bool {
	return s.Snapshot().ChatEnabled()
}

// ShowUpload reports whether the upload panel applies.
func (s *Store) ShowUpload() bool {
	return s.Snapshot().ShowUpload()
}

// HintedChat returns the best guess at ChatEnabled. Before the first load
// it consults the hint cache; afterwards it is the list-derived value.
func (s *Store) HintedChat() bool {
	s.mu.Lock()
	state, enabled := s.state, len(s.msgs) > 0
	s.mu.Unlock()

	if state == Ready || s.hints == nil {
		return enabled
	}
	h, ok := s.hints.Get(s.userID)
	return ok && h.ChatEnabled
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe returns a channel that receives a value after each change.
// Notifications coalesce, so readers should call Snapshot when woken.
// The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// saveHint writes the hint outside the lock. Failures only cost the hint.
func (s *Store) saveHint(enabled bool) {
	if s.hints == nil {
		return
	}
	if err := s.hints.Put(s.userID, enabled); err != nil {
		s.log.Warn("failed to save hint", zap.Error(err))
	}
}
