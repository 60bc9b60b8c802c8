// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate decides which panel the user sees: a spinner, the login
// prompt, the upload form, or the chat.
//
// Evaluate is a pure function of the auth phase and the store's state.
// Machine tracks the auth phase itself and refuses transitions that would
// skip initialization.
package gate

import (
	"fmt"
	"sync"

	"github.com/jeranaias/insights-tui/internal/store"
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is the session lifecycle phase.
type Phase int

const (
	Uninitialized Phase = iota
	AuthPending
	LoggedOut
	Initializing
	Ready
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case AuthPending:
		return "auth-pending"
	case LoggedOut:
		return "logged-out"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View is the panel to render.
type View int

const (
	Spinner View = iota
	Login
	Upload
	Chat
)

// String returns the view name.
func (v View) String() string {
	switch v {
	case Spinner:
		return "spinner"
	case Login:
		return "login"
	case Upload:
		return "upload"
	case Chat:
		return "chat"
	default:
		return "unknown"
	}
}

// Input is everything Evaluate looks at.
type Input struct {
	Phase      Phase
	StoreState store.State
	ShowUpload bool
}

// Evaluate maps the input to a view. The upload and chat panels are never
// both visible, and neither shows before the first load has finished.
func Evaluate(in Input) View {
	switch in.Phase {
	case LoggedOut:
		return Login
	case Ready:
		if in.StoreState != store.Ready {
			return Spinner
		}
		if in.ShowUpload {
			return Upload
		}
		return Chat
	default:
		return Spinner
	}
}

// =============================================================================
// MACHINE
// =============================================================================

// TransitionError reports a transition the machine refused.
type TransitionError struct {
	From  Phase
	Event string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("gate: %s not allowed in phase %s", e.Event, e.From)
}

// Machine tracks the session phase. It is safe for concurrent use.
type Machine struct {
	mu    sync.Mutex
	phase Phase
}

// NewMachine creates a machine in Uninitialized.
func NewMachine() *Machine {
	return &Machine{}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Start begins resolving credentials.
func (m *Machine) Start() error {
	return m.transition("start", AuthPending, Uninitialized, LoggedOut)
}

// Authenticated records that a token was obtained. A fresh session always
// passes through Initializing.
func (m *Machine) Authenticated() error {
	return m.transition("authenticated", Initializing, AuthPending)
}

// Loaded records that the first history load finished.
func (m *Machine) Loaded() error {
	return m.transition("loaded", Ready, Initializing, Ready)
}

// LoggedOut is allowed from any phase.
func (m *Machine) LoggedOut() {
	m.mu.Lock()
	m.phase = LoggedOut
	m.mu.Unlock()
}

// View evaluates the current phase against a store snapshot.
func (m *Machine) View(snap store.Snapshot) View {
	return Evaluate(Input{
		Phase:      m.Phase(),
		StoreState: snap.State,
		ShowUpload: snap.ShowUpload(),
	})
}

func (m *Machine) transition(event string, to Phase, from ...Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range from {
		if m.phase == f {
			m.phase = to
			return nil
		}
	}
	return &TransitionError{From: m.phase, Event: event}
}
