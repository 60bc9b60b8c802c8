// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat turns and uploads.
package model

import (
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole normalizes a role string received from the backend.
// Unknown roles are lower-cased and kept as-is.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Health Insights"
	default:
		return string(r)
	}
}

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind tags what a message is for, so callers never have to guess from text.
type Kind string

const (
	// KindChat is an ordinary chat turn.
	KindChat Kind = "chat"
	// KindAnalysis is a rendered report analysis.
	KindAnalysis Kind = "analysis"
	// KindPlaceholder is the transient "analyzing" bubble. Client only.
	KindPlaceholder Kind = "placeholder"
	// KindNotice is a client-generated status or failure message.
	KindNotice Kind = "notice"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single chat turn.
//
// ID is a local correlation id. The backend never sees it and it is not
// stable across loads; it only lets the store resolve an optimistic entry
// without relying on its position in the list.
type Message struct {
	ID   string `json:"-"`
	Role Role   `json:"role"`
	Text string `json:"text"`
	Kind Kind   `json:"-"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, text string, kind Kind) Message {
	return Message{
		ID:   NewID(),
		Role: role,
		Text: text,
		Kind: kind,
	}
}

// NewUserMessage creates a new user chat message.
func NewUserMessage(text string) Message {
	return NewMessage(RoleUser, text, KindChat)
}

// NewAssistantMessage creates a new assistant chat message.
func NewAssistantMessage(text string) Message {
	return NewMessage(RoleAssistant, text, KindChat)
}

// NewID returns a fresh correlation id.
func NewID() string {
	return uuid.NewString()
}

// IsEmpty returns true if the message has no visible text.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == ""
}

// IsTransient reports whether the message exists only on the client.
func (m Message) IsTransient() bool {
	return m.Kind == KindPlaceholder || m.Kind == KindNotice
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Clone returns a copy of the slice so callers cannot mutate shared state.
func Clone(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// IndexOf returns the position of the message with the given ID, or -1.
func IndexOf(msgs []Message, id string) int {
	for i := range msgs {
		if msgs[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// PENDING UPLOAD
// =============================================================================

// PendingUpload is a report that has been stored and is waiting for analysis.
type PendingUpload struct {
	BlobURL  string
	MimeType string
	FileName string
}

// IsZero reports whether no upload is pending.
func (p PendingUpload) IsZero() bool {
	return p.BlobURL == ""
}
