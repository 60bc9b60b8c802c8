// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/insights-tui/internal/analysis"
	"github.com/jeranaias/insights-tui/internal/api"
	"github.com/jeranaias/insights-tui/internal/model"
)

// =============================================================================
// LOAD
// =============================================================================

// Load fetches the full history and replaces the list. A failed first load
// leaves the store in Loading with LastError set; calling Load again is
// safe and replaces rather than appends. A failed reload of a Ready store
// keeps the current list.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.activity != Idle {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state != Ready {
		s.state = Loading
		s.notifyLocked()
	}
	gen, rev := s.gen, s.rev
	s.mu.Unlock()

	history, err := s.backend.ListMessages(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		s.lastErr = err
		s.notifyLocked()
		s.mu.Unlock()
		s.log.Warn("failed to load messages", zap.Error(err))
		return fmt.Errorf("failed to load messages: %w", err)
	}
	if s.rev != rev || s.activity != Idle {
		// The list moved on while this request ran; the next load catches up.
		s.mu.Unlock()
		return nil
	}

	s.msgs = analysis.ForDisplay(history)
	s.state = Ready
	s.lastErr = nil
	s.rev++
	enabled := len(s.msgs) > 0
	count := len(s.msgs)
	s.notifyLocked()
	s.mu.Unlock()

	s.log.Debug("messages loaded", zap.Int("count", count))
	s.saveHint(enabled)
	return nil
}

// Refresh reloads only when the store is Ready and idle. It is what the
// poller calls.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	ok := s.state == Ready && s.activity == Idle
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := s.Load(ctx); err != nil && !errors.Is(err, ErrBusy) {
		return err
	}
	return nil
}

// =============================================================================
// SEND
// =============================================================================

// Send appends the user's message immediately, then the assistant's reply.
// On failure the list is restored to exactly what it was before the call.
func (s *Store) Send(ctx context.Context, text string) error {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return model.Invalid("message", "message is empty")
	}

	s.mu.Lock()
	if err := s.claimLocked(Sending); err != nil {
		s.mu.Unlock()
		return err
	}
	before := model.Clone(s.msgs)
	user := model.NewUserMessage(text)
	s.msgs = append(s.msgs, user)
	s.rev++
	gen := s.gen
	s.notifyLocked()
	s.mu.Unlock()

	reply, err := s.backend.SendChat(ctx, text)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrStale
	}
	s.activity = Idle
	s.rev++
	if err != nil {
		s.msgs = before
		s.lastErr = err
		s.notifyLocked()
		s.mu.Unlock()
		s.log.Warn("send failed", zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	answer := model.NewAssistantMessage(reply.AgentReply)
	if i := model.IndexOf(s.msgs, user.ID); i >= 0 && i < len(s.msgs)-1 {
		s.msgs = insertAt(s.msgs, i+1, answer)
	} else {
		s.msgs = append(s.msgs, answer)
	}
	s.lastErr = nil
	s.notifyLocked()
	s.mu.Unlock()

	s.saveHint(true)
	return nil
}

// =============================================================================
// ANALYZE
// =============================================================================

// Stage records a finished upload as the one the next analyze consumes.
// A newer upload replaces an older one.
func (s *Store) Stage(p model.PendingUpload) {
	s.mu.Lock()
	s.pending = p
	s.notifyLocked()
	s.mu.Unlock()
}

// Pending returns the staged upload, if any.
func (s *Store) Pending() model.PendingUpload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// AnalyzeStaged analyzes the staged upload and clears it, whatever the
// outcome.
func (s *Store) AnalyzeStaged(ctx context.Context) error {
	s.mu.Lock()
	p := s.pending
	if p.IsZero() {
		s.mu.Unlock()
		return model.Invalid("upload", "no uploaded report to analyze")
	}
	if err := s.claimLocked(Analyzing); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pending = model.PendingUpload{}
	placeholderID, gen := s.beginAnalyzeLocked()
	s.mu.Unlock()

	return s.finishAnalyze(ctx, p, placeholderID, gen)
}

// Analyze shows a placeholder, asks the backend to analyze the upload, and
// replaces the placeholder with the rendered analysis. On failure the
// placeholder becomes a failure notice and the error is returned.
func (s *Store) Analyze(ctx context.Context, p model.PendingUpload) error {
	if p.IsZero() {
		return model.Invalid("upload", "no uploaded report to analyze")
	}

	s.mu.Lock()
	if err := s.claimLocked(Analyzing); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.pending == p {
		s.pending = model.PendingUpload{}
	}
	placeholderID, gen := s.beginAnalyzeLocked()
	s.mu.Unlock()

	return s.finishAnalyze(ctx, p, placeholderID, gen)
}

// beginAnalyzeLocked appends the placeholder once Analyzing is claimed.
func (s *Store) beginAnalyzeLocked() (string, uint64) {
	placeholder := model.NewMessage(model.RoleAssistant, PlaceholderText, model.KindPlaceholder)
	s.msgs = append(s.msgs, placeholder)
	s.rev++
	s.notifyLocked()
	return placeholder.ID, s.gen
}

// finishAnalyze calls the backend and resolves the placeholder by ID.
func (s *Store) finishAnalyze(ctx context.Context, p model.PendingUpload, placeholderID string, gen uint64) error {
	resp, err := s.backend.Analyze(ctx, api.AnalyzeRequest{
		BlobURL:  p.BlobURL,
		MimeType: p.MimeType,
		FileName: p.FileName,
	})

	var result model.Message
	if err != nil {
		result = model.NewMessage(model.RoleAssistant, AnalyzeFailedText, model.KindNotice)
	} else {
		result = model.NewMessage(model.RoleAssistant, analysis.Document(resp.Analysis), model.KindAnalysis)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrStale
	}
	s.activity = Idle
	s.rev++
	if i := model.IndexOf(s.msgs, placeholderID); i >= 0 {
		s.msgs[i] = result
	} else {
		s.msgs = append(s.msgs, result)
	}
	s.lastErr = err
	s.notifyLocked()
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("analyze failed", zap.String("file", p.FileName), zap.Error(err))
		return fmt.Errorf("failed to analyze report: %w", err)
	}
	s.log.Info("report analyzed", zap.String("file", p.FileName), zap.String("report_id", resp.ReportID))
	s.saveHint(true)
	return nil
}

// =============================================================================
// RESET
// =============================================================================

// Reset abandons the session: the list is cleared, the store returns to
// Uninitialized, and results of requests still in flight are discarded.
func (s *Store) Reset() {
	s.mu.Lock()
	s.gen++
	s.rev++
	s.state = Uninitialized
	s.activity = Idle
	s.msgs = nil
	s.pending = model.PendingUpload{}
	s.lastErr = nil
	s.notifyLocked()
	s.mu.Unlock()
}

// claimLocked moves a Ready, idle store into activity.
func (s *Store) claimLocked(activity Activity) error {
	if s.state != Ready {
		return ErrNotReady
	}
	if s.activity != Idle {
		return ErrBusy
	}
	s.activity = activity
	return nil
}

func insertAt(msgs []model.Message, i int, m model.Message) []model.Message {
	msgs = append(msgs, model.Message{})
	copy(msgs[i+1:], msgs[i:])
	msgs[i] = m
	return msgs
}
