// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/api"
	"github.com/jeranaias/insights-tui/internal/auth"
	"github.com/jeranaias/insights-tui/internal/gate"
	"github.com/jeranaias/insights-tui/internal/model"
	"github.com/jeranaias/insights-tui/internal/store"
	"github.com/jeranaias/insights-tui/internal/upload"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case authResultMsg:
		return m.handleAuth(msg)

	case loadDoneMsg:
		return m.handleLoadDone(msg)

	case sendDoneMsg:
		m.chatErr = nil
		if msg.err != nil && !errors.Is(msg.err, store.ErrStale) {
			if isSignedOut(msg.err) {
				return m.signOut(msg.err)
			}
			// The store already rolled the list back; the text is not restored.
			m.chatErr = msg.err
		}
		cmd := m.focusForView()
		return m, cmd

	case analyzeDoneMsg:
		m.analyzeErr = nil
		if msg.err != nil && !errors.Is(msg.err, store.ErrStale) {
			if isSignedOut(msg.err) {
				return m.signOut(msg.err)
			}
			m.analyzeErr = msg.err
		}
		cmd := m.focusForView()
		return m, cmd

	case storeChangedMsg:
		m.snap = m.store.Snapshot()
		m.refreshTranscript()
		return m, waitForChange(m.changes)

	case fileOfferedMsg:
		m.offerFile(msg.file)
		return m, waitForFile(m.files)

	case uploadProgressMsg:
		if msg.job != m.uploadJob {
			return m, nil
		}
		m.uploadProgress = msg.progress
		return m, msg.job.next

	case uploadDoneMsg:
		return m.handleUploadDone(msg)
	}

	return m, nil
}

func (m Model) handleAuth(msg authResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.Info("no usable access token", zap.Error(msg.err))
		m.gate.LoggedOut()
		m.loadErr = msg.err
		return m, nil
	}
	if err := m.gate.Authenticated(); err != nil {
		m.log.Debug("ignored auth result", zap.Error(err))
		return m, nil
	}
	m.loadErr = nil
	return m, loadCmd(m.ctx, m.store)
}

func (m Model) handleLoadDone(msg loadDoneMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, store.ErrStale) {
		return m, nil
	}
	if msg.refresh {
		if msg.err == nil || errors.Is(msg.err, store.ErrBusy) {
			return m, nil
		}
		if isSignedOut(msg.err) {
			return m.signOut(msg.err)
		}
		m.log.Debug("reload failed", zap.Error(msg.err))
		m.chatErr = msg.err
		return m, nil
	}

	if msg.err != nil {
		if isSignedOut(msg.err) {
			return m.signOut(msg.err)
		}
		m.log.Warn("load failed", zap.Error(msg.err))
		m.loadErr = msg.err
		return m, nil
	}

	m.loadErr = nil
	if err := m.gate.Loaded(); err != nil {
		m.log.Debug("ignored load result", zap.Error(err))
		return m, nil
	}
	m.snap = m.store.Snapshot()
	m.refreshTranscript()
	cmd := m.focusForView()
	return m, cmd
}

func (m Model) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.job != m.uploadJob {
		return m, nil
	}
	m.uploadJob = nil
	if msg.err != nil {
		if isSignedOut(msg.err) {
			return m.signOut(msg.err)
		}
		m.log.Warn("upload failed", zap.Error(msg.err))
		m.uploadErr = msg.err
		cmd := m.focusForView()
		return m, cmd
	}

	m.uploadErr = nil
	m.uploadProgress.Percent = 100
	m.store.Stage(msg.pending)
	m.snap = m.store.Snapshot()
	m.uploadNote = fmt.Sprintf("%s uploaded. Press ctrl+a to analyze it.", msg.pending.FileName)
	return m, nil
}

// offerFile prefills the upload form with a report from the watched folder.
// A running upload is never disturbed.
func (m *Model) offerFile(f *upload.File) {
	if f == nil || m.uploadJob != nil {
		return
	}
	m.pathInput.SetValue(f.Path)
	m.pathInput.CursorEnd()
	m.uploadErr = nil
	m.uploadNote = fmt.Sprintf("New report found: %s (%s). Press enter to upload.", f.Name, humanize.Bytes(uint64(f.Size)))
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.CurrentView() {
	case gate.Spinner:
		if key.Matches(msg, m.keys.Retry) && m.loadErr != nil && m.gate.Phase() == gate.Initializing {
			m.loadErr = nil
			return m, loadCmd(m.ctx, m.store)
		}
	case gate.Login:
		if key.Matches(msg, m.keys.Retry) {
			if err := m.gate.Start(); err != nil {
				return m, nil
			}
			m.loadErr = nil
			return m, checkAuthCmd(m.ctx, m.tokens)
		}
	case gate.Upload:
		return m.handleUploadKey(msg)
	case gate.Chat:
		return m.handleChatKey(msg)
	}
	return m, nil
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Analyze):
		return m.startAnalyze()

	case key.Matches(msg, m.keys.Submit):
		if m.uploadJob != nil || m.uploader == nil {
			return m, nil
		}
		file, err := upload.Open(m.pathInput.Value())
		if err != nil {
			m.uploadErr = err
			return m, nil
		}
		m.uploadErr = nil
		m.uploadNote = ""
		m.uploadProgress = upload.Progress{Total: file.Size}
		job, cmd := startUpload(m.ctx, m.uploader, file)
		m.uploadJob = job
		return m, cmd

	case key.Matches(msg, m.keys.Back):
		if m.snap.HasHistory() && m.uploadJob == nil {
			m.wantUpload = false
			cmd := m.focusForView()
			return m, cmd
		}
		return m, nil
	}

	if m.uploadJob != nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) startAnalyze() (tea.Model, tea.Cmd) {
	if m.snap.Pending.IsZero() {
		m.uploadErr = model.Invalid("upload", "upload a report before analyzing")
		return m, nil
	}
	if m.snap.Busy() || m.uploadJob != nil {
		return m, nil
	}
	m.wantUpload = false
	m.uploadErr = nil
	m.uploadNote = ""
	m.analyzeErr = nil
	m.pathInput.Reset()
	return m, analyzeCmd(m.ctx, m.store)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.UploadNew):
		m.wantUpload = true
		m.uploadNote = ""
		m.uploadErr = nil
		cmd = m.focusForView()
		return m, cmd

	case key.Matches(msg, m.keys.Reload):
		return m, refreshCmd(m.ctx, m.store)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" || m.snap.Busy() {
			return m, nil
		}
		m.chatInput.Reset()
		m.chatErr = nil
		return m, sendCmd(m.ctx, m.store, text)
	}

	// Input is read-only while a reply is pending.
	if m.snap.Busy() {
		return m, nil
	}
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

// =============================================================================
// HELPERS
// =============================================================================

// focusForView moves keyboard focus to the input of the visible view.
func (m *Model) focusForView() tea.Cmd {
	m.chatInput.Blur()
	m.pathInput.Blur()
	switch m.CurrentView() {
	case gate.Chat:
		return m.chatInput.Focus()
	case gate.Upload:
		return m.pathInput.Focus()
	}
	return nil
}

// signOut drops the session and shows the login view. A rejected token is
// evicted from any cache so the next sign-in fetches a new one.
func (m Model) signOut(err error) (tea.Model, tea.Cmd) {
	m.log.Info("signed out", zap.Error(err))
	if errors.Is(err, api.ErrUnauthorized) {
		auth.Invalidate(m.tokens)
	}
	m.gate.LoggedOut()
	m.store.Reset()
	m.snap = m.store.Snapshot()
	m.uploadJob = nil
	m.wantUpload = false
	m.chatErr, m.analyzeErr, m.uploadErr = nil, nil, nil
	m.loadErr = err
	m.refreshTranscript()
	return m, nil
}

// isSignedOut reports whether err means the token is missing or rejected.
func isSignedOut(err error) bool {
	return errors.Is(err, api.ErrUnauthorized) || errors.Is(err, auth.ErrNoToken)
}
