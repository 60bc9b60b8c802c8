// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/insights-tui/internal/auth"
	"github.com/jeranaias/insights-tui/internal/model"
	"github.com/jeranaias/insights-tui/internal/store"
	"github.com/jeranaias/insights-tui/internal/upload"
)

// =============================================================================
// MESSAGES
// =============================================================================

// authResultMsg reports whether a token could be obtained.
type authResultMsg struct{ err error }

// loadDoneMsg is the result of a store Load. refresh marks a background
// reload that must not drive the gate.
type loadDoneMsg struct {
	err     error
	refresh bool
}

// sendDoneMsg is the result of a store Send.
type sendDoneMsg struct{ err error }

// analyzeDoneMsg is the result of analyzing the staged upload.
type analyzeDoneMsg struct{ err error }

// storeChangedMsg means the store published a new snapshot.
type storeChangedMsg struct{}

// fileOfferedMsg carries a report the intake watcher found.
type fileOfferedMsg struct{ file *upload.File }

// uploadProgressMsg carries a progress update from a running upload.
type uploadProgressMsg struct {
	progress upload.Progress
	job      *uploadJob
}

// uploadDoneMsg is the result of an upload.
type uploadDoneMsg struct {
	pending model.PendingUpload
	err     error
	job     *uploadJob
}

// =============================================================================
// COMMANDS
// =============================================================================

func checkAuthCmd(ctx context.Context, tokens auth.TokenSource) tea.Cmd {
	return func() tea.Msg {
		if tokens == nil {
			return authResultMsg{}
		}
		_, err := tokens.Token(ctx)
		return authResultMsg{err: err}
	}
}

func loadCmd(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: s.Load(ctx)}
	}
}

func refreshCmd(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		return loadDoneMsg{err: s.Refresh(ctx), refresh: true}
	}
}

func sendCmd(ctx context.Context, s *store.Store, text string) tea.Cmd {
	return func() tea.Msg {
		return sendDoneMsg{err: s.Send(ctx, text)}
	}
}

func analyzeCmd(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		return analyzeDoneMsg{err: s.AnalyzeStaged(ctx)}
	}
}

// waitForChange blocks on a store subscription. A closed channel ends the
// chain.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

// waitForFile blocks on the intake watcher.
func waitForFile(files <-chan *upload.File) tea.Cmd {
	if files == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-files
		if !ok {
			return nil
		}
		return fileOfferedMsg{file: f}
	}
}

// =============================================================================
// UPLOAD JOB
// =============================================================================

// Uploader is the part of upload.Transport the model needs.
type Uploader interface {
	Upload(ctx context.Context, file *upload.File, onProgress upload.ProgressFunc) (model.PendingUpload, error)
}

// uploadJob bridges the transport's progress callback into tea messages.
type uploadJob struct {
	progress chan upload.Progress
	done     chan uploadDoneMsg
}

func startUpload(ctx context.Context, up Uploader, file *upload.File) (*uploadJob, tea.Cmd) {
	job := &uploadJob{
		progress: make(chan upload.Progress, 16),
		done:     make(chan uploadDoneMsg, 1),
	}
	go func() {
		p, err := up.Upload(ctx, file, func(pr upload.Progress) {
			// Dropped updates are fine: the next one supersedes them.
			select {
			case job.progress <- pr:
			default:
			}
		})
		job.done <- uploadDoneMsg{pending: p, err: err}
	}()
	return job, job.next
}

// next waits for the job's next progress update or its result.
func (j *uploadJob) next() tea.Msg {
	select {
	case p := <-j.progress:
		return uploadProgressMsg{progress: p, job: j}
	case d := <-j.done:
		d.job = j
		return d
	}
}
