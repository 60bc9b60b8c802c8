// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/insights-tui/internal/analysis"
	"github.com/jeranaias/insights-tui/internal/auth"
	"github.com/jeranaias/insights-tui/internal/gate"
	"github.com/jeranaias/insights-tui/internal/store"
	"github.com/jeranaias/insights-tui/internal/ui/styles"
	"github.com/jeranaias/insights-tui/internal/upload"
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the whole program.
type Model struct {
	ctx context.Context

	// Collaborators
	store    *store.Store
	gate     *gate.Machine
	uploader Uploader
	tokens   auth.TokenSource
	files    <-chan *upload.File
	renderer *analysis.Terminal
	log      *zap.Logger

	// Store subscription
	changes <-chan struct{}
	unsub   func()

	// Styling
	theme  *styles.Theme
	keys   KeyMap
	width  int
	height int

	// Components
	spinner   spinner.Model
	viewport  viewport.Model
	chatInput textinput.Model
	pathInput textinput.Model
	bar       progress.Model

	// Latest store snapshot
	snap store.Snapshot

	// Upload view
	uploadJob      *uploadJob
	uploadProgress upload.Progress
	uploadErr      error
	uploadNote     string
	wantUpload     bool // chat view asked for the upload form

	// Inline errors
	loadErr    error
	chatErr    error
	analyzeErr error

	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithTokens sets the token source checked when the program starts. Without
// one the session counts as signed in.
func WithTokens(ts auth.TokenSource) Option {
	return func(m *Model) { m.tokens = ts }
}

// WithFiles feeds reports found by the intake watcher into the upload form.
func WithFiles(files <-chan *upload.File) Option {
	return func(m *Model) { m.files = files }
}

// WithTheme sets the styles.
func WithTheme(t *styles.Theme) Option {
	return func(m *Model) {
		if t != nil {
			m.theme = t
		}
	}
}

// WithRenderer sets the markdown renderer for replies and analyses.
func WithRenderer(r *analysis.Terminal) Option {
	return func(m *Model) { m.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// New creates the program model. ctx bounds every network call the model
// starts.
func New(ctx context.Context, s *store.Store, up Uploader, opts ...Option) Model {
	m := Model{
		ctx:      ctx,
		store:    s,
		gate:     gate.NewMachine(),
		uploader: up,
		log:      zap.NewNop(),
		theme:    styles.NewTheme("auto"),
		keys:     DefaultKeyMap(),
		width:    80,
		height:   24,
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.spinner = spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(m.theme.Spinner),
	)

	m.chatInput = textinput.New()
	m.chatInput.Prompt = "> "
	m.chatInput.Placeholder = "Ask about your report..."
	m.chatInput.CharLimit = 4000
	m.chatInput.PromptStyle = m.theme.Prompt
	m.chatInput.TextStyle = m.theme.InputText

	m.pathInput = textinput.New()
	m.pathInput.Prompt = "File: "
	m.pathInput.Placeholder = "/path/to/report.pdf"
	m.pathInput.CharLimit = 1024
	m.pathInput.PromptStyle = m.theme.Prompt
	m.pathInput.TextStyle = m.theme.InputText

	if m.theme.Plain() {
		m.chatInput.Cursor.SetMode(cursor.CursorStatic)
		m.pathInput.Cursor.SetMode(cursor.CursorStatic)
	}

	start, end := styles.ProgressGradient(m.theme.IsDark)
	m.bar = progress.New(progress.WithGradient(start, end))
	m.viewport = viewport.New(m.width, m.height)

	m.changes, m.unsub = s.Subscribe()
	m.snap = s.Snapshot()
	m.resize(m.width, m.height)
	return m
}

// Init starts the sign-in check and the background listeners.
func (m Model) Init() tea.Cmd {
	if err := m.gate.Start(); err != nil {
		m.log.Warn("gate start", zap.Error(err))
	}
	return tea.Batch(
		m.spinner.Tick,
		checkAuthCmd(m.ctx, m.tokens),
		waitForChange(m.changes),
		waitForFile(m.files),
	)
}

// Close drops the store subscription. Call it after the program exits.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

// Phase returns the gate phase.
func (m Model) Phase() gate.Phase {
	return m.gate.Phase()
}

// CurrentView returns the view on screen.
func (m Model) CurrentView() gate.View {
	v := m.gate.View(m.snap)
	if v == gate.Chat && (m.wantUpload || m.uploadJob != nil) {
		return gate.Upload
	}
	return v
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)

	w := m.theme.ContentWidth()
	m.chatInput.Width = w - 4
	m.pathInput.Width = w - 8
	m.bar.Width = w - 12
	if m.bar.Width < 10 {
		m.bar.Width = 10
	}

	// header, input, error line and status bar
	vh := height - 6
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = w
	m.viewport.Height = vh
	m.refreshTranscript()
}
