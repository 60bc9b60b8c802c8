// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme carries every style the views use. Build it with NewTheme and call
// Apply once before the program starts.
type Theme struct {
	Mode         string
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// Gate views
	Spinner     lipgloss.Style
	LoadingText lipgloss.Style
	Panel       lipgloss.Style
	PanelTitle  lipgloss.Style
	Command     lipgloss.Style

	// Transcript
	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	NoticeBubble    lipgloss.Style
	Placeholder     lipgloss.Style

	// Input
	Prompt        lipgloss.Style
	InputText     lipgloss.Style
	InputDisabled lipgloss.Style

	// Inline feedback
	ErrorText   lipgloss.Style
	SuccessText lipgloss.Style
	HintText    lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	StatusView  lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
}

// NewTheme creates a theme for mode (auto, dark, light or plain). Unknown
// modes behave like auto.
func NewTheme(mode string) *Theme {
	mode = strings.ToLower(strings.TrimSpace(mode))
	t := &Theme{Mode: mode, ColorProfile: termenv.ColorProfile()}

	switch mode {
	case "dark":
		t.IsDark = true
	case "light":
		t.IsDark = false
	case "plain":
		t.IsDark = true
		t.ColorProfile = termenv.Ascii
	default:
		t.Mode = "auto"
		t.IsDark = termenv.HasDarkBackground()
	}

	t.initStyles()
	return t
}

// Apply pushes the profile and background choice into lipgloss's default
// renderer so AdaptiveColor resolves the way the theme decided.
func (t *Theme) Apply() {
	lipgloss.SetColorProfile(t.ColorProfile)
	lipgloss.SetHasDarkBackground(t.IsDark)
}

// Plain reports whether color output is disabled.
func (t *Theme) Plain() bool {
	return t.ColorProfile == termenv.Ascii
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Spinner = lipgloss.NewStyle().Foreground(Teal)
	t.LoadingText = lipgloss.NewStyle().Foreground(TextSecondary)

	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)

	t.PanelTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary).
		MarginBottom(1)

	t.Command = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBubbleBorder).
		PaddingLeft(1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBubbleBorder).
		PaddingLeft(1)

	t.NoticeBubble = lipgloss.NewStyle().
		Foreground(NoticeBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(NoticeBubbleBorder).
		PaddingLeft(1)

	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Prompt = lipgloss.NewStyle().Foreground(Teal).Bold(true)
	t.InputText = lipgloss.NewStyle().Foreground(TextPrimary)
	t.InputDisabled = lipgloss.NewStyle().Foreground(TextMuted)

	t.ErrorText = lipgloss.NewStyle().Foreground(Red).Bold(true)
	t.SuccessText = lipgloss.NewStyle().Foreground(Green).Bold(true)
	t.HintText = lipgloss.NewStyle().Foreground(TextMuted)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary)

	t.StatusView = lipgloss.NewStyle().
		Background(TealDeep).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.StatusKey = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.StatusValue = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// ContentWidth is the usable width inside the frame, never below 20.
func (t *Theme) ContentWidth() int {
	w := t.Width - 2
	if t.GetLayoutMode() == LayoutWide {
		w = t.Width - 8
	}
	if w < 20 {
		w = 20
	}
	return w
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
