// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// =============================================================================
// TERMINAL RENDERING
// =============================================================================

var (
	detailsOpen  = regexp.MustCompile(`(?s)<details>\s*<summary>(.*?)</summary>`)
	detailsClose = regexp.MustCompile(`\s*</details>`)
)

// Terminal renders markdown documents for terminal display with glamour.
type Terminal struct {
	renderer *glamour.TermRenderer
}

// ResolveStyle maps a configured theme onto a glamour style name.
// "auto" asks the terminal for its background color.
func ResolveStyle(theme string) string {
	switch strings.ToLower(theme) {
	case "dark":
		return "dark"
	case "light":
		return "light"
	case "plain", "notty":
		return "notty"
	default:
		if termenv.HasDarkBackground() {
			return "dark"
		}
		return "light"
	}
}

// NewTerminal creates a terminal renderer for the given theme and wrap width.
func NewTerminal(theme string, width int) (*Terminal, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(ResolveStyle(theme)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Terminal{renderer: r}, nil
}

// Render renders markdown content for terminal display.
// Returns the prepared content if rendering fails or the renderer is unavailable.
func (t *Terminal) Render(content string) string {
	prepared := PrepareForTerminal(content)
	if t == nil || t.renderer == nil {
		return prepared
	}
	rendered, err := t.renderer.Render(prepared)
	if err != nil {
		return prepared
	}
	return strings.TrimRight(rendered, "\n")
}

// PrepareForTerminal rewrites HTML collapsible sections, which terminals
// cannot fold, into a bold label followed by the section body.
func PrepareForTerminal(content string) string {
	out := detailsOpen.ReplaceAllString(content, "**$1**")
	return detailsClose.ReplaceAllString(out, "")
}
