// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Teal - Brand color, headers, focused input
var Teal = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}

// TealDeep - Darker teal for backgrounds
var TealDeep = lipgloss.AdaptiveColor{Light: "#115E59", Dark: "#134E4A"}

// Indigo - Assistant replies and analysis documents
var Indigo = lipgloss.AdaptiveColor{Light: "#4338CA", Dark: "#A5B4FC"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Green - Upload finished, analysis ready
var Green = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}

// Amber - Notices and pending work
var Amber = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}

// Red - Errors and rejected files
var Red = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}

// Blue - Informational lines and links
var Blue = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1A1B26"}
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#16161E"}
var Border = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#3B4261"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#C0CAF5"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#A9B1D6"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#565F89"}
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1A1B26"}

// =============================================================================
// TRANSCRIPT COLORS
// =============================================================================

var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#134E4A", Dark: "#CCFBF1"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#14B8A6", Dark: "#0D9488"}

var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#312E81", Dark: "#E0E7FF"}
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#A5B4FC", Dark: "#6366F1"}

var NoticeBubbleFg = lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FEF3C7"}
var NoticeBubbleBorder = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#D97706"}

// Upload progress bar gradient, as hex pairs for bubbles/progress.
const (
	ProgressStartDark  = "#0D9488"
	ProgressEndDark    = "#A5B4FC"
	ProgressStartLight = "#0F766E"
	ProgressEndLight   = "#4338CA"
)

// ProgressGradient returns the gradient endpoints for the background.
func ProgressGradient(isDark bool) (string, string) {
	if isDark {
		return ProgressStartDark, ProgressEndDark
	}
	return ProgressStartLight, ProgressEndLight
}

// =============================================================================
// ACCESSIBILITY: Shapes beside colors
// =============================================================================

// StatusIndicatorSet holds text markers so states read without color.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
}

// StatusIndicators are ASCII-only for plain terminals.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
}

func renderMarked(color lipgloss.AdaptiveColor, marker, message string) string {
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(marker + " " + message)
}

// RenderSuccess renders message in green with the [OK] marker.
func RenderSuccess(message string) string {
	return renderMarked(Green, StatusIndicators.Success, message)
}

// RenderError renders message in red with the [X] marker.
func RenderError(message string) string {
	return renderMarked(Red, StatusIndicators.Error, message)
}

// RenderWarning renders message in amber with the [!] marker.
func RenderWarning(message string) string {
	return renderMarked(Amber, StatusIndicators.Warning, message)
}

// RenderInfo renders message in blue with the [i] marker.
func RenderInfo(message string) string {
	return renderMarked(Blue, StatusIndicators.Info, message)
}
