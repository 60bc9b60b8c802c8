// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

func TestNewTheme_Modes(t *testing.T) {
	tests := []struct {
		mode     string
		wantMode string
		wantDark bool
	}{
		{"dark", "dark", true},
		{"LIGHT", "light", false},
		{" plain ", "plain", true},
	}
	for _, tt := range tests {
		th := NewTheme(tt.mode)
		if th.Mode != tt.wantMode || th.IsDark != tt.wantDark {
			t.Errorf("NewTheme(%q) = mode %q dark %v", tt.mode, th.Mode, th.IsDark)
		}
	}

	if got := NewTheme("neon").Mode; got != "auto" {
		t.Errorf("unknown mode should fall back to auto, got %q", got)
	}
}

func TestNewTheme_PlainStripsColor(t *testing.T) {
	th := NewTheme("plain")
	if !th.Plain() || th.ColorProfile != termenv.Ascii {
		t.Fatalf("plain theme profile = %v", th.ColorProfile)
	}
	if got := NewTheme("dark").ColorProfile; got != termenv.ColorProfile() {
		t.Errorf("dark theme profile = %v, want the terminal's", got)
	}
}

func TestLayoutMode(t *testing.T) {
	th := NewTheme("dark")
	cases := map[int]LayoutMode{40: LayoutNarrow, 80: LayoutMedium, 120: LayoutWide}
	for width, want := range cases {
		th.SetSize(width, 30)
		if got := th.GetLayoutMode(); got != want {
			t.Errorf("width %d: layout = %v, want %v", width, got, want)
		}
	}
}

func TestContentWidth(t *testing.T) {
	th := NewTheme("dark")
	th.SetSize(80, 24)
	if got := th.ContentWidth(); got != 78 {
		t.Errorf("ContentWidth(80) = %d", got)
	}
	th.SetSize(120, 24)
	if got := th.ContentWidth(); got != 112 {
		t.Errorf("ContentWidth(120) = %d", got)
	}
	th.SetSize(10, 24)
	if got := th.ContentWidth(); got != 20 {
		t.Errorf("ContentWidth(10) = %d, want floor of 20", got)
	}
}

func TestProgressGradient(t *testing.T) {
	a, b := ProgressGradient(true)
	if a != ProgressStartDark || b != ProgressEndDark {
		t.Errorf("dark gradient = %s %s", a, b)
	}
	a, b = ProgressGradient(false)
	if a != ProgressStartLight || b != ProgressEndLight {
		t.Errorf("light gradient = %s %s", a, b)
	}
}

func TestRenderMarkers(t *testing.T) {
	cases := []struct {
		fn     func(string) string
		marker string
	}{
		{RenderSuccess, "[OK]"},
		{RenderError, "[X]"},
		{RenderWarning, "[!]"},
		{RenderInfo, "[i]"},
	}
	for _, c := range cases {
		out := c.fn("report.pdf")
		if !strings.Contains(out, c.marker) || !strings.Contains(out, "report.pdf") {
			t.Errorf("rendered %q, want marker %s", out, c.marker)
		}
	}
}
