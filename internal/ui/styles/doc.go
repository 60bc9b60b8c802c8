// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles holds the palette and lipgloss styles for the insights TUI.

Colors are lipgloss AdaptiveColor values, so the same palette works on light
and dark terminals. A Theme is built once per program from the configured
mode:

	auto   detect the background with termenv
	dark   force the dark variants
	light  force the light variants
	plain  strip color (ASCII profile), markers still render

Every status line pairs its color with an ASCII marker ([OK], [X], [!], [i])
so nothing depends on color alone.
*/
package styles
