// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"regexp"

	"github.com/jeranaias/insights-tui/internal/model"
)

// analyzeDirective matches the prompt the backend stores when it asks its
// agent for a JSON analysis. Those turns are internal and never shown.
var analyzeDirective = regexp.MustCompile(`^MODE:\s*ANALYZE_JSON\b`)

// LooksLikeAnalysis reports whether stored assistant text is a raw analysis
// object. The backend does not tag analysis turns in history, so this is the
// only place that infers it from content.
func LooksLikeAnalysis(text string) bool {
	_, ok := decodeResult(text)
	return ok
}

// IsAnalyzeDirective reports whether a turn is the backend's internal
// analysis prompt.
func IsAnalyzeDirective(role model.Role, text string) bool {
	return role == model.RoleUser && analyzeDirective.MatchString(text)
}

// ForDisplay prepares server history for the message list: internal
// directives are dropped, analysis objects are rendered and tagged
// KindAnalysis, and every other turn is tagged KindChat. Each returned
// message gets a fresh correlation ID.
func ForDisplay(history []model.Message) []model.Message {
	out := make([]model.Message, 0, len(history))
	for _, m := range history {
		if IsAnalyzeDirective(m.Role, m.Text) {
			continue
		}
		msg := model.NewMessage(m.Role, m.Text, model.KindChat)
		if m.Role == model.RoleAssistant {
			if r, ok := decodeResult(m.Text); ok {
				msg.Text = Render(*r)
				msg.Kind = model.KindAnalysis
			}
		}
		out = append(out, msg)
	}
	return out
}

// HasAnalysis reports whether any message in the list is an analysis.
func HasAnalysis(msgs []model.Message) bool {
	for _, m := range msgs {
		if m.Kind == model.KindAnalysis {
			return true
		}
	}
	return false
}
