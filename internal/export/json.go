// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to JSON. It always writes the full
// transcript; IncludeMetadata only controls the subject field.
type JSONExporter struct {
	options *Options
}

type jsonMessage struct {
	Role string `json:"role"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type jsonTranscript struct {
	Title      string        `json:"title"`
	Subject    string        `json:"subject,omitempty"`
	ExportedAt time.Time     `json:"exported_at"`
	Messages   []jsonMessage `json:"messages"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a transcript to indented JSON. Local message IDs are not
// written.
func (e *JSONExporter) Export(t Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	out := jsonTranscript{
		Title:      t.title(),
		ExportedAt: t.ExportedAt.UTC(),
		Messages:   make([]jsonMessage, 0, len(t.Messages)),
	}
	if e.options.IncludeMetadata {
		out.Subject = t.Subject
	}
	for _, m := range t.Messages {
		out.Messages = append(out.Messages, jsonMessage{
			Role: string(m.Role),
			Kind: string(m.Kind),
			Text: m.Text,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
