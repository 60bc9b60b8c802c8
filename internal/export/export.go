// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/insights-tui/internal/model"
	"github.com/jeranaias/insights-tui/internal/util"
)

// DefaultTitle heads every export.
const DefaultTitle = "Health Insights conversation"

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t Transcript) ([]byte, error)

	// FileExtension returns the file extension, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Transcript is a conversation ready for export.
type Transcript struct {
	Title      string
	Subject    string
	ExportedAt time.Time
	Messages   []model.Message
}

// NewTranscript copies msgs without placeholders and stamps the export time.
func NewTranscript(msgs []model.Message, subject string) Transcript {
	kept := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Kind == model.KindPlaceholder {
			continue
		}
		kept = append(kept, m)
	}
	return Transcript{
		Title:      DefaultTitle,
		Subject:    subject,
		ExportedAt: time.Now(),
		Messages:   kept,
	}
}

func (t Transcript) validate() error {
	if len(t.Messages) == 0 {
		return model.Invalid("transcript", "conversation has no messages")
	}
	if t.ExportedAt.IsZero() {
		return model.Invalid("transcript", "missing export time")
	}
	return nil
}

func (t Transcript) title() string {
	if t.Title == "" {
		return DefaultTitle
	}
	return t.Title
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where WriteFile saves. Default: current directory.
	OutputDir string

	// IncludeMetadata adds a header with the subject, export time and
	// message count.
	IncludeMetadata bool

	// Theme for HTML export ("light" or "dark"). Default: "light".
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		Theme:           "light",
	}
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "markdown", "md", "":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, model.Invalid("format", "unsupported export format %q (markdown, html, json)", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// WriteFile exports t into opts.OutputDir and returns the file path.
// SECURITY: lab results are private, so the file is owner-only.
func WriteFile(t Transcript, e Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	content, err := e.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	name := fmt.Sprintf("%s_%s%s",
		sanitizeFilename(t.title()),
		t.ExportedAt.Format("20060102_150405"),
		e.FileExtension(),
	)
	path := filepath.Join(dir, name)
	if err := util.AtomicWriteFileWithDir(path, content, 0600, 0700); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename keeps letters, digits, dots and dashes and turns
// everything else into underscores.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(strings.ToLower(s), 50)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_.")
	if out == "" {
		return "conversation"
	}
	return out
}

// roleLabel names a speaker in exported text.
func roleLabel(r model.Role) string {
	return r.DisplayName()
}
