// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/insights-tui/internal/model"
)

const analysisDoc = "### Report analysis\n\nCholesterol looks normal.\n\n" +
	"<details>\n<summary>See extracted values</summary>\n\n" +
	"| Metric | Value | Unit | Reference range | Status |\n|---|---|---|---|---|\n" +
	"| LDL | 90 | mg/dL | <100 | normal |\n\n</details>"

func sampleTranscript() Transcript {
	return Transcript{
		Title:      DefaultTitle,
		Subject:    "user-123",
		ExportedAt: time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC),
		Messages: []model.Message{
			model.NewMessage(model.RoleAssistant, analysisDoc, model.KindAnalysis),
			model.NewUserMessage("Is 90 good?"),
			model.NewMessage(model.RoleAssistant, "Sorry, the reply failed.", model.KindNotice),
		},
	}
}

func TestNewTranscript_DropsPlaceholders(t *testing.T) {
	msgs := []model.Message{
		model.NewUserMessage("hi"),
		model.NewMessage(model.RoleAssistant, "Analyzing...", model.KindPlaceholder),
	}
	tr := NewTranscript(msgs, "")
	if len(tr.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(tr.Messages))
	}
	if tr.ExportedAt.IsZero() {
		t.Error("export time not set")
	}
	if tr.Title != DefaultTitle {
		t.Errorf("title = %q", tr.Title)
	}
}

func TestExport_EmptyTranscript(t *testing.T) {
	for _, format := range []string{"markdown", "html", "json"} {
		e, err := ForFormat(format, nil)
		if err != nil {
			t.Fatalf("ForFormat(%s): %v", format, err)
		}
		if _, err := e.Export(Transcript{ExportedAt: time.Now()}); !model.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", format, err)
		}
	}
}

func TestForFormat(t *testing.T) {
	cases := map[string]string{"": ".md", "md": ".md", "Markdown": ".md", "htm": ".html", "json": ".json"}
	for in, ext := range cases {
		e, err := ForFormat(in, nil)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", in, err)
		}
		if e.FileExtension() != ext {
			t.Errorf("ForFormat(%q) ext = %s, want %s", in, e.FileExtension(), ext)
		}
	}
	if _, err := ForFormat("pdf", nil); !model.IsValidation(err) {
		t.Errorf("pdf: expected validation error, got %v", err)
	}
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdown_Structure(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	s := string(out)

	for _, want := range []string{
		"---\ntitle: Health Insights conversation\nsubject: user-123\nexported: 2025-03-04T10:30:00Z\nmessages: 3\n",
		"# Health Insights conversation\n",
		"## Health Insights\n\n### Report analysis",
		"<details>\n<summary>See extracted values</summary>",
		"## You\n\nIs 90 good?",
		"> **Notice:** Sorry, the reply failed.",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in:\n%s", want, s)
		}
	}
	if strings.Count(s, "\n---\n\n## ") != 2 {
		t.Errorf("expected separators between the three messages:\n%s", s)
	}
}

func TestMarkdown_NoMetadata(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{}).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.HasPrefix(string(out), "---") || strings.Contains(string(out), "user-123") {
		t.Errorf("metadata written with IncludeMetadata off:\n%s", out)
	}
}

func TestEscapeYAML_NewlineInjection(t *testing.T) {
	got := escapeYAML("Test\nInjection: malicious")
	if strings.Contains(got, "\n") {
		t.Errorf("newline not escaped: %q", got)
	}
	if got != `"Test\nInjection: malicious"` {
		t.Errorf("escapeYAML = %q", got)
	}
	if escapeYAML("plain") != "plain" {
		t.Error("plain value should stay unquoted")
	}
}

// =============================================================================
// HTML
// =============================================================================

func TestHTML_RendersAndSanitizes(t *testing.T) {
	tr := sampleTranscript()
	tr.Messages = append(tr.Messages,
		model.NewMessage(model.RoleAssistant, "hello <script>alert('xss')</script> <a href=\"javascript:x()\">link</a>", model.KindChat),
		model.NewUserMessage("<b>not bold</b>"),
	)

	out, err := NewHTMLExporter(&Options{IncludeMetadata: true, Theme: "dark"}).Export(tr)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	s := string(out)

	if strings.Contains(s, "<script>") || strings.Contains(s, "javascript:") {
		t.Errorf("unsafe markup survived:\n%s", s)
	}
	if !strings.Contains(s, "&lt;b&gt;not bold&lt;/b&gt;") {
		t.Error("user text should be escaped")
	}
	for _, want := range []string{
		`<body class="dark-theme">`,
		"<details>",
		"<summary>See extracted values</summary>",
		"<table>",
		"<td>LDL</td>",
		`class="message notice-message"`,
		"<strong>Account:</strong> user-123",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestHTML_UnknownThemeIsLight(t *testing.T) {
	out, err := NewHTMLExporter(&Options{Theme: "neon"}).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(string(out), `<body class="light-theme">`) {
		t.Error("expected light theme fallback")
	}
}

// =============================================================================
// JSON
// =============================================================================

func TestJSON_Shape(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleTranscript())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var got struct {
		Title      string              `json:"title"`
		Subject    string              `json:"subject"`
		ExportedAt time.Time           `json:"exported_at"`
		Messages   []map[string]string `json:"messages"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Subject != "user-123" || len(got.Messages) != 3 {
		t.Fatalf("unexpected export: %+v", got)
	}
	if got.Messages[0]["kind"] != "analysis" || got.Messages[1]["role"] != "user" || got.Messages[2]["kind"] != "notice" {
		t.Errorf("roles/kinds wrong: %+v", got.Messages)
	}
	if _, ok := got.Messages[0]["id"]; ok {
		t.Error("local IDs must not be exported")
	}
}

// =============================================================================
// FILES
// =============================================================================

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	opts := &Options{OutputDir: dir, IncludeMetadata: true}

	path, err := WriteFile(sampleTranscript(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if want := filepath.Join(dir, "health_insights_conversation_20250304_103000.md"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 600", info.Mode().Perm())
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Health Insights conversation": "health_insights_conversation",
		"../../etc/passwd":             "etc_passwd",
		"":                             "conversation",
		"a:b*c?":                       "a_b_c",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
