// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/jeranaias/insights-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page with
// embedded CSS. Message markdown goes through goldmark and the result is
// sanitized with bluemonday, so the analysis keeps its foldable details
// section while scripts and handlers are stripped.
type HTMLExporter struct {
	options  *Options
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("details", "summary")

	return &HTMLExporter{
		options: opts,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Raw HTML passes through here and is cleaned by the policy.
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy: policy,
	}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "dark" {
		theme = "light"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(t.title()))
	sb.WriteString("    <meta name=\"generator\" content=\"insights-tui\">\n")
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n", theme)
	sb.WriteString("    <div class=\"container\">\n")

	e.renderHeader(&sb, t)

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range t.Messages {
		if err := e.renderMessage(&sb, msg); err != nil {
			return nil, err
		}
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	fmt.Fprintf(&sb, "            <p>Exported from <strong>Health Insights</strong> on %s</p>\n",
		t.ExportedAt.Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(sb *strings.Builder, t Transcript) {
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(sb, "            <h1>%s</h1>\n", html.EscapeString(t.title()))
	if e.options.IncludeMetadata {
		sb.WriteString("            <div class=\"metadata\">\n")
		if t.Subject != "" {
			fmt.Fprintf(sb, "                <span><strong>Account:</strong> %s</span>\n", html.EscapeString(t.Subject))
		}
		fmt.Fprintf(sb, "                <span><strong>Exported:</strong> %s</span>\n", t.ExportedAt.Format(time.RFC1123))
		fmt.Fprintf(sb, "                <span><strong>Messages:</strong> %d</span>\n", len(t.Messages))
		sb.WriteString("            </div>\n")
	}
	sb.WriteString("        </header>\n")
}

func (e *HTMLExporter) renderMessage(sb *strings.Builder, msg model.Message) error {
	class := "assistant"
	switch {
	case msg.Kind == model.KindNotice:
		class = "notice"
	case msg.Role == model.RoleUser:
		class = "user"
	}

	body, err := e.formatContent(msg)
	if err != nil {
		return err
	}

	fmt.Fprintf(sb, "            <section class=\"message %s-message\">\n", class)
	fmt.Fprintf(sb, "                <div class=\"role-label\">%s</div>\n", html.EscapeString(roleLabel(msg.Role)))
	sb.WriteString("                <div class=\"message-content\">\n")
	sb.Write(body)
	sb.WriteString("                </div>\n")
	sb.WriteString("            </section>\n")
	return nil
}

// formatContent renders message markdown to sanitized HTML. User text is
// escaped first so it is shown literally.
func (e *HTMLExporter) formatContent(msg model.Message) ([]byte, error) {
	if msg.Role == model.RoleUser {
		escaped := strings.ReplaceAll(html.EscapeString(msg.Text), "\n", "<br>\n")
		return []byte("<p>" + escaped + "</p>\n"), nil
	}

	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(msg.Text), &buf); err != nil {
		return nil, fmt.Errorf("render message: %w", err)
	}
	return e.policy.SanitizeBytes(buf.Bytes()), nil
}

const css = `    <style>
        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
        }
        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --accent-user: #0d9488;
            --accent-assistant: #4f46e5;
            --accent-notice: #d97706;
        }
        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --accent-user: #2dd4bf;
            --accent-assistant: #818cf8;
            --accent-notice: #fbbf24;
        }
        * { box-sizing: border-box; }
        body {
            margin: 0;
            padding: 20px;
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
        }
        .container { max-width: 900px; margin: 0 auto; }
        .header { padding: 24px 0; border-bottom: 2px solid var(--border-color); }
        .header h1 { margin: 0 0 8px; font-size: 26px; }
        .metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-muted); }
        .message {
            margin: 20px 0;
            padding: 16px 20px;
            border-radius: 8px;
            border-left: 4px solid transparent;
            background: var(--bg-secondary);
        }
        .user-message { border-left-color: var(--accent-user); }
        .assistant-message { border-left-color: var(--accent-assistant); }
        .notice-message { border-left-color: var(--accent-notice); }
        .role-label { font-weight: 700; margin-bottom: 8px; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid var(--border-color); padding: 4px 8px; text-align: left; }
        summary { cursor: pointer; font-weight: 600; }
        .footer { padding: 24px 0; font-size: 13px; color: var(--text-muted); text-align: center; }
    </style>
`
