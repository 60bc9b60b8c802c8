// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/insights-tui/internal/gate"
	"github.com/jeranaias/insights-tui/internal/model"
	"github.com/jeranaias/insights-tui/internal/store"
	"github.com/jeranaias/insights-tui/internal/ui/styles"
	"github.com/jeranaias/insights-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the current view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	view := m.CurrentView()
	switch view {
	case gate.Login:
		body = m.viewLogin()
	case gate.Upload:
		body = m.viewUpload()
	case gate.Chat:
		body = m.viewChat()
	default:
		body = m.viewSpinner()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatusBar(view),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Health Insights")
	subtitle := m.theme.HeaderSubtitle.Render("lab report analysis")
	return m.theme.Header.Width(m.width).Render(title + "  " + subtitle)
}

func (m Model) viewSpinner() string {
	text := "Signing in..."
	if m.gate.Phase() != gate.AuthPending {
		text = "Loading..."
		if m.store.HintedChat() {
			text = "Loading your conversation..."
		}
	}

	lines := []string{m.spinner.View() + " " + m.theme.LoadingText.Render(text)}
	if m.loadErr != nil {
		lines = append(lines,
			"",
			m.errorLine("Could not load your conversation: ", m.loadErr),
			m.theme.HintText.Render("Press r to try again."),
		)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func (m Model) viewLogin() string {
	lines := []string{
		m.theme.PanelTitle.Render("Sign in required"),
		"No access token is available for the Health Insights service.",
		"",
		"Run " + m.theme.Command.Render("insights login") + " in another terminal,",
		"or set " + m.theme.Command.Render("INSIGHTS_TOKEN_COMMAND") + " to your identity provider's CLI.",
	}
	if m.loadErr != nil {
		lines = append(lines, "", m.errorLine("", m.loadErr))
	}
	lines = append(lines, "", m.theme.HintText.Render("Press r to try again, ctrl+c to quit."))
	return m.theme.Panel.Width(m.panelWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) viewUpload() string {
	lines := []string{
		m.theme.PanelTitle.Render("Upload a lab report"),
		m.theme.HintText.Render("PDF, PNG, JPEG or TIFF. The file is analyzed after you press ctrl+a."),
		"",
		m.pathInput.View(),
	}

	if m.uploadJob != nil {
		pct := float64(m.uploadProgress.Percent) / 100
		lines = append(lines, "", m.bar.ViewAs(pct)+" "+m.theme.HintText.Render(m.uploadProgress.String()))
	}
	if m.uploadNote != "" {
		lines = append(lines, "", m.theme.SuccessText.Render(m.fit(m.uploadNote)))
	} else if p := m.snap.Pending; !p.IsZero() && m.uploadJob == nil {
		lines = append(lines, "", styles.RenderSuccess(m.fit(p.FileName+" is ready. Press ctrl+a to analyze it.")))
	}
	if m.uploadErr != nil {
		lines = append(lines, "", m.errorLine("", m.uploadErr))
	}
	if m.analyzeErr != nil {
		lines = append(lines, "", m.errorLine("", m.analyzeErr))
	}
	return m.theme.Panel.Width(m.panelWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) viewChat() string {
	var input string
	switch m.snap.Activity {
	case store.Sending:
		input = m.spinner.View() + " " + m.theme.InputDisabled.Render("Waiting for a reply...")
	case store.Analyzing:
		input = m.spinner.View() + " " + m.theme.InputDisabled.Render("Analyzing your report...")
	default:
		input = m.chatInput.View()
	}

	lines := []string{m.viewport.View(), input}
	if m.chatErr != nil {
		lines = append(lines, m.errorLine("Message not sent: ", m.chatErr))
	}
	if m.analyzeErr != nil {
		lines = append(lines, m.errorLine("", m.analyzeErr))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStatusBar(view gate.View) string {
	var bindings []key.Binding
	switch view {
	case gate.Upload:
		bindings = []key.Binding{m.keys.Submit, m.keys.Analyze}
		if m.snap.HasHistory() {
			bindings = append(bindings, m.keys.Back)
		}
	case gate.Chat:
		bindings = []key.Binding{m.keys.Submit, m.keys.UploadNew, m.keys.Reload}
	case gate.Login:
		bindings = []key.Binding{m.keys.Retry}
	}
	bindings = append(bindings, m.keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, m.theme.StatusKey.Render(h.Key)+" "+m.theme.StatusValue.Render(h.Desc))
	}

	left := m.theme.StatusView.Render(strings.ToUpper(view.String()))
	line := left + " " + strings.Join(parts, "  ")
	if w := m.width; w > 0 && lipgloss.Width(line) > w {
		line = left
	}
	return m.theme.StatusBar.Width(m.width).Render(line)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript re-renders the message list into the viewport. It
// follows the bottom unless the user has scrolled up.
func (m *Model) refreshTranscript() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom || m.snap.Busy() {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderTranscript() string {
	if len(m.snap.Messages) == 0 {
		return m.theme.HintText.Render("No messages yet.")
	}
	width := m.viewport.Width - 2
	parts := make([]string, 0, len(m.snap.Messages))
	for _, msg := range m.snap.Messages {
		parts = append(parts, m.renderMessage(msg, width))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderMessage(msg model.Message, width int) string {
	label := m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	if msg.Role == model.RoleUser {
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	}

	var body string
	switch {
	case msg.Kind == model.KindPlaceholder:
		body = m.theme.Placeholder.Render(msg.Text)
	case msg.Kind == model.KindNotice:
		body = m.theme.NoticeBubble.Render(styles.StatusIndicators.Warning + " " + msg.Text)
	case msg.Role == model.RoleUser:
		body = m.theme.UserBubble.Width(width).Render(msg.Text)
	default:
		body = m.theme.AssistantBubble.Render(m.renderer.Render(msg.Text))
	}
	return label + "\n" + body
}

// =============================================================================
// HELPERS
// =============================================================================

func (m Model) errorLine(prefix string, err error) string {
	return m.theme.ErrorText.Render(m.fit(fmt.Sprintf("%s %s%v", styles.StatusIndicators.Error, prefix, err)))
}

// fit trims a single line to the panel width.
func (m Model) fit(s string) string {
	return util.TruncateWidth(util.SingleLine(s), m.panelWidth()-6)
}

func (m Model) panelWidth() int {
	w := m.theme.ContentWidth()
	if w > 90 {
		w = 90
	}
	return w
}
