// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docsearch-tui/internal/config"
	"github.com/jeranaias/docsearch-tui/internal/markdown"
	"github.com/jeranaias/docsearch-tui/internal/model"
	"github.com/jeranaias/docsearch-tui/internal/ui/components"
	"github.com/jeranaias/docsearch-tui/internal/util"
)

// =============================================================================
// MAIN VIEW
// =============================================================================

// renderChat assembles the full chat view: header, message viewport, input
// line, and status bar.
func (m Model) renderChat() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.lastError != nil {
		b.WriteString(m.renderError())
		b.WriteString("\n")
	} else {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("docsearch")
	subtitle := m.theme.HeaderSubtitle.Render(m.backendURL)
	line := title + "  " + subtitle

	width := m.width
	if width < 1 {
		width = 80
	}
	return m.theme.Header.Width(width).Render(line)
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m *Model) renderMessages() string {
	history := m.conversation.History()
	if len(history) == 0 {
		return m.renderEmptyState()
	}

	var parts []string
	for _, msg := range history {
		parts = append(parts, m.renderMessage(msg))
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderMessage(msg model.Message) string {
	switch msg.Role {
	case model.RoleUser:
		return m.renderUserMessage(msg)
	default:
		return m.renderAssistantMessage(msg)
	}
}

func (m *Model) renderUserMessage(msg model.Message) string {
	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
	content := util.Wrap(msg.Content, m.contentWidth())
	return label + "\n" + m.theme.UserBubble.Render(content)
}

func (m *Model) renderAssistantMessage(msg model.Message) string {
	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
	body := m.renderAssistantBody(msg)
	return label + "\n" + body
}

// renderAssistantBody picks the rendering for an assistant message based on
// its lifecycle state: the placeholder while waiting, raw text while deltas
// stream in, parsed sections once the answer is complete.
func (m *Model) renderAssistantBody(msg model.Message) string {
	width := m.contentWidth()

	switch {
	case msg.State == model.StateFailed:
		return m.theme.ErrorText.Render(util.Wrap(msg.Content, width))

	case msg.HasPlaceholder():
		return m.theme.Spinner.Render(m.spinner.View()) + " " +
			m.theme.Placeholder.Render(msg.Content)

	case msg.State == model.StateStreaming:
		// Sections are only parsed once the message is complete; partial
		// markdown renders as plain text until then.
		return m.theme.AssistantBubble.Render(util.Wrap(msg.Content, width))

	default:
		return m.renderFinalizedAnswer(msg, width)
	}
}

func (m *Model) renderFinalizedAnswer(msg model.Message, width int) string {
	sections := markdown.ParseSections(msg.Content)
	body := components.RenderSections(m.theme, sections, width)

	showRefs := true
	if cfg := config.Global(); cfg != nil {
		showRefs = cfg.UI.ShowReferences
	}
	if showRefs && len(msg.References) > 0 {
		refs := markdown.NormalizeReferences(msg.References)
		body += "\n" + components.RenderReferences(m.theme, refs, width)
	}

	return m.theme.AssistantBubble.Render(body)
}

func (m *Model) renderEmptyState() string {
	lines := []string{
		"",
		m.theme.HeaderSubtitle.Render("Ask a question about the documentation."),
		"",
		m.theme.ShortcutDesc.Render("enter to send, esc to cancel a running answer, ctrl+q to quit"),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

// contentWidth returns the usable width for message content, leaving room for
// bubble borders and padding.
func (m *Model) contentWidth() int {
	width := m.width - 12
	if width < 20 {
		width = 20
	}
	return width
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput() string {
	if m.state == StateStreaming {
		return m.theme.Placeholder.Render("  Streaming answer... (esc to cancel)")
	}
	return "  " + m.input.View()
}

func (m Model) renderStatusBar() string {
	status := m.statusMsg
	if status == "" {
		switch m.state {
		case StateStreaming:
			status = "Streaming"
		case StateError:
			status = "Error"
		default:
			status = "Ready"
		}
	}

	shortcuts := []components.Shortcut{
		{Key: "enter", Desc: "send"},
		{Key: "esc", Desc: "cancel"},
		{Key: "ctrl+l", Desc: "clear"},
		{Key: "ctrl+e", Desc: "export"},
		{Key: "ctrl+q", Desc: "quit"},
	}

	width := m.width
	if width < 1 {
		width = 80
	}
	return components.RenderStatusBar(m.theme, status, shortcuts, width)
}

// =============================================================================
// ERRORS
// =============================================================================

func (m Model) renderError() string {
	if m.lastError == nil {
		return ""
	}

	title := m.theme.ErrorTitle.Render(m.lastError.Title)
	text := m.theme.ErrorText.Render(util.Wrap(m.lastError.Message, m.contentWidth()))
	hint := m.theme.ShortcutDesc.Render("press esc to dismiss")

	return m.theme.ErrorBox.Render(title + "\n\n" + text + "\n\n" + hint)
}
