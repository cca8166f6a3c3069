// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docsearch-tui/internal/config"
	"github.com/jeranaias/docsearch-tui/internal/docsearch"
	"github.com/jeranaias/docsearch-tui/internal/export"
	"github.com/jeranaias/docsearch-tui/internal/model"
	"github.com/jeranaias/docsearch-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streaming answer
	StateError                  // Showing an error
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Conversation
	conversation *model.Conversation

	// Current streaming message
	streamingMsgID string

	// Stream runner (drives the answer stream off the Update loop)
	runner    *StreamRunner
	cancelMgr *cancelManager // Pointer to avoid copying mutex on Bubble Tea updates

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Error state
	lastError *ErrorMsg

	// Status
	backendURL string
	statusMsg  string
}

// New creates a new chat model.
func New(theme *styles.Theme, runner *StreamRunner, backendURL string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = "Ask the docs..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII spinner frames render everywhere, including dumb terminals.
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	return Model{
		state:        StateReady,
		theme:        theme,
		conversation: model.NewConversation(),
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		runner:       runner,
		cancelMgr:    newCancelManager(),
		backendURL:   backendURL,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		return m.handleStreamStart(msg)

	case StreamEventMsg:
		return m.handleStreamEvent(msg)

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case StreamFailedMsg:
		return m.handleStreamFailed(msg)

	case ErrorMsg:
		m.lastError = &msg
		m.state = StateError
		return m, nil

	case ErrorDismissMsg:
		m.lastError = nil
		m.state = StateReady
		m.input.Focus()
		return m, textinput.Blink

	case spinner.TickMsg:
		if m.state == StateStreaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case SubmitInputMsg:
		// Programmatic submission path: submit without synthesizing key
		// events. Ignored while streaming so the user's draft survives.
		if m.state != StateReady {
			m.statusMsg = "Still answering previous question"
			return m, nil
		}
		m.input.SetValue(msg.Content)
		return m.submitInput()

	case ClearConversationMsg:
		m.conversation.Clear()
		m.updateViewport()
		return m, nil

	default:
		// For unhandled messages, update the text input if ready and always
		// update the viewport for scroll events.
		if m.state == StateReady {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)

		return m, tea.Batch(cmds...)
	}
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Layout: header + viewport (dynamic) + input area + status bar.
	// Conservative estimates (slightly larger than actual) prevent overflow.
	const (
		headerHeight    = 2
		inputAreaHeight = 3
		statusBarHeight = 2
	)

	viewportHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}

	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	const promptLen = 2 // "> "
	inputWidth := m.width - 6 - promptLen
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.updateViewport()

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	// Emergency exit works in every state.
	if keyStr == "ctrl+q" {
		m.cancel()
		return m, tea.Quit
	}

	if m.state == StateError {
		switch keyStr {
		case "esc", "enter", " ":
			m.lastError = nil
			m.state = StateReady
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}

	if m.state == StateStreaming {
		switch keyStr {
		case "esc", "ctrl+c":
			return m.cancelStreaming()
		}
		// Allow scrolling while an answer streams in.
		return m.handleNavigationKeys(msg)
	}

	switch keyStr {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+l":
		m.conversation.Clear()
		m.updateViewport()
		m.statusMsg = "Conversation cleared"
		return m, nil

	case "ctrl+e":
		return m.exportConversation()

	case "enter":
		if strings.TrimSpace(m.input.Value()) != "" {
			return m.submitInput()
		}

	case "pgup", "ctrl+u", "pgdown", "ctrl+d", "up", "down", "home", "end":
		if m.input.Value() == "" {
			return m.handleNavigationKeys(msg)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleNavigationKeys handles viewport navigation keys. These work both when
// ready and during streaming.
func (m Model) handleNavigationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()
	case "pgdown", "ctrl+d":
		m.viewport.HalfViewDown()
	case "up":
		m.viewport.LineUp(1)
	case "down":
		m.viewport.LineDown(1)
	case "home":
		m.viewport.GotoTop()
	case "end":
		m.viewport.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	// A request already in flight makes the submission a no-op; the draft
	// stays in the input so nothing is lost.
	messageID, ok := m.conversation.BeginRequest(content)
	if !ok {
		m.statusMsg = "Still answering previous question"
		return m, nil
	}

	m.input.Reset()
	m.state = StateStreaming
	m.streamingMsgID = messageID
	m.statusMsg = ""

	m.updateViewport()
	m.viewport.GotoBottom()

	// Cancel any stale context before starting a fresh one.
	m.cancel()
	ctx, cancel := context.WithCancel(context.Background())
	m.setCancelFunc(cancel)

	runner := m.runner
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			runner.Run(ctx, content, messageID)
			return nil
		},
	)
}

// cancelStreaming aborts the in-flight request and finalizes whatever part
// of the answer already arrived.
func (m Model) cancelStreaming() (tea.Model, tea.Cmd) {
	m.cancel()
	m.conversation.FinishStream()
	m.state = StateReady
	m.streamingMsgID = ""
	m.statusMsg = "Cancelled"
	m.updateViewport()
	m.input.Focus()
	return m, textinput.Blink
}

// exportConversation writes the transcript using the configured export
// settings and reports the outcome in the status line.
func (m Model) exportConversation() (tea.Model, tea.Cmd) {
	if m.conversation.IsEmpty() {
		m.statusMsg = "Nothing to export"
		return m, nil
	}

	opts := export.DefaultOptions()
	format := "markdown"
	if cfg := config.Global(); cfg != nil {
		if cfg.Export.Dir != "" {
			opts.OutputDir = cfg.Export.Dir
		}
		if cfg.Export.Format != "" {
			format = cfg.Export.Format
		}
	}

	var (
		path string
		err  error
	)
	if format == "json" {
		path, err = export.ExportJSON(m.conversation, opts)
	} else {
		path, err = export.ExportMarkdown(m.conversation, opts)
	}
	if err != nil {
		m.statusMsg = "Export failed: " + err.Error()
		return m, nil
	}

	m.statusMsg = "Exported: " + path
	return m, nil
}

// =============================================================================
// STREAM HANDLERS
// =============================================================================

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	return m, m.spinner.Tick
}

func (m Model) handleStreamEvent(msg StreamEventMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}

	m.conversation.ApplyEvent(msg.Event)

	// An error event terminates the answer; the stream is abandoned and the
	// connection torn down by the client.
	if msg.Event.Kind == docsearch.EventError {
		m.cancel()
		m.state = StateReady
		m.streamingMsgID = ""
		m.input.Focus()
	}

	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}

	m.conversation.FinishStream()
	m.state = StateReady
	m.streamingMsgID = ""
	m.cancel()

	m.updateViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) handleStreamFailed(msg StreamFailedMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}

	m.conversation.FailTransport()
	m.state = StateReady
	m.streamingMsgID = ""
	m.cancel()

	if msg.Err != nil {
		m.statusMsg = docsearch.UserFacingError(msg.Err)
	}

	m.updateViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	return m, textinput.Blink
}

// =============================================================================
// VIEWPORT UPDATE
// =============================================================================

func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderMessages())
}

// =============================================================================
// GETTERS
// =============================================================================

// GetConversation returns the current conversation.
func (m *Model) GetConversation() *model.Conversation {
	return m.conversation
}

// GetState returns the current state.
func (m *Model) GetState() State {
	return m.state
}
