// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat interface.
// Messages are organized into the following categories:
//   - Streaming: Stream start, event delivery, completion, and transport failure
//   - Input: User input submission
//   - Errors: Error display and dismissal
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"time"

	"github.com/jeranaias/docsearch-tui/internal/docsearch"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that a stream has begun for an assistant message.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamEventMsg delivers one decoded event from the answer stream.
type StreamEventMsg struct {
	MessageID string
	Event     docsearch.StreamEvent
}

// StreamDoneMsg signals that the stream ended normally.
type StreamDoneMsg struct {
	MessageID string
}

// StreamFailedMsg signals that the stream could not be established or was
// cut off at the transport level before a clean end.
type StreamFailedMsg struct {
	MessageID string
	Err       error
}

// NewStreamStartMsg creates a StreamStartMsg with the current timestamp.
func NewStreamStartMsg(messageID string) StreamStartMsg {
	return StreamStartMsg{
		MessageID: messageID,
		StartTime: time.Now(),
	}
}

// =============================================================================
// INPUT MESSAGES
// =============================================================================

// SubmitInputMsg signals that the user submitted input.
type SubmitInputMsg struct {
	Content string
}

// ClearConversationMsg clears the current conversation.
type ClearConversationMsg struct{}

// =============================================================================
// ERROR MESSAGES
// =============================================================================

// ErrorMsg displays an error to the user.
type ErrorMsg struct {
	Title   string
	Message string
}

// ErrorDismissMsg dismisses the current error.
type ErrorDismissMsg struct{}
