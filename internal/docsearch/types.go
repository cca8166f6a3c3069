// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docsearch provides the HTTP client for the documentation search
// backend and the incremental decoding of its streamed answer events.
package docsearch

import "encoding/json"

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventKind classifies a single stream event.
type EventKind int

const (
	// EventUnknown is any well-formed event whose type is not recognized.
	// Unknown events are dispatched but carry no payload and cause no mutation.
	EventUnknown EventKind = iota
	// EventChunk carries an incremental fragment of answer text.
	EventChunk
	// EventReferences carries the full reference list for the answer.
	EventReferences
	// EventError carries a backend-reported error message.
	EventError
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventChunk:
		return "answer_chunk"
	case EventReferences:
		return "references"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// StreamEvent is one decoded event from the answer stream. Events are
// transient: they are constructed per parsed line and not retained.
type StreamEvent struct {
	Kind       EventKind
	Delta      string   // set for EventChunk
	References []string // set for EventReferences
	Message    string   // set for EventError
}

// wireEvent mirrors the JSON shape emitted by the backend, one object per line.
type wireEvent struct {
	Type       string   `json:"type"`
	Delta      string   `json:"delta"`
	References []string `json:"references"`
	Message    string   `json:"message"`
}

// ParseEvent parses one trimmed line as a stream event.
// Returns ok=false for lines that are not a JSON object; such lines are
// discarded by the caller. A well-formed object with a missing or
// unrecognized type parses as an EventUnknown.
func ParseEvent(line string) (StreamEvent, bool) {
	var raw wireEvent
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return StreamEvent{}, false
	}

	switch raw.Type {
	case "answer_chunk":
		return StreamEvent{Kind: EventChunk, Delta: raw.Delta}, true
	case "references":
		refs := raw.References
		if refs == nil {
			refs = []string{}
		}
		return StreamEvent{Kind: EventReferences, References: refs}, true
	case "error":
		return StreamEvent{Kind: EventError, Message: raw.Message}, true
	default:
		// Includes the backend's trailing {"type":"done"} marker; completion
		// is signalled by stream close, so it is a no-op here.
		return StreamEvent{Kind: EventUnknown}, true
	}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AnswerRequest is the body of a streaming answer request.
type AnswerRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// EventCallback is called for each event decoded from the stream.
// Callbacks are invoked synchronously in wire arrival order.
type EventCallback func(ev StreamEvent)
