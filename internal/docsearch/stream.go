// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docsearch provides the HTTP client for the documentation search
// backend and the incremental decoding of its streamed answer events.
package docsearch

import (
	"context"
	"errors"
	"io"
)

// =============================================================================
// STREAM READER
// =============================================================================

// readBufferSize is the chunk size for reads from the response body.
const readBufferSize = 4096

// StreamReader drives the decode-dispatch loop over a streaming response
// body: raw bytes in, one callback per well-formed event out.
//
// Lines that fail to parse as JSON are discarded without surfacing; a single
// malformed line must never take down the pipeline. Dispatch stops
// immediately after an error event so the caller can cancel the underlying
// connection instead of draining it.
type StreamReader struct {
	reader  io.Reader
	decoder LineDecoder
}

// NewStreamReader creates a stream reader over a response body.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: r}
}

// Process reads the stream to completion, invoking the callback for each
// event in wire order. Returns nil on normal stream end, or the read error.
// After an error event is dispatched, Process returns without consuming
// further input.
func (s *StreamReader) Process(ctx context.Context, callback EventCallback) error {
	buf := make([]byte, readBufferSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := s.reader.Read(buf)
		if n > 0 {
			for _, line := range s.decoder.Feed(buf[:n]) {
				ev, ok := ParseEvent(line)
				if !ok {
					continue
				}
				callback(ev)
				if ev.Kind == EventError {
					return nil
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return s.flush(callback)
			}
			return err
		}
	}
}

// flush dispatches the residual unterminated line, if any, at stream end.
func (s *StreamReader) flush(callback EventCallback) error {
	line, ok := s.decoder.Flush()
	if !ok {
		return nil
	}
	if ev, ok := ParseEvent(line); ok {
		callback(ev)
	}
	return nil
}
