// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docsearch provides the HTTP client for the documentation search
// backend and the incremental decoding of its streamed answer events.
package docsearch

import (
	"bytes"
	"strings"
)

// =============================================================================
// LINE DECODER
// =============================================================================

// LineDecoder turns successive raw byte buffers into complete text lines.
//
// The backend emits one JSON object per '\n'-terminated line, but HTTP chunk
// boundaries fall anywhere, including mid-line and mid-UTF-8-sequence. The
// decoder accumulates the unterminated remainder as raw bytes between calls,
// so a partial multi-byte character is never decoded prematurely; it is
// completed by the next buffer.
//
// The zero value is ready to use.
type LineDecoder struct {
	remainder []byte
}

// Feed appends a buffer and returns every complete line it closed, in order.
// Returned lines are trimmed of surrounding whitespace (including '\r').
// Empty lines are dropped.
func (d *LineDecoder) Feed(buf []byte) []string {
	if len(buf) == 0 {
		return nil
	}

	d.remainder = append(d.remainder, buf...)

	var lines []string
	for {
		idx := bytes.IndexByte(d.remainder, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(string(d.remainder[:idx]))
		d.remainder = d.remainder[idx+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Flush returns the residual unterminated line, if any. Called once when the
// stream closes; the final line may lack a trailing newline.
func (d *LineDecoder) Flush() (string, bool) {
	if len(d.remainder) == 0 {
		return "", false
	}
	line := strings.TrimSpace(string(d.remainder))
	d.remainder = nil
	if line == "" {
		return "", false
	}
	return line, true
}

// Pending returns the number of buffered bytes awaiting a terminator.
func (d *LineDecoder) Pending() int {
	return len(d.remainder)
}
