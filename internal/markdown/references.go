// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts a finished answer's constrained markdown into a
// structured display model: sections of paragraphs and bullet lists, plus a
// normalized reference list.
package markdown

import (
	"regexp"
	"strings"
)

// =============================================================================
// REFERENCE NORMALIZATION
// =============================================================================

// Reference is a normalized citation entry.
type Reference struct {
	Label string // "1" from "[1] ..."; may be empty
	Title string
	URL   string // may be empty
}

// referencePattern matches the backend's citation form:
//
//	[<label>] <title> — <url>
//
// with a plain "-" accepted in place of the em-dash, and the separator plus
// URL optional.
var referencePattern = regexp.MustCompile(`^\[([^\]]*)\]\s*(.*?)(?:\s+[—-]\s+(\S+))?\s*$`)

// NormalizeReference splits one raw reference string into label, title and
// URL. Input that does not match the citation form degrades to a title-only
// reference; this never fails.
func NormalizeReference(raw string) Reference {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Reference{}
	}

	m := referencePattern.FindStringSubmatch(trimmed)
	if m == nil || m[2] == "" {
		return Reference{Title: trimmed}
	}

	return Reference{
		Label: strings.TrimSpace(m[1]),
		Title: strings.TrimSpace(m[2]),
		URL:   strings.TrimSpace(m[3]),
	}
}

// NormalizeReferences normalizes a raw reference list, preserving order.
func NormalizeReferences(raw []string) []Reference {
	if len(raw) == 0 {
		return nil
	}
	out := make([]Reference, 0, len(raw))
	for _, r := range raw {
		out = append(out, NormalizeReference(r))
	}
	return out
}
