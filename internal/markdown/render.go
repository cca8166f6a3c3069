// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts a finished answer's constrained markdown into a
// structured display model: sections of paragraphs and bullet lists, plus a
// normalized reference list.
package markdown

import "strings"

// =============================================================================
// RENDERING
// =============================================================================

// RenderSections serializes a display model back to the constrained markdown
// subset. Round-trip stable: ParseSections(RenderSections(s)) == s for any s
// produced by ParseSections.
func RenderSections(sections []Section) string {
	var b strings.Builder

	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		if sec.Heading != "" {
			b.WriteString("## ")
			b.WriteString(sec.Heading)
			b.WriteString("\n")
		}
		for j, block := range sec.Body {
			if j > 0 || sec.Heading != "" {
				b.WriteString("\n")
			}
			switch block.Kind {
			case BlockParagraph:
				b.WriteString(block.Text)
				b.WriteString("\n")
			case BlockList:
				for _, item := range block.Items {
					b.WriteString("- ")
					b.WriteString(item)
					b.WriteString("\n")
				}
			}
		}
	}

	return b.String()
}
