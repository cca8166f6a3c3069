// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts a finished answer's constrained markdown into a
// structured display model: sections of paragraphs and bullet lists, plus a
// normalized reference list.
//
// Only the subset the backend actually emits is supported: "## " headings,
// "- " bullets, "**bold**" inline emphasis, a literal "---" rule, and a
// trailing "## References" block. Anything else is treated as plain
// paragraph text.
package markdown

import "strings"

// =============================================================================
// DISPLAY MODEL
// =============================================================================

// BlockKind distinguishes the block types inside a section.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockList
)

// Block is one display block: a paragraph or a bullet list.
type Block struct {
	Kind  BlockKind
	Text  string   // set for BlockParagraph
	Items []string // set for BlockList
}

// Section is a heading plus its body blocks. The heading is empty for prose
// that appears before the first "## " line.
type Section struct {
	Heading string
	Body    []Block
}

// =============================================================================
// PARSER
// =============================================================================

// referencesHeading is matched case-insensitively against section headings.
// A references heading closes the current section without emitting one of
// its own: references come from the message's structured list, never from
// re-parsing this block's body.
const referencesHeading = "references"

// ParseSections converts answer text into display sections.
//
// Pure and idempotent: parsing the rendered output of a previous parse
// yields the same sections.
func ParseSections(content string) []Section {
	var (
		sections []Section
		current  *Section
		open     bool
		discard  bool
	)

	flush := func() {
		if open && !discard {
			sections = append(sections, *current)
		}
		current = nil
		open = false
		discard = false
	}

	for _, rawLine := range strings.Split(content, "\n") {
		// Emphasis is stripped before the structural prefixes are examined,
		// so a line like "**- item**" classifies the same on a re-parse of
		// rendered output as it does here.
		line := strings.TrimSpace(StripEmphasis(rawLine))

		// Blank lines and horizontal rules separate blocks but carry nothing.
		if line == "" || line == "---" {
			continue
		}

		if heading, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			heading = strings.TrimSpace(heading)
			if strings.EqualFold(heading, referencesHeading) {
				// Open a discarded section so its body is swallowed too.
				current = &Section{}
				open = true
				discard = true
				continue
			}
			current = &Section{Heading: heading}
			open = true
			continue
		}

		// Prose before any heading opens an implicit unnamed section.
		if !open {
			current = &Section{}
			open = true
		}

		if item, ok := strings.CutPrefix(line, "- "); ok {
			appendListItem(current, strings.TrimSpace(item))
			continue
		}

		current.Body = append(current.Body, Block{
			Kind: BlockParagraph,
			Text: line,
		})
	}

	flush()
	return sections
}

// appendListItem adds an item, coalescing consecutive "- " lines into one
// list block.
func appendListItem(sec *Section, item string) {
	if n := len(sec.Body); n > 0 && sec.Body[n-1].Kind == BlockList {
		sec.Body[n-1].Items = append(sec.Body[n-1].Items, item)
		return
	}
	sec.Body = append(sec.Body, Block{Kind: BlockList, Items: []string{item}})
}

// StripEmphasis removes inline bold markers. The display model carries plain
// text; weight is a styling concern.
func StripEmphasis(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
