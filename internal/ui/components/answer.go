// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable rendering helpers for the TUI.
package components

import (
	"strings"

	"github.com/jeranaias/docsearch-tui/internal/markdown"
	"github.com/jeranaias/docsearch-tui/internal/ui/styles"
	"github.com/jeranaias/docsearch-tui/internal/util"
)

// =============================================================================
// ANSWER RENDERING
// =============================================================================

// RenderSections renders a parsed answer display model at the given width.
func RenderSections(theme *styles.Theme, sections []markdown.Section, width int) string {
	if width <= 0 {
		width = 80
	}

	var parts []string
	for _, sec := range sections {
		if sec.Heading != "" {
			parts = append(parts, theme.SectionHeading.Render(sec.Heading))
		}
		for _, block := range sec.Body {
			switch block.Kind {
			case markdown.BlockParagraph:
				parts = append(parts, theme.Paragraph.Render(util.Wrap(block.Text, width)))
			case markdown.BlockList:
				parts = append(parts, renderList(theme, block.Items, width))
			}
		}
	}
	return strings.Join(parts, "\n")
}

// renderList renders bullet items with a hanging indent.
func renderList(theme *styles.Theme, items []string, width int) string {
	bullet := theme.ListBullet.Render("•") + " "
	indentWidth := 2

	var lines []string
	for _, item := range items {
		wrapped := strings.Split(util.Wrap(item, width-indentWidth), "\n")
		for i, w := range wrapped {
			if i == 0 {
				lines = append(lines, bullet+theme.ListItem.Render(w))
			} else {
				lines = append(lines, strings.Repeat(" ", indentWidth)+theme.ListItem.Render(w))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// RenderReferences renders the normalized reference list for a finalized
// answer. Returns "" when there is nothing to show.
func RenderReferences(theme *styles.Theme, refs []markdown.Reference, width int) string {
	if len(refs) == 0 {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	lines := []string{theme.ReferenceHeading.Render("References")}
	for _, ref := range refs {
		var b strings.Builder
		if ref.Label != "" {
			b.WriteString(theme.ReferenceLabel.Render("[" + ref.Label + "]"))
			b.WriteString(" ")
		}
		b.WriteString(theme.ReferenceTitle.Render(util.TruncateWidth(ref.Title, width-20)))
		if ref.URL != "" {
			b.WriteString(" ")
			b.WriteString(theme.ReferenceURL.Render(ref.URL))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
