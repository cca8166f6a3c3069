// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the docsearch CLI.
//
// Handles the "docsearch ask" command which sends one question to the search
// backend and streams the synthesized answer to stdout.
//
// Command: ask [question]
//
// Examples:
//   docsearch ask "How do I rotate credentials?"
//   docsearch ask --plain "What does the sync daemon do?"
//   echo "Where are the audit logs?" | docsearch ask
//
// Flags:
//   -u, --url URL     Backend URL (overrides config)
//   -l, --limit N     Retrieval limit (overrides config)
//   --plain           Stream plain text, skip markdown rendering
//   --json            Output the answer and references as JSON
//   -q, --quiet       Suppress status output
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docsearch-tui/internal/config"
	"github.com/jeranaias/docsearch-tui/internal/docsearch"
	"github.com/jeranaias/docsearch-tui/internal/markdown"
	"github.com/jeranaias/docsearch-tui/internal/model"
	"github.com/jeranaias/docsearch-tui/internal/ui/styles"
	"github.com/jeranaias/docsearch-tui/internal/util"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the glamour renderer for answer output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display. Returns the
// original content if rendering fails or the renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// STYLES
// =============================================================================

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	mutedStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	refLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)
)

// =============================================================================
// ASK HANDLER
// =============================================================================

// askResult is the JSON envelope for --json output.
type askResult struct {
	Query      string   `json:"query"`
	Answer     string   `json:"answer"`
	References []string `json:"references"`
	Failed     bool     `json:"failed"`
	DurationMs int64    `json:"duration_ms"`
}

// HandleAskCommand handles the "ask" command: one query, one streamed answer.
func HandleAskCommand(args Args) error {
	question := strings.TrimSpace(args.Query)

	// With no question on the command line, try stdin (for piped input).
	if question == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			data, err := io.ReadAll(bufio.NewReader(os.Stdin))
			if err == nil && len(data) > 0 {
				question = strings.TrimSpace(string(data))
			}
		}
	}
	if question == "" {
		return fmt.Errorf("no question provided. Usage: docsearch ask \"your question\"")
	}

	client := NewClientFromConfig(args)

	if !args.Quiet && !args.JSON {
		fmt.Fprintf(os.Stderr, "%s %s\n\n",
			infoStyle.Render("Searching:"),
			client.GetConfig().BaseURL)
	}

	// Stream deltas straight to stdout for pipes and --plain; collect and
	// render at the end on a TTY so glamour sees the full document.
	useMarkdown := IsStdoutTTY() && !args.Plain && !args.JSON
	liveOutput := !args.JSON && !useMarkdown

	answer := model.NewPendingAssistantMessage()
	gotDelta := false
	startTime := time.Now()

	streamErr := client.StreamAnswer(context.Background(), question, func(ev docsearch.StreamEvent) {
		switch ev.Kind {
		case docsearch.EventChunk:
			answer = answer.WithDelta(ev.Delta)
			gotDelta = true
			if liveOutput {
				fmt.Print(ev.Delta)
			}
		case docsearch.EventReferences:
			answer = answer.WithReferences(ev.References)
		case docsearch.EventError:
			answer = answer.WithError(ev.Message)
		}
	})

	duration := time.Since(startTime)

	if streamErr != nil {
		answer = answer.WithTransportFailure()
		if args.JSON {
			printAskJSON(question, answer, duration)
			return nil
		}
		fmt.Fprintf(os.Stderr, "%s %s\n",
			errorStyle.Render("[Error]"),
			docsearch.UserFacingError(streamErr))
		return fmt.Errorf("%s", answer.Content)
	}

	answer = answer.Finalized()

	if args.JSON {
		return printAskJSON(question, answer, duration)
	}

	if answer.State == model.StateFailed {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("[Error]"), answer.Content)
		return fmt.Errorf("answer failed")
	}

	if useMarkdown {
		fmt.Print(renderMarkdown(answer.Content))
	} else if liveOutput {
		if !gotDelta {
			// The fixed no-results text was substituted at finalization.
			fmt.Print(answer.Content)
		}
		fmt.Println()
	}

	printReferences(answer.References)

	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "\n%s\n",
			mutedStyle.Render(fmt.Sprintf("answered in %v", duration.Round(time.Millisecond))))
	}
	return nil
}

// printAskJSON writes the machine-readable result envelope.
func printAskJSON(question string, answer model.Message, duration time.Duration) error {
	out := askResult{
		Query:      question,
		Answer:     answer.Content,
		References: answer.References,
		Failed:     answer.State == model.StateFailed,
		DurationMs: duration.Milliseconds(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// printReferences lists normalized references below the answer.
func printReferences(raw []string) {
	if len(raw) == 0 {
		return
	}

	refs := markdown.NormalizeReferences(raw)

	// Align titles past the widest label so the list reads as columns.
	labelWidth := 0
	for _, ref := range refs {
		if w := util.StringWidth(ref.Label); w > labelWidth {
			labelWidth = w
		}
	}

	fmt.Println()
	fmt.Println(refLabelStyle.Render("References"))
	for _, ref := range refs {
		line := "  "
		if ref.Label != "" {
			line += util.PadRight("["+ref.Label+"]", labelWidth+2) + " "
		}
		line += ref.Title
		if ref.URL != "" {
			line += " - " + ref.URL
		}
		fmt.Println(line)
	}
}

// NewClientFromConfig builds a docsearch client from the global config with
// CLI flag overrides applied.
func NewClientFromConfig(args Args) *docsearch.Client {
	cfg := config.Global()

	clientConfig := docsearch.DefaultConfig()
	if cfg != nil {
		clientConfig.BaseURL = cfg.Backend.URL
		clientConfig.ChatPath = cfg.Backend.ChatPath
		clientConfig.ResultLimit = cfg.Backend.ResultLimit
		clientConfig.IdleTimeout = time.Duration(cfg.Backend.IdleTimeoutSecs) * time.Second
		clientConfig.RequestsPerMinute = cfg.Backend.RequestsPerMinute
	}
	if args.URL != "" {
		clientConfig.BaseURL = args.URL
	}
	if args.Limit > 0 {
		clientConfig.ResultLimit = args.Limit
	}

	return docsearch.NewClientWithConfig(clientConfig)
}
