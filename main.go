// docsearch TUI - A terminal chat client for a documentation search backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docsearch-tui/internal/cli"
	"github.com/jeranaias/docsearch-tui/internal/config"
	"github.com/jeranaias/docsearch-tui/internal/ui/chat"
	"github.com/jeranaias/docsearch-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	cmd, rest := splitCommand(os.Args[1:])

	// Load configuration once at startup; every handler reads the global.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.Default()
	}
	config.SetGlobal(cfg)

	switch cmd {
	case "ask":
		args := cli.ParseArgs(rest)
		if err := cli.HandleAskCommand(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "chat", "":
		args := cli.ParseArgs(rest)
		if args.NoTUI || cfg.UI.PlainMode || !cli.IsTTY() {
			if err := cli.HandleReplCommand(args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
		runTUI(args)

	case "version", "--version", "-v":
		fmt.Printf("docsearch %s (%s, built %s)\n", Version, GitCommit, BuildDate)

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(2)
	}
}

// splitCommand separates the leading command word from the remaining
// arguments. A leading flag means no command was given.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}
	first := args[0]
	if len(first) > 0 && first[0] == '-' {
		switch first {
		case "--version", "-v", "--help", "-h":
			return first, args[1:]
		}
		return "", args
	}
	return first, args[1:]
}

func printUsage() {
	fmt.Println(`docsearch - chat with your documentation

Usage:
  docsearch                 Start the interactive TUI
  docsearch chat            Start the interactive TUI
  docsearch chat --no-tui   Line-based REPL (for ssh, screen readers, pipes)
  docsearch ask "question"  One-shot query, answer streamed to stdout
  docsearch version         Show version
  docsearch help            Show this help

Flags (ask and chat):
  -u, --url URL     Backend URL (default from config)
  -l, --limit N     Retrieval limit per query
  --plain           Plain text output, no markdown rendering
  --json            Machine-readable output (ask only)
  -q, --quiet       Suppress status output

Configuration is read from ~/.docsearch/config.toml and the DOCSEARCH_*
environment variables.`)
}

// runTUI starts the full-screen TUI.
func runTUI(args cli.Args) {
	// Bubble Tea owns the terminal, so debug output goes to a file instead
	// of stderr. Enabled with DOCSEARCH_DEBUG=1.
	if os.Getenv("DOCSEARCH_DEBUG") != "" {
		if path, err := config.DebugLogPath(); err == nil {
			if f, err := tea.LogToFile(path, "docsearch"); err == nil {
				defer f.Close()
			}
		}
	}

	theme := styles.NewTheme()

	client := cli.NewClientFromConfig(args)
	runner := chat.NewStreamRunner(client)

	m := chat.New(theme, runner, client.GetConfig().BaseURL)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// The runner needs the program handle for program.Send; attach it before
	// the event loop can submit anything.
	runner.SetProgram(p)

	// Hot-reload config edits while the TUI runs.
	if path, err := config.ConfigPathTOML(); err == nil {
		if watcher, werr := config.NewWatcher(path, func(updated *config.Config) {
			config.SetGlobal(updated)
		}); werr == nil {
			if werr := watcher.Watch(); werr == nil {
				defer watcher.Close()
			}
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running docsearch: %v\n", err)
		os.Exit(1)
	}
}
