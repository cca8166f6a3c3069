// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements command-line interface handlers for docsearch.
package cli

import (
	"context"
	"sync"
	"testing"
)

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser_LongFlags(t *testing.T) {
	p := NewArgParser([]string{"--url", "http://localhost:9000", "--limit", "8"})

	if got := p.Flag("url"); got != "http://localhost:9000" {
		t.Errorf("url = %q", got)
	}
	if got := p.FlagIntOrDefault("limit", 0); got != 8 {
		t.Errorf("limit = %d", got)
	}
}

func TestArgParser_EqualsForm(t *testing.T) {
	p := NewArgParser([]string{"--url=http://localhost:9000", "--plain=true"})

	if got := p.Flag("url"); got != "http://localhost:9000" {
		t.Errorf("url = %q", got)
	}
	if !p.BoolFlag("plain") {
		t.Error("plain = false")
	}
}

func TestArgParser_BoolFlags(t *testing.T) {
	p := NewArgParser([]string{"--plain", "--json", "-q"})

	if !p.BoolFlag("plain") || !p.BoolFlag("json") || !p.BoolFlag("q") {
		t.Error("boolean flags not set")
	}
	if p.BoolFlag("quiet") {
		t.Error("unset flag reported true")
	}
}

func TestArgParser_BoolFlagDoesNotSwallowQuestion(t *testing.T) {
	// A question word after a boolean flag is a positional, not a value.
	p := NewArgParser([]string{"--plain", "how", "do", "I", "deploy"})

	if !p.BoolFlag("plain") {
		t.Error("plain = false")
	}
	if got := p.JoinPositional(); got != "how do I deploy" {
		t.Errorf("positionals = %q", got)
	}
}

func TestArgParser_Positionals(t *testing.T) {
	p := NewArgParser([]string{"how", "do", "I", "--limit", "3", "deploy"})

	if got := p.JoinPositional(); got != "how do I deploy" {
		t.Errorf("JoinPositional = %q", got)
	}
	if got := p.Positional(0); got != "how" {
		t.Errorf("Positional(0) = %q", got)
	}
	if got := p.Positional(99); got != "" {
		t.Errorf("Positional(99) = %q, want empty", got)
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	p := NewArgParser([]string{"--limit", "not-a-number"})

	if got := p.FlagIntOrDefault("limit", 4); got != 4 {
		t.Errorf("unparseable int = %d, want default", got)
	}
	if got := p.FlagIntOrDefault("missing", 7); got != 7 {
		t.Errorf("missing int = %d, want default", got)
	}
}

// =============================================================================
// PARSED ARGS TESTS
// =============================================================================

func TestParseArgs(t *testing.T) {
	args := ParseArgs([]string{"what", "is", "the", "retry", "policy",
		"--url", "http://docs.internal:8100", "--limit", "2", "--json", "--no-tui"})

	if args.Query != "what is the retry policy" {
		t.Errorf("Query = %q", args.Query)
	}
	if args.URL != "http://docs.internal:8100" {
		t.Errorf("URL = %q", args.URL)
	}
	if args.Limit != 2 {
		t.Errorf("Limit = %d", args.Limit)
	}
	if !args.JSON {
		t.Error("JSON = false")
	}
	if !args.NoTUI {
		t.Error("NoTUI = false")
	}
	if args.Plain || args.Quiet {
		t.Error("unset flags reported true")
	}
}

func TestParseArgs_ShortAliases(t *testing.T) {
	args := ParseArgs([]string{"-u", "http://short:1", "-l", "9", "-q"})

	if args.URL != "http://short:1" {
		t.Errorf("URL = %q", args.URL)
	}
	if args.Limit != 9 {
		t.Errorf("Limit = %d", args.Limit)
	}
	if !args.Quiet {
		t.Error("Quiet = false")
	}
}

func TestParseArgs_Empty(t *testing.T) {
	args := ParseArgs(nil)

	if args.Query != "" || args.URL != "" || args.Limit != 0 {
		t.Errorf("zero args = %+v", args)
	}
}

// =============================================================================
// CLIENT CONSTRUCTION TESTS
// =============================================================================

func TestNewClientFromConfig_Overrides(t *testing.T) {
	client := NewClientFromConfig(Args{URL: "http://override:4242", Limit: 11})

	cfg := client.GetConfig()
	if cfg.BaseURL != "http://override:4242" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.ResultLimit != 11 {
		t.Errorf("ResultLimit = %d", cfg.ResultLimit)
	}
}

func TestNewClientFromConfig_Defaults(t *testing.T) {
	client := NewClientFromConfig(Args{})

	cfg := client.GetConfig()
	if cfg.BaseURL == "" || cfg.ChatPath == "" {
		t.Errorf("config not defaulted: %+v", cfg)
	}
	if cfg.ResultLimit < 1 {
		t.Errorf("ResultLimit = %d", cfg.ResultLimit)
	}
}

// =============================================================================
// REPL SESSION TESTS
// =============================================================================

func TestReplSession_CancelInFlight(t *testing.T) {
	s := &ReplSession{}

	if s.cancelInFlight() {
		t.Error("cancel with nothing in flight reported true")
	}

	fired := false
	s.setCancel(func() { fired = true })
	if !s.cancelInFlight() {
		t.Error("cancel with a stream in flight reported false")
	}
	if !fired {
		t.Error("stored cancel function was not invoked")
	}

	// The function is cleared on first fire; a second signal is a no-op.
	if s.cancelInFlight() {
		t.Error("second cancel reported true")
	}
}

func TestReplSession_CancelConcurrentWithInstall(t *testing.T) {
	// The signal handler goroutine fires the cancel while the main loop
	// installs and clears it; the two must not race.
	s := &ReplSession{}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				ctx, cancel := context.WithCancel(context.Background())
				s.setCancel(cancel)
				s.cancelInFlight()
				s.setCancel(nil)
				cancel()
				<-ctx.Done()
			}
		}()
	}
	wg.Wait()
}
