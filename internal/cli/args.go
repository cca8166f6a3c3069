// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Unified argument parsing for the docsearch CLI.
//
// Each command shares one parser so flags behave the same everywhere:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
package cli

import (
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser parses raw command-line arguments into flags and positionals.
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser creates a new argument parser from raw arguments.
//
// Example:
//
//	args := NewArgParser([]string{"how do I deploy", "--limit", "8", "--plain"})
//	args.Flag("limit")      // "8"
//	args.BoolFlag("plain")  // true
func NewArgParser(raw []string) *ArgParser {
	parser := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0),
		raw:        raw,
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]

		if strings.HasPrefix(arg, "-") {
			// --flag=value format
			if strings.Contains(arg, "=") {
				parts := strings.SplitN(arg, "=", 2)
				flagName := strings.TrimLeft(parts[0], "-")
				flagValue := parts[1]

				if flagValue == "true" || flagValue == "false" {
					parser.boolFlags[flagName] = flagValue == "true"
				} else {
					parser.flags[flagName] = flagValue
				}
				i++
				continue
			}

			flagName := strings.TrimLeft(arg, "-")

			if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") && flagTakesValue(flagName) {
				parser.flags[flagName] = raw[i+1]
				i += 2
			} else {
				parser.boolFlags[flagName] = true
				i++
			}
		} else {
			parser.positional = append(parser.positional, arg)
			i++
		}
	}

	return parser
}

// flagTakesValue reports whether a flag consumes the following argument.
// Everything else is treated as boolean so that a question following a
// boolean flag is not swallowed as its value.
func flagTakesValue(name string) bool {
	switch name {
	case "url", "u", "limit", "l", "format", "f", "out", "o":
		return true
	}
	return false
}

// Flag returns the value of a string flag, or "" if unset.
func (p *ArgParser) Flag(name string) string {
	return p.flags[name]
}

// FlagIntOrDefault returns an integer flag value, or the default when the
// flag is unset or unparseable.
func (p *ArgParser) FlagIntOrDefault(name string, defaultValue int) int {
	v, ok := p.flags[name]
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// BoolFlag returns true if a boolean flag was passed.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[name]
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// JoinPositional joins all positional arguments into one string. Questions
// are usually passed unquoted, so the words arrive as separate arguments.
func (p *ArgParser) JoinPositional() string {
	return strings.Join(p.positional, " ")
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// PARSED COMMAND ARGUMENTS
// =============================================================================

// Args holds the parsed arguments shared by the ask and chat commands.
type Args struct {
	Query string // Joined positional arguments
	URL   string // Backend URL override (--url)
	Limit int    // Retrieval limit override (--limit), 0 means use config
	Plain bool   // Disable markdown rendering (--plain)
	JSON  bool   // Machine-readable output (--json)
	Quiet bool   // Suppress status output (--quiet)
	NoTUI bool   // Use the line-based REPL instead of the TUI (--no-tui)
}

// ParseArgs builds Args from raw arguments (excluding the command name).
func ParseArgs(raw []string) Args {
	p := NewArgParser(raw)
	return Args{
		Query: p.JoinPositional(),
		URL:   firstNonEmpty(p.Flag("url"), p.Flag("u")),
		Limit: p.FlagIntOrDefault("limit", p.FlagIntOrDefault("l", 0)),
		Plain: p.BoolFlag("plain"),
		JSON:  p.BoolFlag("json"),
		Quiet: p.BoolFlag("quiet") || p.BoolFlag("q"),
		NoTUI: p.BoolFlag("no-tui"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
