// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Line-based interactive chat for the docsearch CLI.
//
// Handles "docsearch chat --no-tui", a readline-style REPL for terminals
// where the full-screen TUI is unwanted (ssh sessions, screen readers,
// scrollback-heavy workflows).
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear conversation history
//   /export [format]    Export the transcript (markdown or json)
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel the current answer
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/docsearch-tui/internal/config"
	"github.com/jeranaias/docsearch-tui/internal/docsearch"
	"github.com/jeranaias/docsearch-tui/internal/export"
	"github.com/jeranaias/docsearch-tui/internal/model"
	"github.com/jeranaias/docsearch-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ReplInput provides input history and line editing for interactive chat.
type ReplInput struct {
	line        *liner.State
	historyFile string
}

// NewReplInput creates a ReplInput with input history support.
func NewReplInput() *ReplInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	r := &ReplInput{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	r.loadHistory()
	return r
}

func (r *ReplInput) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Non-empty input is
// added to the history.
func (r *ReplInput) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// saveHistory persists input history with owner-only permissions.
func (r *ReplInput) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (r *ReplInput) Close() {
	r.saveHistory()
	r.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ReplSession holds the state for one interactive chat session.
type ReplSession struct {
	Conversation *model.Conversation
	Client       *docsearch.Client
	Quiet        bool
	StartTime    time.Time

	// Cancel function for the current stream. Guarded by cancelMu: the
	// signal handler goroutine fires it while the main loop installs and
	// clears it.
	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc

	Input *ReplInput
}

// setCancel installs (or clears, with nil) the cancel function for the
// in-flight stream.
func (s *ReplSession) setCancel(fn context.CancelFunc) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	s.cancelFunc = fn
}

// cancelInFlight fires and clears the stored cancel function, reporting
// whether a stream was actually cancelled.
func (s *ReplSession) cancelInFlight() bool {
	s.cancelMu.Lock()
	fn := s.cancelFunc
	s.cancelFunc = nil
	s.cancelMu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// NewReplSession creates a session from parsed arguments.
func NewReplSession(args Args) *ReplSession {
	return &ReplSession{
		Conversation: model.NewConversation(),
		Client:       NewClientFromConfig(args),
		Quiet:        args.Quiet,
		StartTime:    time.Now(),
		Input:        NewReplInput(),
	}
}

// =============================================================================
// REPL HANDLER
// =============================================================================

// HandleReplCommand runs the line-based chat loop.
func HandleReplCommand(args Args) error {
	session := NewReplSession(args)
	defer session.Input.Close()

	if !session.Quiet {
		printWelcome(session)
	}

	// First Ctrl+C cancels the in-flight answer rather than the process.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if session.cancelInFlight() {
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := session.Input.ReadInput(promptStyle.Render("docsearch> "))
		if err != nil {
			// liner.ErrPromptAborted is Ctrl+C; anything else is EOF.
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !shouldContinue {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage submits one query and streams the answer to stdout.
func processMessage(session *ReplSession, input string) error {
	if _, ok := session.Conversation.BeginRequest(input); !ok {
		// The REPL is synchronous, so this only happens if a cancelled
		// stream left the conversation mid-flight.
		session.Conversation.FinishStream()
		if _, ok := session.Conversation.BeginRequest(input); !ok {
			return fmt.Errorf("previous answer still in flight")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	session.setCancel(cancel)
	defer func() {
		session.setCancel(nil)
		cancel()
	}()

	fmt.Println()
	gotDelta := false

	streamErr := session.Client.StreamAnswer(ctx, input, func(ev docsearch.StreamEvent) {
		session.Conversation.ApplyEvent(ev)
		switch ev.Kind {
		case docsearch.EventChunk:
			fmt.Print(ev.Delta)
			gotDelta = true
		case docsearch.EventError:
			fmt.Fprintf(os.Stderr, "\n%s %s\n", errorStyle.Render("[Error]"), ev.Message)
		}
	})

	if streamErr != nil {
		if ctx.Err() != nil {
			// User cancelled; the partial answer stays in the transcript.
			session.Conversation.FinishStream()
			return nil
		}
		session.Conversation.FailTransport()
		return fmt.Errorf("%s", docsearch.UserFacingError(streamErr))
	}

	session.Conversation.FinishStream()

	last, ok := session.Conversation.GetLastAssistantMessage()
	if !ok {
		return nil
	}
	if !gotDelta && last.State == model.StateFinalized {
		fmt.Print(last.Content)
	}
	fmt.Println()
	printReferences(last.References)
	fmt.Println()
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand dispatches a /command. Returns false to exit the REPL.
func handleSlashCommand(cmd string, session *ReplSession) (bool, error) {
	fields := strings.Fields(cmd)
	name := strings.ToLower(fields[0])

	switch name {
	case "/help", "/h":
		printHelp()
		return true, nil

	case "/clear", "/c":
		session.Conversation.Clear()
		fmt.Println(commandStyle.Render("Conversation cleared"))
		return true, nil

	case "/export":
		format := "markdown"
		if len(fields) > 1 {
			format = strings.ToLower(fields[1])
		}
		return true, exportTranscript(session, format)

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (try /help)", name)
	}
}

// exportTranscript writes the conversation using the configured export dir.
func exportTranscript(session *ReplSession, format string) error {
	if session.Conversation.IsEmpty() {
		return fmt.Errorf("nothing to export")
	}

	opts := export.DefaultOptions()
	if cfg := config.Global(); cfg != nil && cfg.Export.Dir != "" {
		opts.OutputDir = cfg.Export.Dir
	}

	var (
		path string
		err  error
	)
	switch format {
	case "markdown", "md":
		path, err = export.ExportMarkdown(session.Conversation, opts)
	case "json":
		path, err = export.ExportJSON(session.Conversation, opts)
	default:
		return fmt.Errorf("unknown format: %s (markdown or json)", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", commandStyle.Render("Exported:"), path)
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func printWelcome(session *ReplSession) {
	fmt.Println(welcomeStyle.Render("docsearch chat"))
	fmt.Printf("%s %s\n",
		mutedStyle.Render("backend:"),
		session.Client.GetConfig().BaseURL)
	fmt.Println(mutedStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Println()
}

func printHelp() {
	fmt.Println(commandStyle.Render("Commands:"))
	fmt.Println("  /help, /h           Show this help")
	fmt.Println("  /clear, /c          Clear conversation history")
	fmt.Println("  /export [format]    Export transcript (markdown or json)")
	fmt.Println("  /quit, /q           Exit chat")
	fmt.Println("  Ctrl+C              Cancel the current answer")
	fmt.Println("  Ctrl+D              Exit chat")
}

func printExitSummary(session *ReplSession) {
	if session.Quiet || session.Conversation.IsEmpty() {
		return
	}
	duration := time.Since(session.StartTime).Round(time.Second)
	fmt.Printf("%s %d messages in %v\n",
		mutedStyle.Render("Session:"),
		session.Conversation.MessageCount(),
		duration)
	if last, ok := session.Conversation.GetLastMessage(); ok {
		fmt.Printf("%s %s\n", mutedStyle.Render("Last:"), last.Preview(60))
	}
}
