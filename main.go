// crashchat - terminal client for the crash-data chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

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

	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/jeranaias/crashchat/internal/chat"
	"github.com/jeranaias/crashchat/internal/config"
	"github.com/jeranaias/crashchat/internal/export"
	"github.com/jeranaias/crashchat/internal/markdown"
	"github.com/jeranaias/crashchat/internal/model"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	args := parseArgs(os.Args[1:])

	if args.ShowVersion {
		fmt.Printf("crashchat %s (%s)\n", Version, GitCommit)
		return
	}
	if args.ShowHelp {
		printUsage()
		return
	}

	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crashchat: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	if err := run(args, cfg); err != nil {
		log.Error().Err(err).Msg("fatal error")
		fmt.Fprintf(os.Stderr, "crashchat: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// ARGUMENTS
// =============================================================================

// Args holds parsed command-line arguments.
type Args struct {
	ConfigPath  string
	ServerURL   string
	ExportDir   string
	ShowVersion bool
	ShowHelp    bool
}

func parseArgs(argv []string) Args {
	var args Args
	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "--version", "-V":
			args.ShowVersion = true
		case "--help", "-h":
			args.ShowHelp = true
		case "--config":
			if i+1 < len(argv) {
				i++
				args.ConfigPath = argv[i]
			}
		case "--server":
			if i+1 < len(argv) {
				i++
				args.ServerURL = argv[i]
			}
		case "--export-dir":
			if i+1 < len(argv) {
				i++
				args.ExportDir = argv[i]
			}
		}
	}
	return args
}

func printUsage() {
	fmt.Print(`crashchat - chat about NYC crash data from your terminal

Usage:
  crashchat [flags]

Flags:
  --config PATH      Config file (default: ~/.crashchat/config.toml)
  --server URL       Chat backend URL (overrides config)
  --export-dir PATH  Directory for exported transcripts (default: .)
  -V, --version      Print version
  -h, --help         Show this help

Interactive commands:
  /help              Show commands
  /clear             Clear local conversation view
  /history           Show conversation so far
  /export [html|md]  Export the conversation (default: html)
  /quit              Exit
  Ctrl+C             Cancel the current response
  Ctrl+D             Exit
`)
}

// =============================================================================
// SETUP
// =============================================================================

func loadConfig(args Args) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if args.ServerURL != "" {
		cfg.Server.BaseURL = args.ServerURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	})
}

func newRenderer(cfg *config.Config) *markdown.Renderer {
	return markdown.New(markdown.Options{
		HighlightCode: cfg.Render.HighlightCode,
		CodeStyle:     cfg.Render.CodeStyle,
	})
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// inputReader provides input history and line editing for the REPL.
type inputReader struct {
	line        *liner.State
	historyFile string
}

func newInputReader() *inputReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	r := &inputReader{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *inputReader) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *inputReader) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

type app struct {
	cfg       *config.Config
	session   *chat.Session
	exportDir string

	// cancel for the in-flight stream, nil when idle. Guarded by mu: the
	// REPL loop writes it while the signal goroutine reads it.
	mu           sync.Mutex
	cancelStream context.CancelFunc
}

func (a *app) setCancel(fn context.CancelFunc) {
	a.mu.Lock()
	a.cancelStream = fn
	a.mu.Unlock()
}

// cancelInFlight cancels the current stream, if any.
func (a *app) cancelInFlight() {
	a.mu.Lock()
	cancel := a.cancelStream
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func run(args Args, cfg *config.Config) error {
	client := chat.NewClientWithConfig(&chat.ClientConfig{
		BaseURL:           cfg.Server.BaseURL,
		Timeout:           cfg.Timeout(),
		RequestsPerMinute: cfg.Limits.RequestsPerMinute,
	})

	a := &app{
		cfg:       cfg,
		session:   chat.NewSession(client, newRenderer(cfg)),
		exportDir: args.ExportDir,
	}
	if a.exportDir == "" {
		a.exportDir = "."
	}

	// Hot-reload render settings when the config file changes on disk.
	if path, err := config.ConfigPath(); err == nil && args.ConfigPath == "" {
		if w, werr := config.NewWatcher(path, 500*time.Millisecond, func(next *config.Config) {
			a.cfg = next
			a.session.SetRenderer(newRenderer(next))
		}); werr == nil {
			if w.Watch() == nil {
				defer w.Close()
			}
		}
	}

	// Best effort: an unreachable backend should not block the REPL.
	preloadCtx, cancelPreload := context.WithTimeout(context.Background(), cfg.Timeout())
	if err := a.session.Preload(preloadCtx); err != nil {
		log.Warn().Err(err).Msg("could not preload session history")
	}
	cancelPreload()

	reader := newInputReader()
	defer reader.Close()

	// First Ctrl+C cancels the in-flight stream; at the prompt liner
	// surfaces it as ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigChan {
			a.cancelInFlight()
		}
	}()

	fmt.Printf("crashchat %s | %s\n", Version, cfg.Server.BaseURL)
	fmt.Println("Type your question and press Enter. Commands: /help, /quit")
	fmt.Println()

	for {
		input, err := reader.ReadInput("crashchat> ")
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) or io.EOF (Ctrl+D)
			if err == liner.ErrPromptAborted {
				fmt.Println()
				continue
			}
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if !a.handleCommand(input) {
				return nil
			}
			continue
		}

		if err := a.ask(input); err != nil {
			a.printError(err)
		}
	}
}

// ask submits one prompt and streams the reply to stdout as it arrives.
func (a *app) ask(prompt string) error {
	ctx, cancel := context.WithCancel(context.Background())
	a.setCancel(cancel)
	defer func() {
		a.setCancel(nil)
		cancel()
	}()

	fmt.Println()
	printed := 0
	_, err := a.session.Ask(ctx, prompt, func(msg *model.Message, html string) {
		// The rendered HTML is for export and embedding; the terminal gets
		// the raw text suffix since the last update.
		text := msg.GetDisplayContent()
		if len(text) > printed {
			fmt.Print(text[printed:])
			printed = len(text)
		}
	})
	fmt.Println()
	fmt.Println()

	if err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "[cancelled]")
			return nil
		}
		return err
	}
	return nil
}

// printError reports a failed request with a hint for the common cases.
func (a *app) printError(err error) {
	switch {
	case chat.IsUnreachable(err):
		fmt.Fprintf(os.Stderr, "[error] %v\n  Is the backend running at %s?\n", err, a.cfg.Server.BaseURL)
	case chat.IsTimeout(err):
		fmt.Fprintf(os.Stderr, "[error] %v\n  Try again, or raise server.timeout_secs in the config.\n", err)
	default:
		fmt.Fprintf(os.Stderr, "[error] %v\n", err)
	}
}

// handleCommand processes a slash command. Returns false to exit.
func (a *app) handleCommand(cmd string) bool {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	rest := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		printUsage()
		return true

	case "/clear", "/c":
		a.session.Conversation().ClearHistory()
		fmt.Println("[conversation cleared]")
		return true

	case "/history":
		a.printHistory()
		return true

	case "/export", "/e":
		a.exportConversation(rest)
		return true

	case "/quit", "/q", "/exit":
		return false

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s (type /help for commands)\n", command)
		return true
	}
}

func (a *app) printHistory() {
	conv := a.session.Conversation()
	if conv.IsEmpty() {
		fmt.Println("[no messages yet]")
		return
	}
	for i, msg := range conv.Messages {
		fmt.Printf("  %d. %s: %s\n", i+1, msg.Role.DisplayName(), msg.Preview(100))
	}
}

func (a *app) exportConversation(args []string) {
	conv := a.session.Conversation()
	if conv.IsEmpty() {
		fmt.Fprintln(os.Stderr, "nothing to export")
		return
	}

	opts := export.DefaultOptions()
	opts.OutputDir = a.exportDir
	opts.HighlightCode = a.cfg.Render.HighlightCode
	opts.CodeStyle = a.cfg.Render.CodeStyle

	format := "html"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}

	var path string
	var err error
	switch format {
	case "html":
		path, err = export.ExportHTML(conv, opts)
	case "md", "markdown":
		path, err = export.ExportMarkdown(conv, opts)
	default:
		fmt.Fprintf(os.Stderr, "unknown export format: %s (use html or md)\n", format)
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		return
	}
	fmt.Printf("[exported to %s]\n", path)
}
