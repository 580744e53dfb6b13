package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/sgpt/internal/api"
	"github.com/quocvuong92/sgpt/internal/cache"
	"github.com/quocvuong92/sgpt/internal/config"
	"github.com/quocvuong92/sgpt/internal/display"
	"github.com/quocvuong92/sgpt/internal/editor"
	"github.com/quocvuong92/sgpt/internal/executor"
	"github.com/quocvuong92/sgpt/internal/handler"
	"github.com/quocvuong92/sgpt/internal/history"
	"github.com/quocvuong92/sgpt/internal/logging"
	"github.com/quocvuong92/sgpt/internal/role"
)

// App holds the application state
type App struct {
	cfg *config.Config

	shell       bool
	code        bool
	useEditor   bool
	useCache    bool
	chatID      string
	replID      string
	showChatID  string
	listChats   bool
	deleteChats bool
	initConfig  bool
	verbose     bool
}

// NewApp creates an App with configuration assembled from the config
// file and the environment. Flag overrides are bound in Execute.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg}, nil
}

// Execute runs the root command
func Execute() {
	app, err := NewApp()
	if err != nil {
		display.ShowError(err.Error())
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "sgpt [prompt]",
		Short: "A command-line assistant backed by OpenAI chat models",
		Long: `sgpt is a command-line assistant backed by OpenAI chat models.
It answers questions, generates shell commands and code, keeps
multi-turn conversations, and caches completions on disk.

Examples:
  sgpt "What is the Fibonacci sequence?"
  sgpt --code "Binary search in Go"
  sgpt -s "List all .go files modified this week"
  git diff | sgpt "Write a commit message for these changes"
  sgpt --chat work "My project is a task scheduler called orbit"
  sgpt --chat work "Suggest a tagline for it"
  sgpt --repl dev`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app.run(cmd, args)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&app.cfg.Model, "model", "m", app.cfg.Model, "OpenAI model to use")
	flags.Float64Var(&app.cfg.Temperature, "temperature", app.cfg.Temperature, "Randomness of generated output, 0.0 to 1.0")
	flags.Float64Var(&app.cfg.TopProbability, "top-probability", app.cfg.TopProbability, "Limits highest probable tokens, 0.1 to 1.0")
	flags.BoolVarP(&app.shell, "shell", "s", false, "Generate and execute shell commands")
	flags.BoolVar(&app.code, "code", false, "Generate only code")
	flags.BoolVar(&app.useEditor, "editor", false, "Open $EDITOR to provide the prompt")
	flags.BoolVar(&app.useCache, "cache", true, "Cache completion results")
	flags.StringVar(&app.chatID, "chat", "", `Follow a conversation with this id, use "temp" for a quick session`)
	flags.StringVar(&app.replID, "repl", "", "Start a REPL session under this chat id")
	flags.StringVar(&app.showChatID, "show-chat", "", "Show all messages from the provided chat id")
	flags.BoolVar(&app.listChats, "list-chats", false, "List all existing chat ids")
	flags.BoolVar(&app.deleteChats, "delete-chats", false, "Delete all stored conversations")
	flags.BoolVar(&app.cfg.Stream, "stream", true, "Print fragments as they arrive instead of buffering")
	flags.BoolVarP(&app.cfg.Render, "render", "r", false, "Render markdown with colors and formatting")
	flags.BoolVar(&app.initConfig, "init-config", false, "Write a commented starter config file and exit")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (app *App) run(cmd *cobra.Command, args []string) {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logging.SetLevel(logging.ParseLevel(level))
	}
	if app.verbose {
		app.cfg.Verbose = true
		logging.SetLevel(logging.LevelDebug)
	}

	if app.initConfig {
		path, err := config.CreateDefaultConfigFile()
		if err != nil {
			display.ShowError(err.Error())
			os.Exit(1)
		}
		fmt.Printf("Config file created at %s\n", path)
		return
	}

	if app.runMaintenance() {
		return
	}

	prompt := ""
	if len(args) > 0 {
		prompt = args[0]
	}

	stdinPassed := !display.IsTerminal(os.Stdin)
	if stdinPassed && app.replID == "" {
		piped, err := io.ReadAll(os.Stdin)
		if err != nil {
			display.ShowError(fmt.Sprintf("failed to read stdin: %v", err))
			os.Exit(1)
		}
		prompt = string(piped) + prompt
	}

	if err := app.validateOptions(prompt, stdinPassed); err != nil {
		display.ShowError(err.Error())
		os.Exit(1)
	}

	if err := app.cfg.Validate(); err != nil {
		display.ShowError(err.Error())
		os.Exit(1)
	}

	if app.useEditor {
		edited, err := editor.GetPrompt()
		if err != nil {
			display.ShowError(err.Error())
			os.Exit(1)
		}
		prompt = edited
	}

	if app.cfg.Render {
		if err := display.InitRenderer(); err != nil {
			logging.Warn("markdown renderer unavailable", logging.Fields{"error": err.Error()})
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var completionCache *cache.Cache
	if app.useCache {
		completionCache = cache.New(app.cfg.CachePath, app.cfg.CacheLength)
	}
	client := api.NewClient(app.cfg, completionCache)
	store := history.NewFileStore(app.cfg.ChatCachePath)
	kind := role.Select(app.shell, app.code)

	if app.replID != "" {
		// Loops until the user exits or interrupts the session.
		_, _ = handler.NewRepl(client, app.cfg, kind, store, app.replID).Handle(ctx, prompt)
		return
	}

	var h handler.Handler
	if app.chatID != "" {
		h = handler.NewChat(client, app.cfg, kind, store, app.chatID)
	} else {
		h = handler.NewDefault(client, app.cfg, kind)
	}

	content, err := h.Handle(ctx, prompt)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			display.ShowError(err.Error())
		}
		os.Exit(1)
	}

	if app.shell && !stdinPassed && display.AskConfirmation("Execute shell command?") {
		if err := executor.New().Execute(ctx, content); err != nil {
			display.ShowError(err.Error())
			os.Exit(1)
		}
	}
}

// validateOptions rejects option combinations that cannot be served.
// It runs after stdin has been folded into the prompt and before any
// configuration validation or network activity.
func (app *App) validateOptions(prompt string, stdinPassed bool) error {
	if prompt == "" && !app.useEditor && app.replID == "" {
		return errors.New("prompt argument is required unless --editor or --repl is used")
	}
	if app.shell && app.code {
		return errors.New("--shell and --code options cannot be used together")
	}
	if app.chatID != "" && app.replID != "" {
		return errors.New("--chat and --repl options cannot be used together")
	}
	if app.useEditor && stdinPassed {
		return errors.New("--editor option cannot be used with stdin input")
	}
	return nil
}

// runMaintenance handles the options that only inspect or modify
// stored conversations. Returns true when one of them ran; these never
// touch the network or require an API key.
func (app *App) runMaintenance() bool {
	if app.showChatID == "" && !app.listChats && !app.deleteChats {
		return false
	}

	store := history.NewFileStore(app.cfg.ChatCachePath)

	switch {
	case app.showChatID != "":
		messages, err := store.Load(app.showChatID)
		if err != nil {
			display.ShowError(err.Error())
			os.Exit(1)
		}
		display.ShowTranscript(messages)
	case app.listChats:
		ids, err := store.ListIDs()
		if err != nil {
			display.ShowError(err.Error())
			os.Exit(1)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	case app.deleteChats:
		if !display.AskConfirmation("Delete all stored conversations?") {
			return true
		}
		if err := store.DeleteAll(); err != nil {
			display.ShowError(err.Error())
			os.Exit(1)
		}
		fmt.Println("All conversations deleted.")
	}

	return true
}
