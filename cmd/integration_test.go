package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/quocvuong92/sgpt/internal/api"
	"github.com/quocvuong92/sgpt/internal/cache"
	"github.com/quocvuong92/sgpt/internal/config"
	"github.com/quocvuong92/sgpt/internal/handler"
	"github.com/quocvuong92/sgpt/internal/history"
	"github.com/quocvuong92/sgpt/internal/role"
)

// ============ Test Helpers ============

// newCompletionServer serves a fixed sequence of SSE content fragments
// and counts the requests it receives.
func newCompletionServer(t *testing.T, requests *atomic.Int32, fragments ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, fragment := range fragments {
			chunk, _ := json.Marshal(api.ChatResponse{
				Choices: []api.Choice{{Delta: api.Delta{Content: fragment}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestConfig(serverURL string) *config.Config {
	return &config.Config{
		APIKey:             "test-key",
		APIHost:            serverURL,
		Model:              "gpt-4o-mini",
		Temperature:        0.1,
		TopProbability:     1.0,
		CacheLength:        10,
		RequestTimeoutSecs: 5,
	}
}

// captureStdout redirects os.Stdout for the duration of fn. Checks that
// fail the test belong after the capture, not inside fn.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// withStdin replaces os.Stdin with a pipe carrying input while fn runs.
func withStdin(t *testing.T, input string, fn func()) {
	t.Helper()
	old := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	if _, err := w.WriteString(input); err != nil {
		t.Fatalf("writing test stdin failed: %v", err)
	}
	w.Close()
	os.Stdin = r
	defer func() { os.Stdin = old }()

	fn()
}

func seedConversation(t *testing.T, store *history.FileStore, id string) {
	t.Helper()
	err := store.Append(id,
		api.Message{Role: api.RoleUser, Content: "hello"},
		api.Message{Role: api.RoleAssistant, Content: "hi there"},
	)
	if err != nil {
		t.Fatalf("seeding conversation %q failed: %v", id, err)
	}
}

// ============ Option Validation ============

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name        string
		app         *App
		prompt      string
		stdinPassed bool
		wantErr     string
	}{
		{
			name:   "prompt given",
			app:    &App{},
			prompt: "hello",
		},
		{
			name:    "missing prompt",
			app:     &App{},
			wantErr: "prompt argument is required",
		},
		{
			name: "missing prompt allowed with editor",
			app:  &App{useEditor: true},
		},
		{
			name: "missing prompt allowed with repl",
			app:  &App{replID: "dev"},
		},
		{
			name:    "shell and code",
			app:     &App{shell: true, code: true},
			prompt:  "x",
			wantErr: "--shell and --code",
		},
		{
			name:    "chat and repl",
			app:     &App{chatID: "a", replID: "b"},
			prompt:  "x",
			wantErr: "--chat and --repl",
		},
		{
			name:        "editor with piped stdin",
			app:         &App{useEditor: true},
			prompt:      "piped text",
			stdinPassed: true,
			wantErr:     "--editor option cannot be used with stdin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.app.validateOptions(tt.prompt, tt.stdinPassed)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validateOptions() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("validateOptions() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateOptions() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// ============ End To End ============

func TestIntegration_DefaultMode(t *testing.T) {
	var requests atomic.Int32
	server := newCompletionServer(t, &requests, "Paris", " is the capital.")
	cfg := newTestConfig(server.URL)
	client := api.NewClient(cfg, nil)
	h := handler.NewDefault(client, cfg, role.Default)

	var content string
	var err error
	output := captureStdout(t, func() {
		content, err = h.Handle(context.Background(), "What is the capital of France?")
	})

	if err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}
	if content != "Paris is the capital." {
		t.Errorf("Handle() = %q, want %q", content, "Paris is the capital.")
	}
	if !strings.Contains(output, "Paris is the capital.") {
		t.Errorf("answer missing from stdout, got %q", output)
	}
	if requests.Load() != 1 {
		t.Errorf("server received %d requests, want 1", requests.Load())
	}
}

func TestIntegration_StreamingDisplay(t *testing.T) {
	var requests atomic.Int32
	server := newCompletionServer(t, &requests, "Hello", " ", "World")
	cfg := newTestConfig(server.URL)
	cfg.Stream = true
	client := api.NewClient(cfg, nil)
	h := handler.NewDefault(client, cfg, role.Default)

	var content string
	var err error
	output := captureStdout(t, func() {
		content, err = h.Handle(context.Background(), "Say hello")
	})

	if err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}
	if content != "Hello World" {
		t.Errorf("Handle() = %q, want %q", content, "Hello World")
	}
	if !strings.Contains(output, "Hello World") {
		t.Errorf("streamed fragments missing from stdout, got %q", output)
	}
}

func TestIntegration_CachedExchange(t *testing.T) {
	var requests atomic.Int32
	server := newCompletionServer(t, &requests, "cached answer")
	cfg := newTestConfig(server.URL)
	client := api.NewClient(cfg, cache.New(t.TempDir(), cfg.CacheLength))
	h := handler.NewDefault(client, cfg, role.Default)

	var first, second string
	var err1, err2 error
	captureStdout(t, func() {
		first, err1 = h.Handle(context.Background(), "same question")
		second, err2 = h.Handle(context.Background(), "same question")
	})

	if err1 != nil {
		t.Fatalf("first Handle() unexpected error: %v", err1)
	}
	if err2 != nil {
		t.Fatalf("second Handle() unexpected error: %v", err2)
	}
	if first != second {
		t.Errorf("cached replay %q differs from original %q", second, first)
	}
	if requests.Load() != 1 {
		t.Errorf("server received %d requests, want 1", requests.Load())
	}
}

func TestIntegration_ChatConversation(t *testing.T) {
	var requests atomic.Int32
	server := newCompletionServer(t, &requests, "noted")
	cfg := newTestConfig(server.URL)
	client := api.NewClient(cfg, nil)
	store := history.NewFileStore(t.TempDir())

	var err1, err2 error
	captureStdout(t, func() {
		_, err1 = handler.NewChat(client, cfg, role.Default, store, "project").
			Handle(context.Background(), "my name is Ada")
		_, err2 = handler.NewChat(client, cfg, role.Default, store, "project").
			Handle(context.Background(), "what is my name?")
	})

	if err1 != nil {
		t.Fatalf("first turn unexpected error: %v", err1)
	}
	if err2 != nil {
		t.Fatalf("second turn unexpected error: %v", err2)
	}

	transcript, err := store.Load("project")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(transcript) != 5 {
		t.Fatalf("transcript has %d messages after 2 turns, want 5", len(transcript))
	}
	wantRoles := []string{api.RoleSystem, api.RoleUser, api.RoleAssistant, api.RoleUser, api.RoleAssistant}
	for i, want := range wantRoles {
		if transcript[i].Role != want {
			t.Errorf("transcript[%d].Role = %q, want %q", i, transcript[i].Role, want)
		}
	}
	if requests.Load() != 2 {
		t.Errorf("server received %d requests, want 2", requests.Load())
	}
}

func TestIntegration_ShellMode(t *testing.T) {
	var requests atomic.Int32
	server := newCompletionServer(t, &requests, "```bash\nls -la\n```")
	cfg := newTestConfig(server.URL)
	client := api.NewClient(cfg, nil)
	h := handler.NewDefault(client, cfg, role.Shell)

	var content string
	var err error
	captureStdout(t, func() {
		content, err = h.Handle(context.Background(), "list files with details")
	})

	if err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}
	if content != "ls -la" {
		t.Errorf("Handle() = %q, want the bare command %q", content, "ls -la")
	}
}

// ============ Maintenance Options ============

func TestMaintenance_NothingToDo(t *testing.T) {
	app := &App{cfg: &config.Config{ChatCachePath: t.TempDir()}}

	if app.runMaintenance() {
		t.Error("runMaintenance() = true with no maintenance option set")
	}
}

func TestMaintenance_ListChats(t *testing.T) {
	dir := t.TempDir()
	store := history.NewFileStore(dir)
	seedConversation(t, store, "alpha")
	seedConversation(t, store, "beta")

	app := &App{cfg: &config.Config{ChatCachePath: dir}, listChats: true}

	var handled bool
	output := captureStdout(t, func() { handled = app.runMaintenance() })

	if !handled {
		t.Fatal("runMaintenance() = false, want true")
	}
	if !strings.Contains(output, "alpha") || !strings.Contains(output, "beta") {
		t.Errorf("output %q does not list both conversations", output)
	}
}

func TestMaintenance_ShowChat(t *testing.T) {
	dir := t.TempDir()
	seedConversation(t, history.NewFileStore(dir), "work")

	app := &App{cfg: &config.Config{ChatCachePath: dir}, showChatID: "work"}

	var handled bool
	output := captureStdout(t, func() { handled = app.runMaintenance() })

	if !handled {
		t.Fatal("runMaintenance() = false, want true")
	}
	if !strings.Contains(output, "user: hello") {
		t.Errorf("output %q missing the user message", output)
	}
	if !strings.Contains(output, "assistant: hi there") {
		t.Errorf("output %q missing the assistant message", output)
	}
}

func TestMaintenance_DeleteChats_Confirmed(t *testing.T) {
	dir := t.TempDir()
	store := history.NewFileStore(dir)
	seedConversation(t, store, "alpha")
	seedConversation(t, store, "beta")

	app := &App{cfg: &config.Config{ChatCachePath: dir}, deleteChats: true}

	captureStdout(t, func() {
		withStdin(t, "y\n", func() { app.runMaintenance() })
	})

	ids, err := store.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs() unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("%d conversations remain after confirmed delete, want 0", len(ids))
	}
}

func TestMaintenance_DeleteChats_Declined(t *testing.T) {
	dir := t.TempDir()
	store := history.NewFileStore(dir)
	seedConversation(t, store, "alpha")

	app := &App{cfg: &config.Config{ChatCachePath: dir}, deleteChats: true}

	captureStdout(t, func() {
		withStdin(t, "n\n", func() { app.runMaintenance() })
	})

	ids, err := store.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs() unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("declining the confirmation left %d conversations, want 1", len(ids))
	}
}
