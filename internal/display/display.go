// Package display owns everything the user sees on the terminal:
// streamed fragments, rendered markdown, errors, transcripts and
// confirmation prompts.
package display

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"github.com/quocvuong92/sgpt/internal/api"
)

// markdownRenderer renders markdown output when --render is active.
// Nil means rendering is unavailable and content falls back to plain
// text.
var markdownRenderer *glamour.TermRenderer

// InitRenderer prepares the markdown renderer. Call once at startup
// when rendered output was requested.
func InitRenderer() error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize markdown renderer: %w", err)
	}
	markdownRenderer = renderer
	return nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ShowFragment prints one streamed fragment without a newline.
func ShowFragment(fragment string) {
	fmt.Print(fragment)
}

// EndStream closes the line left open by streamed fragments.
func EndStream() {
	fmt.Println()
}

// ShowContent prints the full content followed by a newline.
func ShowContent(content string) {
	fmt.Println(content)
}

// ShowContentRendered prints the content as rendered markdown, falling
// back to plain text when the renderer is unavailable.
func ShowContentRendered(content string) {
	if markdownRenderer == nil {
		ShowContent(content)
		return
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		ShowContent(content)
		return
	}
	fmt.Print(rendered)
}

// ShowError prints an error message to stderr.
func ShowError(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}

// ShowWarning prints a warning to stderr without aborting anything.
func ShowWarning(message string) {
	fmt.Fprintf(os.Stderr, "Warning: %s\n", message)
}

// ShowTranscript prints a conversation as "role: content" lines.
func ShowTranscript(messages []api.Message) {
	writeTranscript(os.Stdout, messages)
}

func writeTranscript(w io.Writer, messages []api.Message) {
	for _, message := range messages {
		fmt.Fprintf(w, "%s: %s\n", message.Role, message.Content)
	}
}

// AskConfirmation prints "<prompt> [y/N]" and reads one line from
// stdin. Only y or yes (case-insensitive) count as approval.
func AskConfirmation(prompt string) bool {
	return askConfirmation(os.Stdin, os.Stdout, prompt)
}

func askConfirmation(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
