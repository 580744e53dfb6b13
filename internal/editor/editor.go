// Package editor collects prompt text through the user's editor.
package editor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const fallbackEditor = "vim"

// ErrEmptyPrompt indicates the editor session produced no text.
var ErrEmptyPrompt = errors.New("couldn't get prompt from your editor")

// GetPrompt opens $EDITOR (falling back to vim) on an empty temp file
// and returns the text saved there, trimmed. The editor runs attached
// to the user's terminal.
func GetPrompt() (string, error) {
	f, err := os.CreateTemp("", "sgpt-prompt-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create prompt file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close prompt file: %w", err)
	}
	defer func() { _ = os.Remove(path) }()

	if err := runEditor(editorCommand(), path); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrEmptyPrompt
	}

	return text, nil
}

// editorCommand returns the configured editor command line.
func editorCommand() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	return fallbackEditor
}

// runEditor launches the editor on path and waits for it to exit.
// $EDITOR may carry arguments, e.g. "code --wait".
func runEditor(command, path string) error {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return fmt.Errorf("invalid editor command %q", command)
	}

	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q failed: %w", parts[0], err)
	}
	return nil
}
