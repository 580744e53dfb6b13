package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/elk-language/go-prompt"

	"github.com/quocvuong92/sgpt/internal/api"
	"github.com/quocvuong92/sgpt/internal/config"
	"github.com/quocvuong92/sgpt/internal/display"
	"github.com/quocvuong92/sgpt/internal/history"
	"github.com/quocvuong92/sgpt/internal/role"
)

// Repl drives the interactive loop. Every accepted line becomes one
// conversation turn against the same chat id, so the transcript grows
// turn by turn exactly as it does in chat mode.
type Repl struct {
	chat        *Chat
	ctx         context.Context
	exitFlag    bool
	inputBuffer []string // Buffer for multiline input
}

// NewRepl creates the interactive handler bound to one chat id.
func NewRepl(client api.Completer, cfg *config.Config, kind role.Kind, store history.Store, chatID string) *Repl {
	return &Repl{chat: NewChat(client, cfg, kind, store, chatID)}
}

// Handle runs the loop until exit(), Ctrl+C or Ctrl+D. A non-empty
// initial prompt becomes the first turn before input is read.
func (h *Repl) Handle(ctx context.Context, initial string) (string, error) {
	h.ctx = ctx

	fmt.Printf("Entering REPL mode for chat %q, type exit() or press Ctrl+C to quit.\n", h.chat.chatID)
	fmt.Println("End a line with \\ for multiline input")
	fmt.Println()

	if first := strings.TrimSpace(initial); first != "" {
		h.dispatch(first)
	}

	p := prompt.New(
		h.processLine,
		prompt.WithPrefix("> "),
		prompt.WithTitle("sgpt"),
		prompt.WithPrefixTextColor(prompt.Green),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return h.exitFlag
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(p *prompt.Prompt) bool {
				fmt.Println("\nGoodbye!")
				h.exitFlag = true
				return false
			},
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn: func(p *prompt.Prompt) bool {
				if p.Buffer().Text() == "" {
					fmt.Println("Goodbye!")
					h.exitFlag = true
				}
				return false
			},
		}),
	)
	p.Run()

	return "", nil
}

// processLine handles one line read by the prompt: multiline
// continuation, the exit command, then a conversation turn.
func (h *Repl) processLine(input string) {
	if h.exitFlag {
		return
	}

	if strings.HasSuffix(input, "\\") {
		h.inputBuffer = append(h.inputBuffer, strings.TrimSuffix(input, "\\"))
		fmt.Print("... ")
		return
	}
	if len(h.inputBuffer) > 0 {
		h.inputBuffer = append(h.inputBuffer, input)
		input = strings.Join(h.inputBuffer, "\n")
		h.inputBuffer = nil
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	if input == "exit()" {
		h.exitFlag = true
		return
	}

	h.dispatch(input)
}

// dispatch runs one turn. An interrupt ends the loop; any other
// failure aborts just this turn.
func (h *Repl) dispatch(input string) {
	if _, err := h.chat.Handle(h.ctx, input); err != nil {
		if errors.Is(err, context.Canceled) {
			h.exitFlag = true
			return
		}
		display.ShowError(err.Error())
	}
}
