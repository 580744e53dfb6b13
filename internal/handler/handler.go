// Package handler implements the three output handlers behind every
// invocation: Default for one-shot prompts, Chat for persisted
// conversations and Repl for the interactive loop. All three share one
// contract and one completion pipeline; they differ in how the message
// list is assembled and whether the turn is persisted.
package handler

import (
	"context"

	"github.com/quocvuong92/sgpt/internal/api"
	"github.com/quocvuong92/sgpt/internal/config"
	"github.com/quocvuong92/sgpt/internal/display"
	"github.com/quocvuong92/sgpt/internal/role"
)

// Handler runs one full prompt-to-answer exchange.
type Handler interface {
	// Handle sends prompt through the completion pipeline, shows the
	// answer to the user and returns the final text.
	Handle(ctx context.Context, prompt string) (string, error)
}

// base carries what every handler needs: the completion client, the
// effective configuration and the selected role.
type base struct {
	client api.Completer
	cfg    *config.Config
	role   role.Kind
}

// complete performs one exchange over messages and displays the answer.
// With streaming display each fragment prints as it arrives; otherwise
// the full text is shown at the end, rendered when requested. Returns
// the raw accumulated text.
func (b *base) complete(ctx context.Context, messages []api.Message) (string, error) {
	request := api.Request{
		Messages:       messages,
		Model:          b.cfg.Model,
		Temperature:    b.cfg.Temperature,
		TopProbability: b.cfg.TopProbability,
	}

	// Rendered markdown needs the whole text, so --render buffers even
	// when streaming display is on.
	buffered := !b.cfg.Stream || b.cfg.Render

	sp := display.NewSpinner("Thinking...")
	sp.Start()

	first := true
	content, err := b.client.Complete(ctx, request, func(fragment string) {
		if first {
			first = false
			if buffered {
				sp.UpdateMessage("Receiving...")
			} else {
				sp.Stop()
			}
		}
		if !buffered {
			display.ShowFragment(fragment)
		}
	})
	sp.Stop()

	if err != nil {
		return "", err
	}

	if buffered {
		if b.cfg.Render {
			display.ShowContentRendered(b.role.PostProcess(content))
		} else {
			display.ShowContent(b.role.PostProcess(content))
		}
	} else {
		display.EndStream()
	}

	return content, nil
}
