package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/quocvuong92/sgpt/internal/api"
	"github.com/quocvuong92/sgpt/internal/config"
	"github.com/quocvuong92/sgpt/internal/display"
	"github.com/quocvuong92/sgpt/internal/history"
	"github.com/quocvuong92/sgpt/internal/role"
)

// Chat handles turns of a persisted conversation. Each completed turn
// appends the user and assistant messages to the transcript; the first
// turn also records the system instruction so resumed conversations
// never duplicate it.
type Chat struct {
	base
	store  history.Store
	chatID string
}

// NewChat creates a conversation handler bound to one chat id.
func NewChat(client api.Completer, cfg *config.Config, kind role.Kind, store history.Store, chatID string) *Chat {
	return &Chat{
		base:   base{client: client, cfg: cfg, role: kind},
		store:  store,
		chatID: chatID,
	}
}

// Handle resumes the transcript, runs one exchange and persists the
// turn. Store failures degrade to warnings: the user still gets the
// answer, it just will not be remembered.
func (h *Chat) Handle(ctx context.Context, prompt string) (string, error) {
	transcript, err := h.store.Load(h.chatID)
	if err != nil && !errors.Is(err, history.ErrNotFound) {
		display.ShowWarning(fmt.Sprintf("could not load conversation %q: %v", h.chatID, err))
		transcript = nil
	}

	userMessage := api.Message{Role: api.RoleUser, Content: prompt}

	messages := make([]api.Message, 0, len(transcript)+2)
	if len(transcript) == 0 {
		messages = append(messages, h.role.SystemMessage())
	} else {
		messages = append(messages, transcript...)
	}
	messages = append(messages, userMessage)

	content, err := h.complete(ctx, messages)
	if err != nil {
		return "", err
	}

	// Persist the raw assistant text so later turns see exactly what
	// the model said.
	var turn []api.Message
	if len(transcript) == 0 {
		turn = append(turn, messages[0])
	}
	turn = append(turn, userMessage, api.Message{Role: api.RoleAssistant, Content: content})

	if err := h.store.Append(h.chatID, turn...); err != nil {
		display.ShowWarning(fmt.Sprintf("could not save conversation %q: %v", h.chatID, err))
	}

	return h.role.PostProcess(content), nil
}
