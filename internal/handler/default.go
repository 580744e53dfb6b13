package handler

import (
	"context"

	"github.com/quocvuong92/sgpt/internal/api"
	"github.com/quocvuong92/sgpt/internal/config"
	"github.com/quocvuong92/sgpt/internal/role"
)

// Default handles one-shot prompts: no transcript is loaded and
// nothing is persisted.
type Default struct {
	base
}

// NewDefault creates the one-shot handler.
func NewDefault(client api.Completer, cfg *config.Config, kind role.Kind) *Default {
	return &Default{base{client: client, cfg: cfg, role: kind}}
}

// Handle sends the system instruction and the prompt, returning the
// post-processed answer.
func (h *Default) Handle(ctx context.Context, prompt string) (string, error) {
	messages := []api.Message{
		h.role.SystemMessage(),
		{Role: api.RoleUser, Content: prompt},
	}

	content, err := h.complete(ctx, messages)
	if err != nil {
		return "", err
	}

	return h.role.PostProcess(content), nil
}
