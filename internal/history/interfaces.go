// Package history persists conversation transcripts between invocations.
//
// Each conversation is an ordered, append-only list of role-tagged
// messages keyed by a user-chosen id. The reserved id
// constants.EphemeralChatID never touches disk: loads are empty,
// appends are dropped, and it never shows up in listings.
package history

import "github.com/quocvuong92/sgpt/internal/api"

// Store defines the conversation persistence contract.
// This interface enables dependency injection and easier testing.
type Store interface {
	// Load returns the transcript for id in first-to-last order.
	// Returns ErrNotFound when no conversation exists for id.
	Load(id string) ([]api.Message, error)

	// Append atomically extends the transcript for id, creating the
	// conversation if absent.
	Append(id string, messages ...api.Message) error

	// ListIDs enumerates every persisted conversation id.
	ListIDs() ([]string, error)

	// DeleteAll irreversibly removes every persisted conversation.
	DeleteAll() error
}

// Ensure concrete type implements the interface
var _ Store = (*FileStore)(nil)
