package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/quocvuong92/sgpt/internal/api"
	"github.com/quocvuong92/sgpt/internal/constants"
	"github.com/quocvuong92/sgpt/internal/logging"
)

const transcriptExt = ".json"

var (
	// ErrNotFound indicates no conversation exists for the given id.
	ErrNotFound = errors.New("conversation not found")

	// ErrInvalidID indicates a conversation id that cannot name a
	// transcript file.
	ErrInvalidID = errors.New("invalid conversation id")
)

// FileStore keeps one JSON transcript file per conversation id under a
// single directory. Writes replace the whole file atomically so a
// transcript is never observed mid-append.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a store rooted at dir, creating the directory
// if missing. A failure to create it is logged; subsequent operations
// will surface their own errors.
func NewFileStore(dir string) *FileStore {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Warn("failed to create chat directory", logging.Fields{
			"dir":   dir,
			"error": err.Error(),
		})
	}
	return &FileStore{dir: dir}
}

// Load returns the transcript for id in first-to-last order.
// The ephemeral id always loads as an empty transcript.
func (s *FileStore) Load(id string) ([]api.Message, error) {
	if id == constants.EphemeralChatID {
		return nil, nil
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var messages []api.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse transcript %q: %w", id, err)
	}

	return messages, nil
}

// Append atomically extends the transcript for id, creating the
// conversation if absent. Appending to the ephemeral id is a no-op.
func (s *FileStore) Append(id string, messages ...api.Message) error {
	if id == constants.EphemeralChatID {
		return nil
	}
	if err := validateID(id); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var transcript []api.Message
	data, err := os.ReadFile(s.path(id))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &transcript); err != nil {
			return fmt.Errorf("failed to parse transcript %q: %w", id, err)
		}
	case os.IsNotExist(err):
		// First turn of a new conversation.
	default:
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	transcript = append(transcript, messages...)

	encoded, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := writeFileAtomic(s.path(id), encoded); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	return nil
}

// ListIDs enumerates persisted conversation ids in sorted order.
func (s *FileStore) ListIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan chat directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, transcriptExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, transcriptExt))
	}

	sort.Strings(ids)
	return ids, nil
}

// DeleteAll removes every persisted conversation.
func (s *FileStore) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to scan chat directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), transcriptExt) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to delete transcript %q: %w", entry.Name(), err)
		}
	}

	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+transcriptExt)
}

// validateID rejects ids that would escape the store directory or
// collide with hidden and temporary files.
func validateID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// writeFileAtomic writes data through a temp file in the same
// directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return err
	}
	tempPath := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	return nil
}
