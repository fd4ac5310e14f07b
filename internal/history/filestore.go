package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dusk-indust/agentroom/internal/transcript"
)

// Compile-time assertion: *FileStore satisfies Store.
var _ Store = (*FileStore)(nil)

// DefaultSessionsDir is used when FileStore is opened without a path.
const DefaultSessionsDir = "sessions"

// FileStore keeps one indented JSON file per session in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultSessionsDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create sessions dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Load reads the session file. A missing file is an empty transcript.
func (s *FileStore) Load(_ context.Context, id string) ([]transcript.Entry, error) {
	if err := ValidateID(id); err != nil {
		return []transcript.Entry{}, nil
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return []transcript.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: read %s: %w", id, err)
	}
	var entries []transcript.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("history: parse %s: %w", id, err)
	}
	return transcript.Clone(entries), nil
}

// Save writes the transcript to a temp file and renames it into place.
func (s *FileStore) Save(_ context.Context, id string, entries []transcript.Entry) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	data, err := json.MarshalIndent(transcript.Clone(entries), "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("history: write %s: %w", id, err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("history: write %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("history: write %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("history: write %s: %w", id, err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
