// Package history persists session transcripts keyed by session ID.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/agentroom/internal/transcript"
)

// Store is the persistence backend for transcripts.
// Implementations: MemStore, FileStore, SQLiteStore, KuzuStore (cgo only).
type Store interface {
	io.Closer

	// Load returns the saved transcript, or an empty one if id is unknown.
	Load(ctx context.Context, id string) ([]transcript.Entry, error)

	// Save creates or overwrites the transcript for id.
	Save(ctx context.Context, id string, entries []transcript.Entry) error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendKuzu   = "kuzu"
)

// ErrInvalidID is returned for session IDs that cannot be used as keys.
var ErrInvalidID = errors.New("history: invalid session id")

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the directory (file), database file (sqlite) or database
	// directory (kuzu). Empty means in-memory where the backend supports it.
	Path string
}

// Open builds the backend named by opts.Backend. An empty backend is memory.
func Open(opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		s = NewMemStore()
	case BackendFile:
		s, err = NewFileStore(opts.Path)
	case BackendSQLite:
		s, err = NewSQLiteStore(opts.Path)
	case BackendKuzu:
		s, err = NewKuzuStore(opts.Path)
	default:
		return nil, fmt.Errorf("history: unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ValidateID rejects empty IDs and IDs that could escape a storage directory.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
