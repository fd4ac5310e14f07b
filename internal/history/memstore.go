package history

import (
	"context"
	"sync"

	"github.com/dusk-indust/agentroom/internal/transcript"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using a Go map. Thread-safe via sync.RWMutex.
// Transcripts are copied on the way in and out.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string][]transcript.Entry
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{sessions: make(map[string][]transcript.Entry)}
}

// Load returns a copy of the stored transcript.
func (m *MemStore) Load(_ context.Context, id string) ([]transcript.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return transcript.Clone(m.sessions[id]), nil
}

// Save replaces the stored transcript with a copy of entries.
func (m *MemStore) Save(_ context.Context, id string, entries []transcript.Entry) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = transcript.Clone(entries)
	return nil
}

// Close is a no-op.
func (m *MemStore) Close() error { return nil }
