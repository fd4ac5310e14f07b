//go:build cgo

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dusk-indust/agentroom/internal/transcript"
	kuzu "github.com/kuzudb/go-kuzu"
)

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// KuzuStore implements Store on an embedded KuzuDB graph database, one
// Session node per transcript. It requires CGO because the go-kuzu driver
// wraps KuzuDB's C library.
type KuzuStore struct {
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

const sessionNodeDDL = `CREATE NODE TABLE IF NOT EXISTS Session(
	id STRING,
	messages STRING,
	PRIMARY KEY(id)
)`

// NewKuzuStore opens a KuzuDB at dbPath, or an in-memory database when
// dbPath is empty, and creates the Session table.
func NewKuzuStore(dbPath string) (*KuzuStore, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		// KuzuDB creates the leaf directory itself.
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}

	db, err := kuzu.OpenDatabase(dbPath, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}

	s := &KuzuStore{db: db, conn: conn}
	res, err := conn.Query(sessionNodeDDL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("kuzu: init schema: %w", err)
	}
	res.Close()
	return s, nil
}

// Load returns the transcript stored on the Session node, or an empty one.
func (s *KuzuStore) Load(_ context.Context, id string) ([]transcript.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.conn.Prepare("MATCH (s:Session {id: $id}) RETURN s.messages")
	if err != nil {
		return nil, fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	if !res.HasNext() {
		return []transcript.Entry{}, nil
	}
	tuple, err := res.Next()
	if err != nil {
		return nil, fmt.Errorf("kuzu: next: %w", err)
	}
	vals, err := tuple.GetAsSlice()
	if err != nil {
		return nil, fmt.Errorf("kuzu: row values: %w", err)
	}
	raw, _ := vals[0].(string)

	var entries []transcript.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("kuzu: decode %s: %w", id, err)
	}
	return transcript.Clone(entries), nil
}

// Save upserts the Session node.
func (s *KuzuStore) Save(_ context.Context, id string, entries []transcript.Entry) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	data, err := json.Marshal(transcript.Clone(entries))
	if err != nil {
		return fmt.Errorf("kuzu: encode %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.conn.Prepare(`MERGE (s:Session {id: $id})
		 ON CREATE SET s.messages = $messages
		 ON MATCH SET s.messages = $messages`)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, map[string]any{"id": id, "messages": string(data)})
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}
