package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/agentroom/internal/transcript"
	_ "modernc.org/sqlite"
)

// Compile-time assertion: *SQLiteStore satisfies Store.
var _ Store = (*SQLiteStore)(nil)

// DefaultSQLitePath is used when SQLiteStore is opened without a path.
const DefaultSQLitePath = "sessions.db"

// SQLiteStore keeps transcripts as JSON in a single sessions table.
type SQLiteStore struct {
	db *sql.DB
}

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id       TEXT PRIMARY KEY,
	messages TEXT NOT NULL DEFAULT '[]'
)`

// NewSQLiteStore opens (or creates) the database at path. The path may also
// be given as a sqlite URL such as "sqlite:///./sessions.db"; ":memory:"
// opens a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = sqlitePath(path)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// sqlitePath strips the SQLAlchemy-style scheme prefixes that DATABASE_URL
// values commonly carry.
func sqlitePath(p string) string {
	if p == "" {
		return DefaultSQLitePath
	}
	for _, prefix := range []string{"sqlite+aiosqlite:///", "sqlite:///"} {
		if strings.HasPrefix(p, prefix) {
			return strings.TrimPrefix(p, prefix)
		}
	}
	return p
}

// Load returns the stored transcript or an empty one.
func (s *SQLiteStore) Load(ctx context.Context, id string) ([]transcript.Entry, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT messages FROM sessions WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []transcript.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: load %s: %w", id, err)
	}
	var entries []transcript.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", id, err)
	}
	return transcript.Clone(entries), nil
}

// Save upserts the transcript row.
func (s *SQLiteStore) Save(ctx context.Context, id string, entries []transcript.Entry) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	data, err := json.Marshal(transcript.Clone(entries))
	if err != nil {
		return fmt.Errorf("history: encode %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, messages) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET messages = excluded.messages`,
		id, string(data))
	if err != nil {
		return fmt.Errorf("history: save %s: %w", id, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
