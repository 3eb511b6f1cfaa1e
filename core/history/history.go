// Package history keeps REPL inputs and their rendered results in SQLite.
package history

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	session    TEXT NOT NULL,
	input      TEXT NOT NULL,
	output     TEXT NOT NULL,
	is_error   BOOLEAN NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS history_session ON history(session);
`

type Entry struct {
	Seq       int64     `db:"seq"`
	ID        string    `db:"id"`
	Session   string    `db:"session"`
	Input     string    `db:"input"`
	Output    string    `db:"output"`
	IsError   bool      `db:"is_error"`
	CreatedAt time.Time `db:"created_at"`
}

// Store is a history database. Each Store gets its own session ID so
// entries from concurrent REPLs stay distinguishable.
type Store struct {
	db      *sqlx.DB
	session string
}

// Open opens (or creates) the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, session: uuid.NewString()}, nil
}

func (s *Store) Session() string {
	return s.session
}

// Add records one input and its rendered result.
func (s *Store) Add(input, output string, isError bool) (*Entry, error) {
	e := &Entry{
		ID:        uuid.NewString(),
		Session:   s.session,
		Input:     input,
		Output:    output,
		IsError:   isError,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.db.NamedExec(`INSERT INTO history (id, session, input, output, is_error, created_at)
		VALUES (:id, :session, :input, :output, :is_error, :created_at)`, e)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	if e.Seq, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries across all sessions, oldest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	entries := []Entry{}
	err := s.db.Select(&entries, `SELECT seq, id, session, input, output, is_error, created_at
		FROM history ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	slices.Reverse(entries)
	return entries, nil
}

// Inputs returns up to limit of the most recent inputs across all
// sessions, oldest first. The prompt seeds its recall list from it.
func (s *Store) Inputs(limit int) ([]string, error) {
	var inputs []string
	err := s.db.Select(&inputs, `SELECT input FROM history ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	slices.Reverse(inputs)
	return inputs, nil
}

// Clear deletes every entry.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
