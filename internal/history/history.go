// Package history persists REPL input lines and their outcomes to a
// local SQLite database, grounded on the teacher's database/sql
// persistence idiom (lib/runtime/persistence.go, cmd/tt/main.go) but
// swapped from the teacher's cgo mattn/go-sqlite3 driver to the pure-Go
// modernc.org/sqlite driver so the REPL needs no C toolchain.
package history

import (
	"database/sql"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// Status is the outcome of one REPL line.
type Status string

const (
	StatusOK           Status = "ok"
	StatusCompileError Status = "compile_error"
	StatusRuntimeError Status = "runtime_error"
)

// Entry is one recorded REPL interaction.
type Entry struct {
	ID      int64
	Line    string
	Status  Status
	Printed string
	TraceID string
}

// Store wraps a SQLite-backed history table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "history: opening %s", path)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "history: setting busy timeout")
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		line TEXT NOT NULL,
		status TEXT NOT NULL,
		printed TEXT NOT NULL,
		trace_id TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "history: creating table")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one REPL interaction.
func (s *Store) Append(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO history (line, status, printed, trace_id) VALUES (?, ?, ?, ?)`,
		e.Line, string(e.Status), e.Printed, e.TraceID,
	)
	if err != nil {
		return errors.Wrap(err, "history: appending entry")
	}
	return nil
}

// Recent returns the last n entries, most recent first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, line, status, printed, trace_id FROM history ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, errors.Wrap(err, "history: querying recent entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status string
		if err := rows.Scan(&e.ID, &e.Line, &status, &e.Printed, &e.TraceID); err != nil {
			return nil, errors.Wrap(err, "history: scanning entry")
		}
		e.Status = Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
