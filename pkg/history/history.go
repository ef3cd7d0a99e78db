// Package history records minimized failures in a SQLite database so that
// they can be listed and replayed later.
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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nomagicln/propshrink/pkg/property"
	"github.com/nomagicln/propshrink/pkg/runner"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// NotFoundError is returned when no record matches an id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("failure record not found: %s", e.ID)
}

// AmbiguousIDError is returned when an id prefix matches several records.
type AmbiguousIDError struct {
	Prefix string
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("id prefix %q matches more than one record", e.Prefix)
}

// Record is one minimized failure.
type Record struct {
	ID         string                  `json:"id" yaml:"id"`
	Name       string                  `json:"name" yaml:"name"`
	Expression string                  `json:"expression" yaml:"expression"`
	Generators []string                `json:"generators" yaml:"generators"`
	Seed       int64                   `json:"seed" yaml:"seed"`
	Trials     int                     `json:"trials" yaml:"trials"`
	MinSize    int                     `json:"min_size" yaml:"min_size"`
	MaxSize    int                     `json:"max_size" yaml:"max_size"`
	Passed     int                     `json:"passed" yaml:"passed"`
	Original   property.Counterexample `json:"original" yaml:"original"`
	Minimized  property.Counterexample `json:"minimized" yaml:"minimized"`
	Shrinks    int                     `json:"shrinks" yaml:"shrinks"`
	GaveUp     bool                    `json:"gave_up" yaml:"gave_up"`
	CreatedAt  time.Time               `json:"created_at" yaml:"created_at"`
}

// NewRecord builds a record from a falsified outcome.
func NewRecord(name, expression string, generators []string, o *runner.Outcome) (*Record, error) {
	if o == nil || !o.Falsified() {
		return nil, errors.New("only falsified outcomes can be recorded")
	}
	f := o.Failure
	original := f.Original
	if original == nil {
		original = f.Counterexample
	}
	return &Record{
		ID:         uuid.NewString(),
		Name:       name,
		Expression: expression,
		Generators: append([]string(nil), generators...),
		Seed:       o.Seed,
		Passed:     o.Passed,
		Original:   original.Clone(),
		Minimized:  f.Counterexample.Clone(),
		Shrinks:    f.Shrinks,
		GaveUp:     f.GaveUp,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Store is a SQLite-backed failure history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create failures table: %w", err)
		}
	}

	return &Store{db: db}, nil
}

var schema = []string{`
		CREATE TABLE IF NOT EXISTS failures (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			expression TEXT NOT NULL,
			generators TEXT NOT NULL,
			seed       INTEGER NOT NULL,
			trials     INTEGER NOT NULL,
			min_size   INTEGER NOT NULL,
			max_size   INTEGER NOT NULL,
			passed     INTEGER NOT NULL,
			original   TEXT NOT NULL,
			minimized  TEXT NOT NULL,
			shrinks    INTEGER NOT NULL,
			gave_up    INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	`CREATE INDEX IF NOT EXISTS failures_created_at ON failures(created_at)`,
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts r, assigning an id when it has none.
func (s *Store) Save(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	generators, err := json.Marshal(r.Generators)
	if err != nil {
		return fmt.Errorf("failed to encode generators: %w", err)
	}
	original, err := encodeTuple(r.Original)
	if err != nil {
		return err
	}
	minimized, err := encodeTuple(r.Minimized)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO failures (id, name, expression, generators, seed, trials, min_size, max_size, passed, original, minimized, shrinks, gave_up, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, r.Expression, string(generators), r.Seed, r.Trials, r.MinSize, r.MaxSize, r.Passed, original, minimized, r.Shrinks, r.GaveUp, r.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save failure: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, name, expression, generators, seed, trials, min_size, max_size, passed, original, minimized, shrinks, gave_up, created_at FROM failures`

// Get returns the record with the given id or unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, &NotFoundError{ID: id}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE substr(id, 1, ?) = ? ORDER BY id = ? DESC LIMIT 2`,
		len(id), id, id)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	switch {
	case len(records) == 0:
		return nil, &NotFoundError{ID: id}
	case records[0].ID == id:
		return records[0], nil
	case len(records) > 1:
		return nil, &AmbiguousIDError{Prefix: id}
	}
	return records[0], nil
}

// List returns up to limit records, newest first. A limit of zero or less
// returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = -1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM failures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete failure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete failure: %w", err)
	}
	if n == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var results []*Record
	for rows.Next() {
		var r Record
		var generators, original, minimized string
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.Name, &r.Expression, &generators, &r.Seed, &r.Trials, &r.MinSize, &r.MaxSize, &r.Passed,
			&original, &minimized, &r.Shrinks, &r.GaveUp, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(generators), &r.Generators); err != nil {
			return nil, fmt.Errorf("record %s: failed to decode generators: %w", r.ID, err)
		}
		var err error
		if r.Original, err = decodeTuple(original); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		if r.Minimized, err = decodeTuple(minimized); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return results, nil
}

// encodeTuple stores values as JSON. Values JSON cannot represent, such as
// NaN, are stored as their printed form.
func encodeTuple(ce property.Counterexample) (string, error) {
	out := make([]json.RawMessage, len(ce))
	for i, v := range ce {
		b, err := json.Marshal(v)
		if err != nil {
			b, err = json.Marshal(fmt.Sprint(v))
			if err != nil {
				return "", fmt.Errorf("failed to encode argument %d: %w", i, err)
			}
		}
		out[i] = b
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode tuple: %w", err)
	}
	return string(b), nil
}

// decodeTuple keeps numbers as json.Number so that integers print exactly.
func decodeTuple(s string) (property.Counterexample, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out []any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode tuple: %w", err)
	}
	return property.Counterexample(out), nil
}
