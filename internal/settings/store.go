// Package settings remembers per-clip raw parameter adjustments in a
// SQLite database.
package settings

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/e7canasta/rawplay/modules/clip"
)

// Store wraps the settings database.
type Store struct {
	db *sql.DB
}

// Entry is one remembered clip.
type Entry struct {
	Clip      string             `json:"clip"`
	Params    clip.RawParameters `json:"params"`
	UpdatedAt time.Time          `json:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS raw_parameters (
	clip TEXT PRIMARY KEY,
	params TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_raw_parameters_updated ON raw_parameters(updated_at);
`

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("settings: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open %s: %w", path, err)
	}
	// one connection: an in-memory database is per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("settings: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the parameters saved for clipPath. ok is false when none
// were saved.
func (s *Store) Load(clipPath string) (params clip.RawParameters, ok bool, err error) {
	var raw string
	err = s.db.QueryRow(`SELECT params FROM raw_parameters WHERE clip = ?`, key(clipPath)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return clip.RawParameters{}, false, nil
	}
	if err != nil {
		return clip.RawParameters{}, false, fmt.Errorf("settings: load %s: %w", clipPath, err)
	}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return clip.RawParameters{}, false, fmt.Errorf("settings: decode %s: %w", clipPath, err)
	}
	return params, true, nil
}

// Save stores params for clipPath, replacing earlier ones.
func (s *Store) Save(clipPath string, params clip.RawParameters) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("settings: encode %s: %w", clipPath, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO raw_parameters (clip, params, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(clip) DO UPDATE SET params = excluded.params, updated_at = excluded.updated_at`,
		key(clipPath), string(raw), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("settings: save %s: %w", clipPath, err)
	}
	return nil
}

// Delete forgets clipPath.
func (s *Store) Delete(clipPath string) error {
	if _, err := s.db.Exec(`DELETE FROM raw_parameters WHERE clip = ?`, key(clipPath)); err != nil {
		return fmt.Errorf("settings: delete %s: %w", clipPath, err)
	}
	return nil
}

// Recent lists up to limit clips, most recently saved first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`SELECT clip, params, updated_at FROM raw_parameters ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("settings: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			raw     string
			updated int64
		)
		if err := rows.Scan(&e.Clip, &raw, &updated); err != nil {
			return nil, fmt.Errorf("settings: recent: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &e.Params); err != nil {
			return nil, fmt.Errorf("settings: decode %s: %w", e.Clip, err)
		}
		e.UpdatedAt = time.Unix(0, updated)
		out = append(out, e)
	}
	return out, rows.Err()
}

// key normalizes a clip path so "a/b" and "a/b/" share settings.
func key(clipPath string) string {
	return filepath.Clean(clipPath)
}
