// Package sqliteslot provides a SQLite-backed slot for deployments that
// prefer a single SQLite file over BoltDB.
package sqliteslot

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/joshrakosky/fmg-pick/internal/storage"
)

// Slot is a SQLite-backed key-value slot. All values live in one table.
type Slot struct {
	db *sql.DB
}

// Open opens the SQLite database at dataSourceName and ensures the slot
// table exists.
func Open(dataSourceName string) (*Slot, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	query := `
	CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create slots table: %w", err)
	}

	return &Slot{db: db}, nil
}

func (s *Slot) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Slot) Set(key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("slot key is required")
	}
	query := `
		INSERT INTO slots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := s.db.Exec(query, key, value)
	return err
}

func (s *Slot) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM slots WHERE key = ?`, key)
	return err
}

func (s *Slot) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
