package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dimas0311/home-price-predictor/cache"
)

// SQLiteStore persists cache entries in a local SQLite file. It is the
// default backend: a single-file store with the same lifetime semantics the
// browser-local cache had.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite file at the given path and
// runs schema migrations. Intermediate directories are created
// automatically.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("sqlite: create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key       TEXT PRIMARY KEY,
			payload   BLOB    NOT NULL,
			stored_at INTEGER NOT NULL
		);
	`)
	return err
}

// Read returns the entry stored under key, or cache.ErrNotFound.
func (s *SQLiteStore) Read(key string) (cache.Entry, error) {
	var payload []byte
	var storedMs int64

	err := s.db.QueryRow(
		`SELECT payload, stored_at FROM cache_entries WHERE key = $1`, key,
	).Scan(&payload, &storedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, cache.ErrNotFound
	}
	if err != nil {
		return cache.Entry{}, fmt.Errorf("sqlite: read %q: %w", key, err)
	}

	return cache.Entry{
		Key:      key,
		Payload:  payload,
		StoredAt: time.UnixMilli(storedMs),
	}, nil
}

// Write upserts the entry. Concurrent writers are not coordinated; the last
// writer wins.
func (s *SQLiteStore) Write(entry cache.Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO cache_entries (key, payload, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload = $2, stored_at = $3
	`, entry.Key, []byte(entry.Payload), entry.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite: write %q: %w", entry.Key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
