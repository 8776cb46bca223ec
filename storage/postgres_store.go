package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/dimas0311/home-price-predictor/cache"
)

// PostgresStore persists cache entries in PostgreSQL, for deployments where
// several instances want to share one cache. Same contract as SQLiteStore:
// no cross-writer coordination, last writer wins.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key       TEXT PRIMARY KEY,
			payload   JSONB       NOT NULL,
			stored_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

// Read returns the entry stored under key, or cache.ErrNotFound.
func (s *PostgresStore) Read(key string) (cache.Entry, error) {
	var payload []byte
	var storedAt time.Time

	err := s.db.QueryRow(
		`SELECT payload, stored_at FROM cache_entries WHERE key = $1`, key,
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, cache.ErrNotFound
	}
	if err != nil {
		return cache.Entry{}, fmt.Errorf("postgres: read %q: %w", key, err)
	}

	return cache.Entry{Key: key, Payload: payload, StoredAt: storedAt}, nil
}

// Write upserts the entry.
func (s *PostgresStore) Write(entry cache.Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO cache_entries (key, payload, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload = $2, stored_at = $3
	`, entry.Key, []byte(entry.Payload), entry.StoredAt)
	if err != nil {
		return fmt.Errorf("postgres: write %q: %w", entry.Key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
