// Package cache implements the TTL key/value store the aggregator persists
// its fetch results into. The store is parameterized by a Backend (where
// entries live) and a Clock (what "now" means) so TTL behavior is testable
// without real time passing.
package cache

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dimas0311/home-price-predictor/utils"
)

// Fixed entry keys. The three payload entries share one timestamp entry and
// are invalidated together.
const (
	KeyDisplayListings = "cachedHomeData"
	KeyFullListings    = "cachedAllData"
	KeyStateAggregates = "cachedStateData"
	KeyTimestamp       = "cachedTimestamp"
)

// ErrNotFound is returned by a Backend when no entry exists for a key.
var ErrNotFound = errors.New("cache: entry not found")

// Entry is one persisted cache record. An entry is valid while
// now − StoredAt < TTL.
type Entry struct {
	Key      string          `json:"key"`
	Payload  json.RawMessage `json:"payload"`
	StoredAt time.Time       `json:"stored_at"`
}

// Backend is the persistence contract. Backends are not guarded against
// concurrent writers in other processes; last writer wins.
type Backend interface {
	Read(key string) (Entry, error)
	Write(entry Entry) error
	Close() error
}

// Clock supplies the current time. Production code passes time.Now.
type Clock func() time.Time

// timestampPayload is what the shared timestamp entry holds.
type timestampPayload struct {
	CycleID  string `json:"cycle_id"`
	StoredMs int64  `json:"stored_at_ms"`
}

// Store is a TTL cache over a Backend.
type Store struct {
	backend Backend
	clock   Clock
	logger  *utils.Logger
}

// NewStore creates a Store reading time from clock.
func NewStore(backend Backend, clock Clock, logger *utils.Logger) *Store {
	return &Store{backend: backend, clock: clock, logger: logger.WithPrefix("cache")}
}

// GetOrFetch returns the cached payload for key when it is younger than
// ttl; otherwise it invokes fetchFn and persists the fresh payload. The
// caller never sees an error: a storage read failure counts as a miss, and
// a fetchFn failure falls back to the last valid payload if one exists, or
// nil (an empty result) if not.
func (s *Store) GetOrFetch(key string, ttl time.Duration, fetchFn func() (json.RawMessage, error)) json.RawMessage {
	now := s.clock()

	entry, readErr := s.backend.Read(key)
	if readErr == nil && now.Sub(entry.StoredAt) < ttl {
		s.logger.Debug("Hit for %q (age %v)", key, now.Sub(entry.StoredAt))
		return entry.Payload
	}
	if readErr != nil && !errors.Is(readErr, ErrNotFound) {
		s.logger.Warn("Read failed for %q, treating as miss: %v", key, readErr)
	}

	payload, err := fetchFn()
	if err != nil {
		if readErr == nil {
			s.logger.Warn("Fetch for %q failed, serving stale payload: %v", key, err)
			return entry.Payload
		}
		s.logger.Error("Fetch for %q failed with no cached fallback: %v", key, err)
		return nil
	}

	if err := s.backend.Write(Entry{Key: key, Payload: payload, StoredAt: now}); err != nil {
		s.logger.Warn("Write failed for %q: %v", key, err)
	}
	return payload
}

// LoadCycle returns the payloads stored under keys when the shared
// timestamp entry is still within ttl. Any missing or unreadable entry
// invalidates the whole cycle.
func (s *Store) LoadCycle(ttl time.Duration, keys ...string) (map[string]json.RawMessage, string, bool) {
	tsEntry, err := s.backend.Read(KeyTimestamp)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("Timestamp read failed, treating as miss: %v", err)
		}
		return nil, "", false
	}

	if s.clock().Sub(tsEntry.StoredAt) >= ttl {
		return nil, "", false
	}

	var ts timestampPayload
	if err := json.Unmarshal(tsEntry.Payload, &ts); err != nil {
		s.logger.Warn("Corrupt timestamp entry, treating as miss: %v", err)
		return nil, "", false
	}

	payloads := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		entry, err := s.backend.Read(key)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.logger.Warn("Read failed for %q, invalidating cycle: %v", key, err)
			}
			return nil, "", false
		}
		payloads[key] = entry.Payload
	}

	return payloads, ts.CycleID, true
}

// StoreCycle persists the payloads plus the shared timestamp entry, all
// stamped with one clock reading so they expire together. A crash between
// the individual writes can leave them inconsistent; that is acceptable
// because the entries are derived data and are re-fetched idempotently.
func (s *Store) StoreCycle(cycleID string, entries map[string]json.RawMessage) {
	now := s.clock()

	for key, payload := range entries {
		if err := s.backend.Write(Entry{Key: key, Payload: payload, StoredAt: now}); err != nil {
			s.logger.Warn("Write failed for %q: %v", key, err)
		}
	}

	tsPayload, err := json.Marshal(timestampPayload{CycleID: cycleID, StoredMs: now.UnixMilli()})
	if err != nil {
		s.logger.Warn("Marshal timestamp failed: %v", err)
		return
	}
	if err := s.backend.Write(Entry{Key: KeyTimestamp, Payload: tsPayload, StoredAt: now}); err != nil {
		s.logger.Warn("Write failed for %q: %v", KeyTimestamp, err)
	}
}
