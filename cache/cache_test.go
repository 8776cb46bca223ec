package cache

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dimas0311/home-price-predictor/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

// memoryBackend is an in-memory Backend for tests. readErr, when set, is
// returned by every Read to simulate storage failures.
type memoryBackend struct {
	entries map[string]Entry
	readErr error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{entries: make(map[string]Entry)}
}

func (m *memoryBackend) Read(key string) (Entry, error) {
	if m.readErr != nil {
		return Entry{}, m.readErr
	}
	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (m *memoryBackend) Write(entry Entry) error {
	m.entries[entry.Key] = entry
	return nil
}

func (m *memoryBackend) Close() error { return nil }

// fakeClock is a settable Clock.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

const testTTL = time.Hour

func newTestStore() (*Store, *memoryBackend, *fakeClock) {
	backend := newMemoryBackend()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	return NewStore(backend, clock.Now, newTestLogger()), backend, clock
}

func TestGetOrFetchServesCachedWithinTTL(t *testing.T) {
	store, _, clock := newTestStore()

	fetches := 0
	fetch := func() (json.RawMessage, error) {
		fetches++
		return json.RawMessage(`"fresh"`), nil
	}

	got := store.GetOrFetch("k", testTTL, fetch)
	if string(got) != `"fresh"` || fetches != 1 {
		t.Fatalf("first call: payload %s, fetches %d; want fresh payload and 1 fetch", got, fetches)
	}

	clock.Advance(testTTL - time.Millisecond)
	got = store.GetOrFetch("k", testTTL, fetch)
	if string(got) != `"fresh"` || fetches != 1 {
		t.Errorf("within TTL: payload %s, fetches %d; want cached payload and no refetch", got, fetches)
	}
}

func TestGetOrFetchRefetchesAfterTTL(t *testing.T) {
	store, _, clock := newTestStore()

	payload := `"v1"`
	fetch := func() (json.RawMessage, error) {
		return json.RawMessage(payload), nil
	}

	store.GetOrFetch("k", testTTL, fetch)

	payload = `"v2"`
	clock.Advance(testTTL + time.Millisecond)
	got := store.GetOrFetch("k", testTTL, fetch)
	if string(got) != `"v2"` {
		t.Errorf("after TTL: payload %s; want refetched v2", got)
	}
}

func TestGetOrFetchReadFailureIsMiss(t *testing.T) {
	store, backend, _ := newTestStore()

	fetches := 0
	fetch := func() (json.RawMessage, error) {
		fetches++
		return json.RawMessage(`"fresh"`), nil
	}

	backend.readErr = errors.New("disk gone")
	got := store.GetOrFetch("k", testTTL, fetch)
	if string(got) != `"fresh"` || fetches != 1 {
		t.Errorf("read failure: payload %s, fetches %d; want a normal fetch", got, fetches)
	}
}

func TestGetOrFetchFallsBackToStaleOnFetchFailure(t *testing.T) {
	store, _, clock := newTestStore()

	store.GetOrFetch("k", testTTL, func() (json.RawMessage, error) {
		return json.RawMessage(`"stale"`), nil
	})

	clock.Advance(2 * testTTL)
	got := store.GetOrFetch("k", testTTL, func() (json.RawMessage, error) {
		return nil, errors.New("feed down")
	})
	if string(got) != `"stale"` {
		t.Errorf("fetch failure with stale entry: payload %s; want stale payload", got)
	}
}

func TestGetOrFetchNilWhenFetchFailsCold(t *testing.T) {
	store, _, _ := newTestStore()

	got := store.GetOrFetch("k", testTTL, func() (json.RawMessage, error) {
		return nil, errors.New("feed down")
	})
	if got != nil {
		t.Errorf("cold fetch failure: payload %s; want nil", got)
	}
}

func TestCycleRoundTrip(t *testing.T) {
	store, _, clock := newTestStore()

	entries := map[string]json.RawMessage{
		KeyDisplayListings: json.RawMessage(`[1]`),
		KeyFullListings:    json.RawMessage(`[1,1]`),
		KeyStateAggregates: json.RawMessage(`[]`),
	}
	store.StoreCycle("cycle-1", entries)

	clock.Advance(testTTL - time.Minute)
	payloads, cycleID, ok := store.LoadCycle(testTTL, KeyDisplayListings, KeyFullListings, KeyStateAggregates)
	if !ok {
		t.Fatal("LoadCycle missed a cycle stored within TTL")
	}
	if cycleID != "cycle-1" {
		t.Errorf("cycleID = %q; want cycle-1", cycleID)
	}
	if string(payloads[KeyFullListings]) != `[1,1]` {
		t.Errorf("full payload = %s; want [1,1]", payloads[KeyFullListings])
	}
}

func TestLoadCycleExpires(t *testing.T) {
	store, _, clock := newTestStore()

	store.StoreCycle("cycle-1", map[string]json.RawMessage{
		KeyDisplayListings: json.RawMessage(`[1]`),
	})

	clock.Advance(testTTL)
	if _, _, ok := store.LoadCycle(testTTL, KeyDisplayListings); ok {
		t.Error("LoadCycle served a cycle exactly TTL old; want a miss")
	}
}

func TestLoadCycleMissingEntryInvalidates(t *testing.T) {
	store, _, _ := newTestStore()

	store.StoreCycle("cycle-1", map[string]json.RawMessage{
		KeyDisplayListings: json.RawMessage(`[1]`),
	})

	if _, _, ok := store.LoadCycle(testTTL, KeyDisplayListings, KeyFullListings); ok {
		t.Error("LoadCycle succeeded with a missing entry; want a miss")
	}
}
