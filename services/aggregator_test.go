package services

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dimas0311/home-price-predictor/cache"
	"github.com/dimas0311/home-price-predictor/feeds"
	"github.com/dimas0311/home-price-predictor/feeds/jamesedition"
	"github.com/dimas0311/home-price-predictor/feeds/realestate"
	"github.com/dimas0311/home-price-predictor/feeds/redfin"
	"github.com/dimas0311/home-price-predictor/feeds/state"
	"github.com/dimas0311/home-price-predictor/models"
)

// memoryBackend is an in-memory cache.Backend for tests. The mutex mirrors
// the real backends, which lean on database/sql's connection safety.
type memoryBackend struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{entries: make(map[string]cache.Entry)}
}

func (m *memoryBackend) Read(key string) (cache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return cache.Entry{}, cache.ErrNotFound
	}
	return entry, nil
}

func (m *memoryBackend) Write(entry cache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = entry
	return nil
}

func (m *memoryBackend) Close() error { return nil }

const (
	redfinPayload = `[
		{"home_url": "https://www.redfin.com/TX/Austin/home/111", "street_address": "1 Oak St",
		 "city": "Austin", "latitude": 30.27, "longitude": -97.74,
		 "price": "$500,000", "beds": "3 beds", "baths": "2 baths", "area": "1,800"},
		{"home_url": "https://www.redfin.com/TX/Austin/home/222", "street_address": "2 Elm St",
		 "city": "Austin", "price": "$650,000", "beds": "4 beds", "baths": "3 baths", "area": "2,400"},
		{"home_url": "", "street_address": "dropped"}
	]`
	jamesPayload = `[
		{"home_url": "https://www.jamesedition.com/real_estate/villa-sky", "address": "Villa Sky, Marbella",
		 "address_locality": "Marbella", "latitude": 36.51, "longitude": -4.88,
		 "price_usd": "2500000.99", "beds": 5, "baths": 6, "area_sqft": "7200.50"}
	]`
	realEstatePayload = `{"listings": [
		{"key": "111", "home_url": "https://realestate.example/p/111", "address": "1 Oak St, Austin, TX, USA",
		 "city": "Austin", "latitude": 30.27, "longitude": -97.74,
		 "price_usd": "510000", "beds": "3", "baths": "2", "area_sqft": "1800"}
	]}`
	statePayload = `{"Texas": {"state_description": "Lone Star State",
		"cities": [{"city": "Austin", "avg_list_price": "$550,000", "avg_price_per_sqft": "$310"}]}}`
)

// testFeeds serves the three listing feeds plus the state feed and counts
// how many requests each cycle makes.
func testFeeds(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(path, payload string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(payload))
		})
	}
	serve("/redfin", redfinPayload)
	serve("/jamesedition", jamesPayload)
	serve("/realestate", realEstatePayload)
	serve("/state", statePayload)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAggregator(t *testing.T, backend cache.Backend, now func() time.Time, hits *atomic.Int64) *Aggregator {
	t.Helper()
	logger := newTestLogger()
	srv := testFeeds(t, hits)

	client := feeds.NewClient(100, 1, logger)
	sources := []feeds.Source{
		redfin.New(client, srv.URL+"/redfin", logger),
		jamesedition.New(client, srv.URL+"/jamesedition", logger),
		realestate.New(client, srv.URL+"/realestate", logger),
	}
	states := state.New(client, srv.URL+"/state", logger)

	return NewAggregator(
		sources,
		states,
		NewDeduper(logger),
		cache.NewStore(backend, now, logger),
		time.Hour,
		4,
		rand.New(rand.NewSource(1)),
		logger,
	)
}

func TestLoadAllMergesAllSources(t *testing.T) {
	var hits atomic.Int64
	agg := newTestAggregator(t, newMemoryBackend(), time.Now, &hits)

	views := agg.LoadAll(context.Background())

	// 2 valid Redfin + 1 JamesEdition + 1 RealEstate; the Redfin record
	// without a URL is dropped during normalization.
	if len(views.FullListings) != 4 {
		t.Fatalf("FullListings = %d; want 4", len(views.FullListings))
	}
	// The RealEstate record shares key "111" with a Redfin record, so the
	// display view loses exactly one listing.
	if len(views.DisplayListings) != 3 {
		t.Fatalf("DisplayListings = %d; want 3", len(views.DisplayListings))
	}
	if len(views.StateAggregates) != 1 || views.StateAggregates[0].City != "Austin" {
		t.Errorf("StateAggregates = %+v; want one Austin aggregate", views.StateAggregates)
	}
	if views.CycleID == "" {
		t.Error("views carry no cycle id")
	}
}

func TestLoadAllFirstWinsAcrossSources(t *testing.T) {
	var hits atomic.Int64
	agg := newTestAggregator(t, newMemoryBackend(), time.Now, &hits)

	views := agg.LoadAll(context.Background())

	for _, l := range views.DisplayListings {
		if l.DedupKey == "111" && l.Price != 500000 {
			t.Errorf("key 111 price = %d; want the first source's 500000", l.Price)
		}
	}
}

func TestLoadAllJamesEditionTruncates(t *testing.T) {
	var hits atomic.Int64
	agg := newTestAggregator(t, newMemoryBackend(), time.Now, &hits)

	views := agg.LoadAll(context.Background())

	for _, l := range views.FullListings {
		if l.Source == models.SourceJamesEdition {
			if l.Price != 2500000 {
				t.Errorf("JamesEdition price = %d; want truncated 2500000", l.Price)
			}
			if l.Area != 7200 {
				t.Errorf("JamesEdition area = %d; want truncated 7200", l.Area)
			}
		}
	}
}

func TestLoadAllServesCachedCycle(t *testing.T) {
	var hits atomic.Int64
	backend := newMemoryBackend()
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }

	agg := newTestAggregator(t, backend, clock, &hits)

	first := agg.LoadAll(context.Background())
	afterFirst := hits.Load()
	if afterFirst == 0 {
		t.Fatal("first load made no feed requests")
	}

	second := agg.LoadAll(context.Background())
	if hits.Load() != afterFirst {
		t.Errorf("second load within TTL hit the feeds (%d → %d requests)", afterFirst, hits.Load())
	}
	if second.CycleID != first.CycleID {
		t.Errorf("cached cycle id %q; want %q from the first load", second.CycleID, first.CycleID)
	}
	if len(second.DisplayListings) != len(first.DisplayListings) {
		t.Errorf("cached display view has %d listings; want %d", len(second.DisplayListings), len(first.DisplayListings))
	}

	now = now.Add(2 * time.Hour)
	third := agg.LoadAll(context.Background())
	if hits.Load() == afterFirst {
		t.Error("expired cycle was not refetched")
	}
	if third.CycleID == first.CycleID {
		t.Error("refetched cycle kept the old cycle id")
	}
}

// Requests landing together right after the TTL expires all run a fetch
// cycle; the shared shuffle rng must survive that.
func TestLoadAllConcurrentRefetch(t *testing.T) {
	var hits atomic.Int64
	agg := newTestAggregator(t, newMemoryBackend(), time.Now, &hits)

	const callers = 8
	results := make([]*models.FeedViews, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = agg.LoadAll(context.Background())
		}()
	}
	wg.Wait()

	for i, views := range results {
		if views == nil {
			t.Fatalf("caller %d got nil views", i)
		}
		if len(views.DisplayListings) != 3 || len(views.FullListings) != 4 {
			t.Errorf("caller %d got %d display / %d full listings; want 3/4",
				i, len(views.DisplayListings), len(views.FullListings))
		}
	}
}

func TestLoadAllDegradesWhenSourceFails(t *testing.T) {
	logger := newTestLogger()

	mux := http.NewServeMux()
	mux.HandleFunc("/redfin", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(redfinPayload))
	})
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(statePayload))
	})
	// jamesedition and realestate 404.
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := feeds.NewClient(100, 1, logger)
	agg := NewAggregator(
		[]feeds.Source{
			redfin.New(client, srv.URL+"/redfin", logger),
			jamesedition.New(client, srv.URL+"/jamesedition", logger),
		},
		state.New(client, srv.URL+"/state", logger),
		NewDeduper(logger),
		cache.NewStore(newMemoryBackend(), time.Now, logger),
		time.Hour,
		4,
		rand.New(rand.NewSource(1)),
		logger,
	)

	views := agg.LoadAll(context.Background())

	if len(views.FullListings) != 2 {
		t.Errorf("FullListings = %d; want the 2 surviving Redfin records", len(views.FullListings))
	}
	if len(views.StateAggregates) != 1 {
		t.Errorf("StateAggregates = %d; want 1", len(views.StateAggregates))
	}
}
