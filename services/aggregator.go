package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dimas0311/home-price-predictor/cache"
	"github.com/dimas0311/home-price-predictor/feeds"
	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/utils"
)

// StateSource is the contract for the state-aggregate feed.
type StateSource interface {
	Fetch(ctx context.Context) ([]models.StateAggregate, error)
}

// Aggregator orchestrates the feed adapters: it fetches all sources
// concurrently, merges them into the two listing views, and persists the
// result through the cache store. A failed source degrades to an empty
// contribution; LoadAll never fails.
type Aggregator struct {
	sources        []feeds.Source
	states         StateSource
	deduper        *Deduper
	cache          *cache.Store
	ttl            time.Duration
	maxConcurrency int
	logger         *utils.Logger

	// rng is not goroutine-safe; concurrent LoadAll calls can run
	// fetchCycle at the same time right after the TTL expires.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewAggregator creates an Aggregator over the given sources. rng drives
// the display-view shuffle; tests pass a fixed seed.
func NewAggregator(
	sources []feeds.Source,
	states StateSource,
	deduper *Deduper,
	cacheStore *cache.Store,
	ttl time.Duration,
	maxConcurrency int,
	rng *rand.Rand,
	logger *utils.Logger,
) *Aggregator {
	return &Aggregator{
		sources:        sources,
		states:         states,
		deduper:        deduper,
		cache:          cacheStore,
		ttl:            ttl,
		maxConcurrency: maxConcurrency,
		rng:            rng,
		logger:         logger.WithPrefix("aggregator"),
	}
}

// LoadAll returns the current feed views, serving from the cache while the
// cycle is within its TTL and refetching otherwise. Both listing views and
// the state aggregates always come from the same fetch cycle.
func (a *Aggregator) LoadAll(ctx context.Context) *models.FeedViews {
	cycleKeys := []string{cache.KeyDisplayListings, cache.KeyFullListings, cache.KeyStateAggregates}

	if payloads, cycleID, ok := a.cache.LoadCycle(a.ttl, cycleKeys...); ok {
		views, err := decodeViews(cycleID, payloads)
		if err == nil {
			a.logger.Info("Serving cycle %s from cache (%d display, %d full)",
				views.CycleID, len(views.DisplayListings), len(views.FullListings))
			return views
		}
		a.logger.Warn("Corrupt cached cycle, refetching: %v", err)
	}

	views := a.fetchCycle(ctx)

	if entries, err := encodeViews(views); err != nil {
		a.logger.Warn("Could not encode cycle for caching: %v", err)
	} else {
		a.cache.StoreCycle(views.CycleID, entries)
	}

	return views
}

// fetchCycle runs one fetch cycle: all listing sources plus the state feed
// are fetched together, then merged. The full view keeps every normalized
// record; the display view is deduplicated and shuffled.
func (a *Aggregator) fetchCycle(ctx context.Context) *models.FeedViews {
	results := make([][]*models.Listing, len(a.sources))
	var stateAggregates []models.StateAggregate

	pool := utils.NewWorkerPool(a.maxConcurrency)
	for i, src := range a.sources {
		i, src := i, src
		pool.Submit(func() {
			listings, err := src.Fetch(ctx)
			if err != nil {
				a.logger.Error("Source %s failed, continuing without it: %v", src.Name(), err)
				return
			}
			results[i] = listings
		})
	}
	pool.Submit(func() {
		aggregates, err := a.states.Fetch(ctx)
		if err != nil {
			a.logger.Error("State feed failed, continuing without it: %v", err)
			return
		}
		stateAggregates = aggregates
	})
	pool.Wait()

	var full []*models.Listing
	for _, listings := range results {
		full = append(full, listings...)
	}

	deduped := a.deduper.Dedupe(full)
	a.rngMu.Lock()
	display := Shuffle(a.rng, deduped)
	a.rngMu.Unlock()

	views := &models.FeedViews{
		CycleID:         uuid.NewString(),
		DisplayListings: display,
		FullListings:    full,
		StateAggregates: stateAggregates,
	}

	a.logger.Info("Cycle %s complete: %d full, %d display, %d state aggregates",
		views.CycleID, len(full), len(display), len(stateAggregates))
	return views
}

func encodeViews(views *models.FeedViews) (map[string]json.RawMessage, error) {
	display, err := json.Marshal(views.DisplayListings)
	if err != nil {
		return nil, fmt.Errorf("encode display listings: %w", err)
	}
	full, err := json.Marshal(views.FullListings)
	if err != nil {
		return nil, fmt.Errorf("encode full listings: %w", err)
	}
	states, err := json.Marshal(views.StateAggregates)
	if err != nil {
		return nil, fmt.Errorf("encode state aggregates: %w", err)
	}

	return map[string]json.RawMessage{
		cache.KeyDisplayListings: display,
		cache.KeyFullListings:    full,
		cache.KeyStateAggregates: states,
	}, nil
}

func decodeViews(cycleID string, payloads map[string]json.RawMessage) (*models.FeedViews, error) {
	views := &models.FeedViews{CycleID: cycleID}

	if err := json.Unmarshal(payloads[cache.KeyDisplayListings], &views.DisplayListings); err != nil {
		return nil, fmt.Errorf("decode display listings: %w", err)
	}
	if err := json.Unmarshal(payloads[cache.KeyFullListings], &views.FullListings); err != nil {
		return nil, fmt.Errorf("decode full listings: %w", err)
	}
	if err := json.Unmarshal(payloads[cache.KeyStateAggregates], &views.StateAggregates); err != nil {
		return nil, fmt.Errorf("decode state aggregates: %w", err)
	}
	return views, nil
}
