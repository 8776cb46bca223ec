package services

import (
	"sync"

	"github.com/dimas0311/home-price-predictor/models"
)

// DataStore is the shared service object the UI tree reads listing data
// from. It owns the current feed views plus a loading flag and notifies
// subscribers on every change. One DataStore is constructed per process and
// passed by reference; nothing looks it up ambiently.
type DataStore struct {
	mu      sync.RWMutex
	views   *models.FeedViews
	loading bool
	subs    map[int]func(*models.FeedViews)
	nextSub int
}

// NewDataStore creates an empty DataStore in the loading state.
func NewDataStore() *DataStore {
	return &DataStore{
		views:   &models.FeedViews{},
		loading: true,
		subs:    make(map[int]func(*models.FeedViews)),
	}
}

// Views returns the current feed views.
func (d *DataStore) Views() *models.FeedViews {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.views
}

// Loading reports whether a fetch cycle is in progress.
func (d *DataStore) Loading() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loading
}

// SetLoading flips the loading flag.
func (d *DataStore) SetLoading(loading bool) {
	d.mu.Lock()
	d.loading = loading
	d.mu.Unlock()
}

// Set replaces the feed views wholesale (there are no partial updates) and
// notifies every subscriber with the new views.
func (d *DataStore) Set(views *models.FeedViews) {
	d.mu.Lock()
	d.views = views
	d.loading = false
	subs := make([]func(*models.FeedViews), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.mu.Unlock()

	for _, fn := range subs {
		fn(views)
	}
}

// Subscribe registers fn to run on every Set. The returned function
// removes the subscription.
func (d *DataStore) Subscribe(fn func(*models.FeedViews)) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}
