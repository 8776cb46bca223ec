package mapview

import (
	"context"
	"sync"
	"time"

	"github.com/dimas0311/home-price-predictor/geocode"
	"github.com/dimas0311/home-price-predictor/utils"
)

// searchLimit caps the number of suggestions per lookup.
const searchLimit = 5

// Geocoder resolves free-text queries into coordinates.
type Geocoder interface {
	Forward(ctx context.Context, query string, limit int) ([]geocode.Result, error)
}

// Search debounces the search box input and geocodes it. Only the response
// for the most recent input is ever delivered; results that arrive after a
// newer keystroke are discarded.
type Search struct {
	geocoder   Geocoder
	controller *Controller
	debounce   time.Duration
	onResults  func([]geocode.Result)
	logger     *utils.Logger

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
}

// NewSearch creates a Search. onResults receives the suggestion list for
// display and may be nil.
func NewSearch(geocoder Geocoder, controller *Controller, debounce time.Duration, onResults func([]geocode.Result), logger *utils.Logger) *Search {
	return &Search{
		geocoder:   geocoder,
		controller: controller,
		debounce:   debounce,
		onResults:  onResults,
		logger:     logger.WithPrefix("search"),
	}
}

// Input reports the current text of the search box. Each call cancels any
// lookup still waiting on the debounce timer. An empty query clears the
// suggestions without hitting the geocoder.
func (s *Search) Input(query string) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if query == "" {
		s.mu.Unlock()
		s.deliver(gen, nil)
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.lookup(gen, query)
	})
	s.mu.Unlock()
}

// Stop cancels any pending lookup.
func (s *Search) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Search) lookup(gen uint64, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := s.geocoder.Forward(ctx, query, searchLimit)
	if err != nil {
		s.logger.Warn("Lookup %q failed: %v", query, err)
		return
	}
	s.deliver(gen, results)
}

// deliver publishes results unless a newer input superseded them.
func (s *Search) deliver(gen uint64, results []geocode.Result) {
	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()
	if stale {
		return
	}
	if s.onResults != nil {
		s.onResults(results)
	}
}

// Select moves the camera to a chosen suggestion.
func (s *Search) Select(result geocode.Result) {
	if s.controller == nil {
		return
	}
	s.controller.run(func() {
		s.controller.surface.FlyTo(Camera{
			Longitude: result.Longitude,
			Latitude:  result.Latitude,
			Zoom:      listingZoom,
		})
	})
}
