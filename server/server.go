// Package server exposes the aggregated listing views over a small REST
// API consumed by the map frontend.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dimas0311/home-price-predictor/cache"
	"github.com/dimas0311/home-price-predictor/geocode"
	"github.com/dimas0311/home-price-predictor/models"
	"github.com/dimas0311/home-price-predictor/predict"
	"github.com/dimas0311/home-price-predictor/services"
	"github.com/dimas0311/home-price-predictor/utils"
)

// Refresher reloads the aggregated views, serving from cache when the
// stored cycle is still fresh.
type Refresher interface {
	LoadAll(ctx context.Context) *models.FeedViews
}

// Predictor scores listing attributes into a price estimate.
type Predictor interface {
	Predict(ctx context.Context, req predict.Request) (float64, error)
}

// Geocoder resolves free-text location queries.
type Geocoder interface {
	Forward(ctx context.Context, query string, limit int) ([]geocode.Result, error)
}

// Server wires the HTTP routes to the pipeline services.
type Server struct {
	store            *services.DataStore
	refresher        Refresher
	insights         *services.InsightService
	predictor        Predictor
	geocoder         Geocoder
	cache            *cache.Store
	cacheTTL         time.Duration
	clusterRadius    int
	searchDebounceMs int
	logger           *utils.Logger

	httpServer *http.Server
}

// New creates a Server listening on the given port. cacheStore backs the
// geocoding lookups and may share the backend with the aggregator cycles.
func New(
	port string,
	store *services.DataStore,
	refresher Refresher,
	insights *services.InsightService,
	predictor Predictor,
	geocoder Geocoder,
	cacheStore *cache.Store,
	cacheTTL time.Duration,
	clusterRadius int,
	searchDebounceMs int,
	logger *utils.Logger,
) *Server {
	s := &Server{
		store:            store,
		refresher:        refresher,
		insights:         insights,
		predictor:        predictor,
		geocoder:         geocoder,
		cache:            cacheStore,
		cacheTTL:         cacheTTL,
		clusterRadius:    clusterRadius,
		searchDebounceMs: searchDebounceMs,
		logger:           logger.WithPrefix("server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/listings", s.handleListings)
		r.Get("/listings/all", s.handleAllListings)
		r.Get("/state", s.handleStateAggregates)
		r.Get("/filters", s.handleFilters)
		r.Get("/markets", s.handleMarkets)
		r.Get("/map/features", s.handleMapFeatures)
		r.Get("/map/clusters", s.handleMapClusters)
		r.Get("/map/clusters/{clusterID}/leaves", s.handleClusterLeaves)
		r.Get("/search", s.handleSearch)
		r.Post("/predict", s.handlePredict)
	})

	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.logger.Info("Listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// views returns the current aggregated views, refreshing them first when a
// refresher is configured. The refresh is cheap while the cached cycle is
// fresh.
func (s *Server) views(ctx context.Context) *models.FeedViews {
	if s.refresher != nil {
		if v := s.refresher.LoadAll(ctx); v != nil {
			s.store.Set(v)
		}
	}
	return s.store.Views()
}
