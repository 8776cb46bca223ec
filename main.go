package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimas0311/home-price-predictor/cache"
	"github.com/dimas0311/home-price-predictor/config"
	"github.com/dimas0311/home-price-predictor/feeds"
	"github.com/dimas0311/home-price-predictor/feeds/jamesedition"
	"github.com/dimas0311/home-price-predictor/feeds/local"
	"github.com/dimas0311/home-price-predictor/feeds/realestate"
	"github.com/dimas0311/home-price-predictor/feeds/redfin"
	"github.com/dimas0311/home-price-predictor/feeds/state"
	"github.com/dimas0311/home-price-predictor/geocode"
	"github.com/dimas0311/home-price-predictor/predict"
	"github.com/dimas0311/home-price-predictor/server"
	"github.com/dimas0311/home-price-predictor/services"
	"github.com/dimas0311/home-price-predictor/storage"
	"github.com/dimas0311/home-price-predictor/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Home Listing Pipeline starting ===")
	logger.Info("Config — ttl: %s | concurrency: %d | cluster radius: %dpx | port: %s",
		cfg.CacheTTL, cfg.MaxConcurrency, cfg.ClusterRadius, cfg.ServerPort)

	backend, err := openCacheBackend(cfg, logger)
	if err != nil {
		logger.Error("Failed to open cache backend: %v", err)
		os.Exit(1)
	}
	defer backend.Close()

	cacheStore := cache.NewStore(backend, time.Now, logger)

	client := feeds.NewClient(cfg.FetchRateRPS, cfg.MaxRetries, logger)
	sources := []feeds.Source{
		redfin.New(client, cfg.RedfinURL, logger),
		jamesedition.New(client, cfg.JamesEditionURL, logger),
		realestate.New(client, cfg.RealEstateURL, logger),
	}
	if cfg.LocalFeedURL != "" {
		sources = append(sources, local.New(client, cfg.LocalFeedURL, logger))
	}
	states := state.New(client, cfg.StateURL, logger)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	aggregator := services.NewAggregator(
		sources,
		states,
		services.NewDeduper(logger),
		cacheStore,
		cfg.CacheTTL,
		cfg.MaxConcurrency,
		rng,
		logger,
	)

	dataStore := services.NewDataStore()
	dataStore.SetLoading(true)
	views := aggregator.LoadAll(context.Background())
	dataStore.Set(views)
	dataStore.SetLoading(false)

	logger.Info("Initial cycle %s: %d display / %d total listings, %d state aggregates",
		views.CycleID, len(views.DisplayListings), len(views.FullListings), len(views.StateAggregates))

	if cfg.CSVExportPath != "" {
		if err := storage.ExportCSV(cfg.CSVExportPath, views.FullListings); err != nil {
			logger.Error("CSV export failed: %v", err)
		} else {
			logger.Info("Full listing view exported to %s", cfg.CSVExportPath)
		}
	}

	srv := server.New(
		cfg.ServerPort,
		dataStore,
		aggregator,
		services.NewInsightService(logger),
		predict.NewClient(cfg.PredictURL, logger),
		geocode.NewClient(cfg.GeocodeURL, cfg.GeocodeToken, logger),
		cacheStore,
		cfg.CacheTTL,
		cfg.ClusterRadius,
		cfg.SearchDebounceMs,
		logger,
	)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("HTTP server failed: %v", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed: %v", err)
	}
	logger.Info("Done.")
}

// openCacheBackend picks the cache storage: PostgreSQL when enabled for a
// shared cache, otherwise a local SQLite file.
func openCacheBackend(cfg *config.Config, logger *utils.Logger) (cache.Backend, error) {
	if cfg.UsePostgresCache {
		logger.Info("Using PostgreSQL cache backend (%s:%s/%s)",
			cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		return storage.NewPostgresStore(cfg.DSN())
	}
	logger.Info("Using SQLite cache backend (%s)", cfg.SQLiteCachePath)
	return storage.NewSQLiteStore(cfg.SQLiteCachePath)
}
