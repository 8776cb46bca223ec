package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Feed endpoints (read-only JSON collaborators).
	RedfinURL       string
	JamesEditionURL string
	RealEstateURL   string
	LocalFeedURL    string
	StateURL        string
	PredictURL      string

	// Cache store.
	CacheTTL         time.Duration
	SQLiteCachePath  string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	UsePostgresCache bool

	// Map / interaction.
	ClusterRadius    int
	GeocodeURL       string
	GeocodeToken     string
	SearchDebounceMs int

	// HTTP transport.
	ServerPort     string
	MaxConcurrency int
	MaxRetries     int
	FetchRateRPS   int

	// Optional CSV snapshot of the full listing view.
	CSVExportPath string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		RedfinURL:       getEnv("REDFIN_FEED_URL", "http://localhost:3000/api/redfin"),
		JamesEditionURL: getEnv("JAMESEDITION_FEED_URL", "http://localhost:3000/api/jamesedition"),
		RealEstateURL:   getEnv("REALESTATE_FEED_URL", "http://localhost:3000/api/realestate"),
		LocalFeedURL:    getEnv("LOCAL_FEED_URL", ""),
		StateURL:        getEnv("STATE_FEED_URL", "http://localhost:3000/api/state"),
		PredictURL:      getEnv("PREDICT_URL", "http://localhost:3000/api/predict"),

		// Two TTL values were observed in the wild (360 000 ms and
		// 3 600 000 ms); one hour is the documented intent.
		CacheTTL:        time.Duration(getEnvInt("CACHE_TTL_MS", 3_600_000)) * time.Millisecond,
		SQLiteCachePath: getEnv("SQLITE_CACHE_PATH", "./output/feed_cache.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "homes"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "homes123"),
		PostgresDB:       getEnv("POSTGRES_DB", "homes_cache"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		UsePostgresCache: getEnvBool("USE_POSTGRES_CACHE", false),

		ClusterRadius:    getEnvInt("CLUSTER_RADIUS", 50),
		GeocodeURL:       getEnv("GEOCODE_URL", "https://api.mapbox.com/geocoding/v5/mapbox.places"),
		GeocodeToken:     getEnv("GEOCODE_TOKEN", ""),
		SearchDebounceMs: getEnvInt("SEARCH_DEBOUNCE_MS", 300),

		ServerPort:     getEnv("SERVER_PORT", "8080"),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		FetchRateRPS:   getEnvInt("FETCH_RATE_RPS", 5),

		CSVExportPath: getEnv("CSV_EXPORT_PATH", ""),
	}
}

// DSN returns the PostgreSQL connection string for the shared cache backend.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
