package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	HTTP       HTTPConfig
	Worker     WorkerConfig
	NASA       NASAConfig
	Geocoding  GeocodingConfig
	Simulation SimulationConfig
	FeedSync   FeedSyncConfig
	DB         DatabaseConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type HTTPConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type NASAConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type GeocodingConfig struct {
	DistanceMatrixURL string
	DistanceMatrixKey string
	OverpassURL       string
	Timeout           time.Duration
	OverpassTimeout   time.Duration
	CacheSize         int
}

type SimulationConfig struct {
	EnrichTimeout     time.Duration
	EnrichMaxRadiusKm float64
	PopulationPolicy  string
	PopulationDensity float64
}

type FeedSyncConfig struct {
	Enabled   bool
	Interval  time.Duration
	Days      int
	Retention time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 5000),
		},
		HTTP: HTTPConfig{
			RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
			RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
			CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 50),
		},
		NASA: NASAConfig{
			APIKey:   getEnv("NASA_API_KEY", "DEMO_KEY"),
			BaseURL:  getEnv("NASA_NEO_API_URL", "https://api.nasa.gov/neo/rest/v1"),
			Timeout:  getEnvDuration("NASA_TIMEOUT", 10*time.Second),
			CacheTTL: getEnvDuration("CATALOG_CACHE_TTL", 24*time.Hour),
		},
		Geocoding: GeocodingConfig{
			DistanceMatrixURL: getEnv("DISTANCEMATRIX_API_URL", "https://api.distancematrix.ai/maps/api"),
			DistanceMatrixKey: getEnv("DISTANCEMATRIX_API_KEY", ""),
			OverpassURL:       getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			Timeout:           getEnvDuration("GEOCODE_TIMEOUT", 10*time.Second),
			OverpassTimeout:   getEnvDuration("OVERPASS_TIMEOUT", 30*time.Second),
			CacheSize:         getEnvInt("GEOCODE_CACHE_SIZE", 1000),
		},
		Simulation: SimulationConfig{
			EnrichTimeout:     getEnvDuration("ENRICH_TIMEOUT", 15*time.Second),
			EnrichMaxRadiusKm: getEnvFloat("ENRICH_MAX_RADIUS_KM", 500),
			PopulationPolicy:  getEnv("POPULATION_RADIUS_POLICY", "shockwave"),
			PopulationDensity: getEnvFloat("POPULATION_DENSITY", 60),
		},
		FeedSync: FeedSyncConfig{
			Enabled:   getEnvBool("FEED_SYNC_ENABLED", false),
			Interval:  getEnvDuration("FEED_SYNC_INTERVAL", 6*time.Hour),
			Days:      getEnvInt("FEED_SYNC_DAYS", 7),
			Retention: getEnvDuration("FEED_RETENTION", 30*24*time.Hour),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/asteroid-impact.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.HTTP.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be positive, got %g", c.HTTP.RateLimitRPS)
	}
	if c.HTTP.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got %d", c.HTTP.RateLimitBurst)
	}

	if c.NASA.Timeout <= 0 || c.Geocoding.Timeout <= 0 || c.Geocoding.OverpassTimeout <= 0 || c.Simulation.EnrichTimeout <= 0 {
		return fmt.Errorf("upstream timeouts must be positive")
	}

	switch c.Simulation.PopulationPolicy {
	case "shockwave", "seismic", "largest":
	default:
		return fmt.Errorf("invalid population radius policy: %s", c.Simulation.PopulationPolicy)
	}
	if c.Simulation.PopulationDensity <= 0 {
		return fmt.Errorf("population density must be positive, got %g", c.Simulation.PopulationDensity)
	}
	if c.Simulation.EnrichMaxRadiusKm <= 0 {
		return fmt.Errorf("enrichment radius must be positive, got %g", c.Simulation.EnrichMaxRadiusKm)
	}

	if c.FeedSync.Enabled {
		if c.FeedSync.Interval < time.Minute {
			return fmt.Errorf("feed sync interval must be at least 1 minute")
		}
		if c.FeedSync.Days < 1 || c.FeedSync.Days > 7 {
			return fmt.Errorf("feed sync days must be within 1-7, got %d", c.FeedSync.Days)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
