package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LogConfig holds logger settings.
type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

// MatchingConfig holds tunables for candidate discovery and swipe handling.
type MatchingConfig struct {
	UndoWindow           time.Duration
	CandidatePoolSize    int
	MaxCandidateLimit    int
	MaxLikesPageSize     int
	DefaultAgeMin        int
	DefaultAgeMax        int
	DefaultMaxDistanceKm float64
}

type Config struct {
	App struct {
		ENV string
	}

	Log LogConfig

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	Metrics struct {
		Addr string
	}

	Events struct {
		Enabled          bool
		BreakerThreshold uint32
		BreakerTimeout   time.Duration
	}

	Matching MatchingConfig
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "matchmaking")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	switch cfg.DB.Driver {
	case "sqlite":
		cfg.DB.DSN = getEnvDefault("SQLITE_DSN", "file:matchmaking.db?_busy_timeout=5000&_txlock=immediate")
	default:
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
		if cfg.DB.DSN == "" {
			cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.User = getEnvDefault("DB_USER", "root")
			cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
			cfg.DB.Name = getEnvDefault("DB_NAME", "matchmaking")

			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Metrics
	cfg.Metrics.Addr = getEnvDefault("METRICS_ADDR", ":9090")

	// Events
	cfg.Events.Enabled = isTruthy(getEnvDefault("EVENTS_ENABLED", "true"))
	cfg.Events.BreakerThreshold = uint32(getEnvInt("EVENTS_BREAKER_THRESHOLD", 5))
	cfg.Events.BreakerTimeout = getEnvDuration("EVENTS_BREAKER_TIMEOUT", 30*time.Second)

	// Matching
	cfg.Matching = DefaultMatching()
	cfg.Matching.UndoWindow = getEnvDuration("UNDO_WINDOW", cfg.Matching.UndoWindow)
	cfg.Matching.CandidatePoolSize = getEnvInt("CANDIDATE_POOL_SIZE", cfg.Matching.CandidatePoolSize)
	cfg.Matching.MaxCandidateLimit = getEnvInt("MAX_CANDIDATE_LIMIT", cfg.Matching.MaxCandidateLimit)
	cfg.Matching.MaxLikesPageSize = getEnvInt("MAX_LIKES_PAGE", cfg.Matching.MaxLikesPageSize)
	cfg.Matching.DefaultAgeMin = getEnvInt("DEFAULT_AGE_MIN", cfg.Matching.DefaultAgeMin)
	cfg.Matching.DefaultAgeMax = getEnvInt("DEFAULT_AGE_MAX", cfg.Matching.DefaultAgeMax)
	cfg.Matching.DefaultMaxDistanceKm = getEnvFloat("DEFAULT_MAX_DISTANCE_KM", cfg.Matching.DefaultMaxDistanceKm)

	return cfg
}

// DefaultMatching returns the built-in matching tunables.
func DefaultMatching() MatchingConfig {
	return MatchingConfig{
		UndoWindow:           5 * time.Minute,
		CandidatePoolSize:    500,
		MaxCandidateLimit:    50,
		MaxLikesPageSize:     50,
		DefaultAgeMin:        18,
		DefaultAgeMax:        99,
		DefaultMaxDistanceKm: 100,
	}
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(getEnvDefault(k, ""), 64); err == nil {
		return v
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
