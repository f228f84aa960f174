package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/matchmaking/internal/cache"
	"github.com/oggyb/matchmaking/internal/config"
	"github.com/oggyb/matchmaking/internal/events"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Emitter    events.Emitter
	Logger     *slog.Logger
}

// New creates a new AppContext. Events go to Redis when enabled in config,
// otherwise they are dropped.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	var emitter events.Emitter = events.NopEmitter{}
	if cfg.Events.Enabled && rdb != nil {
		emitter = events.NewRedisEmitter(rdb, cfg, logger)
	}
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Emitter:    emitter,
		Logger:     logger,
	}
}
