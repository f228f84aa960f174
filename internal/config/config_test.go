package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("UNDO_WINDOW", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/matchmaking")
	assert.Equal(t, 5*time.Minute, cfg.Matching.UndoWindow)
	assert.Equal(t, 500, cfg.Matching.CandidatePoolSize)
	assert.Equal(t, 50, cfg.Matching.MaxCandidateLimit)
	assert.True(t, cfg.Events.Enabled)
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_DSN", "file:test.db")
	t.Setenv("UNDO_WINDOW", "90s")
	t.Setenv("CANDIDATE_POOL_SIZE", "1000")
	t.Setenv("DEFAULT_MAX_DISTANCE_KM", "42.5")
	t.Setenv("EVENTS_ENABLED", "off")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := New()

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file:test.db", cfg.DB.DSN)
	assert.Equal(t, 90*time.Second, cfg.Matching.UndoWindow)
	assert.Equal(t, 1000, cfg.Matching.CandidatePoolSize)
	assert.Equal(t, 42.5, cfg.Matching.DefaultMaxDistanceKm)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, 0, cfg.Redis.DB)
}
