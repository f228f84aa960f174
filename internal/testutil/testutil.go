// Package testutil builds throwaway databases, Redis instances and users for
// package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/matchmaking/internal/app"
	"github.com/oggyb/matchmaking/internal/cache"
	"github.com/oggyb/matchmaking/internal/config"
	"github.com/oggyb/matchmaking/internal/db"
	"github.com/oggyb/matchmaking/internal/domain"
	applog "github.com/oggyb/matchmaking/internal/logger"
)

// NewDB opens a migrated SQLite database in a temp file. A file (rather than
// :memory:) lets concurrent transactions use separate connections;
// _txlock=immediate makes writers queue on the busy timeout.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=10000&_txlock=immediate"
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// NewRedis starts a miniredis and a client pointed at it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

// NewApp wires a fresh DB and Redis into an AppContext with logging
// discarded and events disabled.
func NewApp(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()
	gdb := NewDB(t)
	rc, mr := NewRedis(t)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Events.Enabled = false
	cfg.Matching = config.DefaultMatching()

	return app.New(cfg, gdb, rc, applog.Discard()), mr
}

// UserOpt customizes a user built by CreateUser.
type UserOpt func(u *db.User, s *userSpec)

type userSpec struct {
	interests []string
	inactive  bool
}

func WithGender(g domain.Gender) UserOpt {
	return func(u *db.User, _ *userSpec) { u.Gender = g }
}

func WithInterest(gi domain.GenderInterest) UserOpt {
	return func(u *db.User, _ *userSpec) { u.SetGenderInterest(gi) }
}

func WithAge(years int) UserOpt {
	return func(u *db.User, _ *userSpec) {
		u.BirthDate = time.Now().UTC().AddDate(-years, 0, -1)
	}
}

func WithLocation(lat, lon float64) UserOpt {
	return func(u *db.User, _ *userSpec) {
		u.Latitude, u.Longitude = &lat, &lon
	}
}

func WithPhotos(n int) UserOpt {
	return func(u *db.User, _ *userSpec) {
		u.Photos = nil
		for i := 0; i < n; i++ {
			u.Photos = append(u.Photos, db.Photo{URL: fmt.Sprintf("https://img.test/%s/%d.jpg", u.Username, i), Position: i})
		}
	}
}

func WithInterests(names ...string) UserOpt {
	return func(_ *db.User, s *userSpec) { s.interests = names }
}

func WithLastActive(at time.Time) UserOpt {
	return func(u *db.User, _ *userSpec) { u.LastActiveAt = at }
}

func WithRelationshipTypes(types ...domain.RelationshipType) UserOpt {
	return func(u *db.User, _ *userSpec) { u.RelationshipTypes = types }
}

func WithEducation(v string) UserOpt {
	return func(u *db.User, _ *userSpec) { u.Education = &v }
}

func WithSmoking(v string) UserOpt {
	return func(u *db.User, _ *userSpec) { u.Smoking = &v }
}

func Premium() UserOpt {
	return func(u *db.User, _ *userSpec) { u.IsPremium = true }
}

func Inactive() UserOpt {
	return func(_ *db.User, s *userSpec) { s.inactive = true }
}

// CreateUser inserts a 30-year-old active woman interested in everyone,
// with one photo, then applies opts.
func CreateUser(t *testing.T, gdb *gorm.DB, username string, opts ...UserOpt) *db.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	u := &db.User{
		Username:     username,
		Email:        strings.ToLower(username) + "@test.com",
		PasswordHash: "x",
		Active:       true,
		Gender:       domain.GenderFemale,
		BirthDate:    now.AddDate(-30, 0, -1),
		LastActiveAt: now,
	}
	u.SetGenderInterest(domain.Everyone())
	WithPhotos(1)(u, nil)

	spec := &userSpec{}
	for _, opt := range opts {
		opt(u, spec)
	}

	for _, name := range spec.interests {
		in := db.Interest{Name: name}
		require.NoError(t, gdb.Where(db.Interest{Name: name}).FirstOrCreate(&in).Error)
		u.Interests = append(u.Interests, in)
	}

	require.NoError(t, gdb.Create(u).Error)

	// default:true swallows a false Active on insert
	if spec.inactive {
		require.NoError(t, gdb.Model(u).Update("active", false).Error)
		u.Active = false
	}
	return u
}

// Reload fetches the stored counters and flags of u.
func Reload(t *testing.T, gdb *gorm.DB, id uint64) db.User {
	t.Helper()
	var u db.User
	require.NoError(t, gdb.First(&u, id).Error)
	return u
}

// CountMatches counts match rows for the unordered pair, active or not.
func CountMatches(t *testing.T, gdb *gorm.DB, a, b uint64) int64 {
	t.Helper()
	u1, u2 := domain.CanonicalPair(a, b)
	var n int64
	require.NoError(t, gdb.Model(&db.Match{}).Where("user1_id = ? AND user2_id = ?", u1, u2).Count(&n).Error)
	return n
}
