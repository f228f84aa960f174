package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/matchmaking/internal/config"
)

// CountTTL is how long a cached count lives without being read.
const CountTTL = time.Hour

// versionTTL outlives any cached count, so a version never resets while a
// count filled under it can still be served.
const versionTTL = 2 * CountTTL

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Publish(ctx context.Context, channel string, message any) error {
	return c.Client.Publish(ctx, channel, message).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForPendingLikes is the key of a user's unanswered-likes count.
func KeyForPendingLikes(userID uint64) string {
	return fmt.Sprintf("likes:pending:%d", userID)
}

func keyForPendingLikesVersion(userID uint64) string {
	return fmt.Sprintf("likes:pending:%d:v", userID)
}

// PendingLikesVersion reads the user's invalidation counter ("" if never
// invalidated). Read it before counting in the DB and hand it to
// FillPendingLikes.
func (c *RedisCache) PendingLikesVersion(ctx context.Context, userID uint64) (string, error) {
	v, err := c.Client.Get(ctx, keyForPendingLikesVersion(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// FillPendingLikes stores count with a fresh TTL, but only if no
// invalidation happened since version was read. A count read from the DB
// before a concurrent write committed is therefore never cached past that
// write. Reports whether the value was stored.
func (c *RedisCache) FillPendingLikes(ctx context.Context, userID uint64, count int64, version string) (bool, error) {
	verKey := keyForPendingLikesVersion(userID)
	stored := false
	err := c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, KeyForPendingLikes(userID), count, CountTTL)
			return nil
		})
		if err != nil {
			return err
		}
		stored = true
		return nil
	}, verKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// GetPendingLikes returns the cached count. ok is false on a miss.
func (c *RedisCache) GetPendingLikes(ctx context.Context, userID uint64) (n int64, ok bool, err error) {
	key := KeyForPendingLikes(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, CountTTL).Err()
	return n, true, nil
}

// InvalidatePendingLikes drops the cached counts of the given users and
// bumps their versions in one MULTI, so in-flight fills are discarded.
func (c *RedisCache) InvalidatePendingLikes(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			verKey := keyForPendingLikesVersion(id)
			pipe.Incr(ctx, verKey)
			pipe.Expire(ctx, verKey, versionTTL)
			pipe.Del(ctx, KeyForPendingLikes(id))
		}
		return nil
	})
	return err
}
