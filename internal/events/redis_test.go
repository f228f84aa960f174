package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/matchmaking/internal/cache"
	"github.com/oggyb/matchmaking/internal/config"
	"github.com/oggyb/matchmaking/internal/events"
	"github.com/oggyb/matchmaking/internal/logger"
)

type flakyPublisher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *flakyPublisher) Publish(context.Context, string, any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func TestRedisEmitterPublishesEnvelope(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })

	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe(events.Channel(42))

	em := events.NewRedisEmitter(rc, cfg, logger.Discard())
	em.Emit(context.Background(), events.MatchNew, 42, map[string]any{
		"match_id": uint64(7),
		"user_id":  uint64(3),
	})

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, "events:user:42", msg.Channel)

		var env struct {
			ID           string         `json:"id"`
			Type         string         `json:"type"`
			TargetUserID float64        `json:"target_user_id"`
			OccurredAt   string         `json:"occurred_at"`
			Payload      map[string]any `json:"payload"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Message), &env))
		assert.NotEmpty(t, env.ID)
		assert.Equal(t, events.MatchNew, env.Type)
		assert.Equal(t, float64(42), env.TargetUserID)
		assert.NotEmpty(t, env.OccurredAt)
		assert.Equal(t, float64(7), env.Payload["match_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestRedisEmitterBreakerOpensAfterFailures(t *testing.T) {
	cfg := config.New()
	cfg.Events.BreakerThreshold = 2
	cfg.Events.BreakerTimeout = time.Minute

	pub := &flakyPublisher{err: errors.New("connection refused")}
	em := events.NewRedisEmitter(pub, cfg, logger.Discard())

	for i := 0; i < 5; i++ {
		em.Emit(context.Background(), events.LikeUndone, 1, nil)
	}

	// two failures trip the breaker; the rest never reach the publisher
	assert.Equal(t, 2, pub.calls)
}

func TestRedisEmitterIgnoresCanceledContext(t *testing.T) {
	cfg := config.New()
	pub := &flakyPublisher{}
	em := events.NewRedisEmitter(pub, cfg, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	em.Emit(ctx, events.MatchRemoved, 1, map[string]any{"user_id": uint64(2)})

	assert.Equal(t, 1, pub.calls)
}

func TestNopEmitter(t *testing.T) {
	var em events.Emitter = events.NopEmitter{}
	assert.NotPanics(t, func() { em.Emit(context.Background(), events.MatchNew, 1, nil) })
}
