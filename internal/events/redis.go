package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/matchmaking/internal/config"
	"github.com/oggyb/matchmaking/internal/metrics"
)

// Publisher is the slice of the Redis client the emitter needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

// RedisEmitter publishes events to per-user Redis channels.
//
// Each message is a JSON envelope:
//
//	{"id": "<uuid>", "type": "match:new", "target_user_id": 42,
//	 "occurred_at": "2025-01-02T15:04:05Z", "payload": {...}}
//
// A circuit breaker sits in front of Redis: after BreakerThreshold
// consecutive failures, events are dropped without a round trip until
// BreakerTimeout has elapsed.
type RedisEmitter struct {
	pub     Publisher
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
	now     func() time.Time
}

func NewRedisEmitter(pub Publisher, cfg *config.Config, logger *slog.Logger) *RedisEmitter {
	threshold := cfg.Events.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}

	e := &RedisEmitter{
		pub:     pub,
		logger:  logger,
		timeout: 2 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
	}
	e.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "events-redis",
		MaxRequests: 1,
		Timeout:     cfg.Events.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("event publisher circuit changed state",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return e
}

func (e *RedisEmitter) Emit(ctx context.Context, eventType string, targetUserID uint64, payload map[string]any) {
	msg, err := e.envelope(eventType, targetUserID, payload)
	if err != nil {
		metrics.EventPublishFailures.WithLabelValues(eventType, "encode").Inc()
		e.logger.Error("encode event failed", "type", eventType, "target", targetUserID, "err", err)
		return
	}

	// the write already committed; the caller's deadline should not cut the publish short
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	_, err = e.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, e.pub.Publish(pctx, Channel(targetUserID), msg)
	})
	switch {
	case err == nil:
		metrics.EventsPublished.WithLabelValues(eventType).Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EventPublishFailures.WithLabelValues(eventType, "circuit_open").Inc()
		e.logger.Debug("event dropped, circuit open", "type", eventType, "target", targetUserID)
	default:
		metrics.EventPublishFailures.WithLabelValues(eventType, "publish").Inc()
		e.logger.Warn("publish event failed", "type", eventType, "target", targetUserID, "err", err)
	}
}

func (e *RedisEmitter) envelope(eventType string, targetUserID uint64, payload map[string]any) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	s, err := structpb.NewStruct(map[string]any{
		"id":             uuid.NewString(),
		"type":           eventType,
		"target_user_id": targetUserID,
		"occurred_at":    e.now().Format(time.RFC3339Nano),
		"payload":        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("build envelope: %w", err)
	}
	return protojson.Marshal(s)
}
