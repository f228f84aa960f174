package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oggyb/matchmaking/internal/errors"
)

var (
	ActionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_actions_recorded_total",
			Help: "Actions persisted, by kind",
		},
		[]string{"kind"},
	)

	ActionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_actions_rejected_total",
			Help: "Action writes that failed, by error kind",
		},
		[]string{"operation", "reason"},
	)

	MatchesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchmaking_matches_created_total",
			Help: "Matches created or reactivated",
		},
	)

	MatchesRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_matches_removed_total",
			Help: "Matches deactivated, by cause",
		},
		[]string{"cause"}, // "undo", "unmatch"
	)

	Undos = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_undo_total",
			Help: "Undo attempts by outcome",
		},
		[]string{"outcome"},
	)

	CandidateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_candidates_duration_seconds",
			Help:    "Time spent building a candidate batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	CandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_candidate_pool_size",
			Help:    "Users retrieved per candidate request before ranking",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000},
		},
	)

	CandidatesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_candidates_returned",
			Help:    "Candidates returned per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		},
	)

	PendingLikesCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_pending_likes_cache_total",
			Help: "Pending-likes count lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_events_published_total",
			Help: "Events handed to the broker, by type",
		},
		[]string{"type"},
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_event_publish_failures_total",
			Help: "Events dropped, by type and reason",
		},
		[]string{"type", "reason"},
	)

	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchmaking_rpc_duration_seconds",
			Help:    "Duration of gRPC calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "code"},
	)
)

// RecordCandidates observes one finished candidate request.
func RecordCandidates(duration time.Duration, pool, returned int) {
	CandidateDuration.Observe(duration.Seconds())
	CandidatePoolSize.Observe(float64(pool))
	CandidatesReturned.Observe(float64(returned))
}

// RecordRejection counts a failed write under its error kind.
func RecordRejection(operation string, err error) {
	ActionsRejected.WithLabelValues(operation, string(errors.KindOf(err))).Inc()
}

// RecordUndo counts an undo attempt; err nil means it succeeded.
func RecordUndo(err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(errors.KindOf(err))
	}
	Undos.WithLabelValues(outcome).Inc()
}
