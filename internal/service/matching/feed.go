package matching

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oggyb/matchmaking/internal/db"
	"github.com/oggyb/matchmaking/internal/domain"
	svcErr "github.com/oggyb/matchmaking/internal/errors"
	"github.com/oggyb/matchmaking/internal/metrics"
)

// GetWhoLikedMe returns users who liked userID and are still waiting for
// an answer, newest first.
//
// Behavior:
//   - Only LIKE and SUPER_LIKE from active users count.
//   - Anyone userID already liked or passed is left out.
//   - TotalLikes is the stored counter; PendingCount comes from Redis
//     (likes:pending:<id>) and falls back to the DB on a miss, refilling
//     the cache with a 1h TTL.
func (s *Service) GetWhoLikedMe(ctx context.Context, userID uint64, limit, offset int) (*domain.WhoLikedMe, error) {
	log := s.appCtx.Logger.With("op", "GetWhoLikedMe", "user", userID)

	if err := s.checkPage(limit, offset, s.cfg.MaxLikesPageSize); err != nil {
		return nil, err
	}

	totalLikes, _, err := s.repos.Users.Counters(ctx, userID)
	if err != nil {
		return nil, s.fail(log, "load counters", notFoundOr(err, userID))
	}

	actions, err := s.repos.Actions.ListLikers(ctx, userID, limit, offset)
	if err != nil {
		return nil, s.fail(log, "list likers", err)
	}

	ids := make([]uint64, len(actions))
	for i, a := range actions {
		ids[i] = a.SenderID
	}
	profiles, err := s.repos.Users.FindProfiles(ctx, ids)
	if err != nil {
		return nil, s.fail(log, "load likers", err)
	}

	now := s.now()
	likers := make([]domain.Liker, 0, len(actions))
	for _, a := range actions {
		u, ok := profiles[a.SenderID]
		if !ok {
			continue
		}
		p := u.Profile()
		likers = append(likers, domain.Liker{
			User:      p.Public(),
			Age:       p.Age(now),
			Interests: u.InterestNames(),
			Kind:      a.Kind,
			LikedAt:   a.CreatedAt,
		})
	}

	pending, err := s.pendingCount(ctx, log, userID)
	if err != nil {
		return nil, s.fail(log, "count pending likes", err)
	}

	log.Debug("who liked me", "returned", len(likers), "pending", pending)
	return &domain.WhoLikedMe{
		Likers:       likers,
		TotalLikes:   totalLikes,
		PendingCount: pending,
	}, nil
}

// pendingCount is cache-first. A Redis failure degrades to the DB count.
// On a miss the cache version is read before counting, so a write that
// commits in between keeps the stale count out of the cache.
func (s *Service) pendingCount(ctx context.Context, log *slog.Logger, userID uint64) (int64, error) {
	rc := s.appCtx.RedisCache
	fill := false
	var version string
	if rc != nil {
		n, ok, err := rc.GetPendingLikes(ctx, userID)
		switch {
		case err != nil:
			metrics.PendingLikesCache.WithLabelValues("error").Inc()
			log.Warn("pending likes cache read failed", "err", err)
		case ok:
			metrics.PendingLikesCache.WithLabelValues("hit").Inc()
			return n, nil
		default:
			metrics.PendingLikesCache.WithLabelValues("miss").Inc()
			if version, err = rc.PendingLikesVersion(ctx, userID); err != nil {
				log.Warn("pending likes cache version read failed", "err", err)
			} else {
				fill = true
			}
		}
	}

	n, err := s.repos.Actions.CountPendingLikers(ctx, userID)
	if err != nil {
		return 0, err
	}
	if fill {
		stored, err := rc.FillPendingLikes(ctx, userID, n, version)
		switch {
		case err != nil:
			log.Warn("pending likes cache write failed", "err", err)
		case !stored:
			log.Debug("pending likes changed while counting, not cached")
		}
	}
	return n, nil
}

// ListMatches pages through userID's active matches, newest first.
func (s *Service) ListMatches(ctx context.Context, userID uint64, limit, offset int) ([]domain.MatchSummary, error) {
	log := s.appCtx.Logger.With("op", "ListMatches", "user", userID)

	if err := s.checkPage(limit, offset, s.cfg.MaxLikesPageSize); err != nil {
		return nil, err
	}

	rows, err := s.repos.Matches.ListActive(ctx, userID, limit, offset)
	if err != nil {
		return nil, s.fail(log, "list matches", err)
	}

	ids := make([]uint64, len(rows))
	for i, m := range rows {
		ids[i] = m.ToDomain().Other(userID)
	}
	partners, err := s.repos.Users.FindProfiles(ctx, ids)
	if err != nil {
		return nil, s.fail(log, "load partners", err)
	}

	now := s.now()
	out := make([]domain.MatchSummary, 0, len(rows))
	for _, row := range rows {
		m := row.ToDomain()
		u, ok := partners[m.Other(userID)]
		if !ok {
			continue
		}
		p := u.Profile()
		out = append(out, domain.MatchSummary{
			Match:   m,
			Partner: p.Public(),
			Age:     p.Age(now),
		})
	}
	return out, nil
}

func (s *Service) checkPage(limit, offset, maxLimit int) error {
	if limit < 1 || limit > maxLimit {
		return svcErr.InvalidArgument(fmt.Sprintf("limit must be between 1 and %d", maxLimit))
	}
	if offset < 0 {
		return svcErr.InvalidArgument("offset must not be negative")
	}
	return nil
}

func notFoundOr(err error, userID uint64) error {
	if db.IsNotFound(err) {
		return svcErr.NotFound(fmt.Sprintf("user %d", userID))
	}
	return err
}
