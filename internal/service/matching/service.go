package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/matchmaking/internal/app"
	"github.com/oggyb/matchmaking/internal/config"
	"github.com/oggyb/matchmaking/internal/db"
	"github.com/oggyb/matchmaking/internal/domain"
	svcErr "github.com/oggyb/matchmaking/internal/errors"
	"github.com/oggyb/matchmaking/internal/events"
	"github.com/oggyb/matchmaking/internal/metrics"
	"github.com/oggyb/matchmaking/internal/repository"
)

// undoAttempts bounds retries when the user records another action while
// an undo is in flight.
const undoAttempts = 3

var errLatestMoved = errors.New("latest action changed during undo")

// Service records swipes and owns the match state machine.
//
// Every write runs in one transaction that first locks both user rows in
// id order. That lock serializes all writers on the same pair, across
// processes, so the duplicate and reciprocal checks below cannot race.
// Events and cache invalidation happen only after commit.
type Service struct {
	appCtx *app.AppContext
	repos  *repository.Repositories
	cfg    config.MatchingConfig
	now    func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		repos:  repository.New(appCtx.DB),
		cfg:    appCtx.Config.Matching,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock swaps the time source. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordAction stores sender's action on receiver.
//
// Behavior:
//   - A second action on the same ordered pair fails with DuplicateAction.
//   - LIKE and SUPER_LIKE bump the receiver's total-likes counter.
//   - If the receiver already liked the sender, the pair's match is created
//     (or reactivated) and both match counters go up, all in the same
//     transaction.
//   - match:new is emitted to both users after commit.
func (s *Service) RecordAction(ctx context.Context, senderID, receiverID uint64, kind domain.ActionKind) (*domain.ActionResult, error) {
	log := s.appCtx.Logger.With("op", "RecordAction", "sender", senderID, "receiver", receiverID, "kind", kind)

	if senderID == receiverID {
		return nil, svcErr.InvalidArgument("cannot act on yourself")
	}
	if !kind.Valid() {
		return nil, svcErr.InvalidArgument(fmt.Sprintf("unknown action kind %q", kind))
	}

	now := s.now().Truncate(time.Millisecond)
	var (
		result          domain.ActionResult
		matchCreated    bool
		removedFromFeed bool
	)

	err := repository.InTx(ctx, s.appCtx.DB, func(r *repository.Repositories) error {
		if err := lockPair(ctx, r, senderID, receiverID); err != nil {
			return err
		}

		existing, err := r.Actions.Find(ctx, senderID, receiverID)
		if err != nil {
			return err
		}
		if existing != nil {
			return svcErr.DuplicateAction(senderID, receiverID)
		}

		action := db.Action{SenderID: senderID, ReceiverID: receiverID, Kind: kind, CreatedAt: now}
		if err := r.Actions.Create(ctx, &action); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return svcErr.DuplicateAction(senderID, receiverID)
			}
			return err
		}
		result.Action = action.ToDomain()

		theyLikedMe, err := r.Actions.HasLiked(ctx, receiverID, senderID)
		if err != nil {
			return err
		}

		if !kind.IsPositive() {
			removedFromFeed = theyLikedMe
			return nil
		}

		if err := r.Users.IncrementLikes(ctx, receiverID); err != nil {
			return err
		}
		if !theyLikedMe {
			return nil
		}

		m, created, err := r.Matches.EnsureMatch(ctx, senderID, receiverID, now)
		if err != nil {
			return err
		}
		if created {
			if err := r.Users.IncrementMatches(ctx, m.User1ID, m.User2ID); err != nil {
				return err
			}
		}
		dm := m.ToDomain()
		result.IsMatch = true
		result.Match = &dm
		matchCreated = created
		return nil
	})
	if err != nil {
		metrics.RecordRejection("record_action", err)
		return nil, s.fail(log, "record action", err)
	}

	metrics.ActionsRecorded.WithLabelValues(string(kind)).Inc()
	s.invalidate(ctx, log, senderID, receiverID)

	if matchCreated {
		metrics.MatchesCreated.Inc()
		m := result.Match
		for _, uid := range []uint64{m.User1ID, m.User2ID} {
			s.appCtx.Emitter.Emit(ctx, events.MatchNew, uid, map[string]any{
				"match_id":   m.ID,
				"user_id":    m.Other(uid),
				"matched_at": m.MatchedAt.Format(time.RFC3339Nano),
			})
		}
		log.Info("match created", "match_id", m.ID)
	}
	if removedFromFeed {
		s.appCtx.Emitter.Emit(ctx, events.LikedYouRemoved, senderID, map[string]any{
			"user_id": receiverID,
		})
	}

	log.Debug("action recorded", "is_match", result.IsMatch)
	return &result, nil
}

// RecordPass is RecordAction with PASS. It never creates a match and never
// touches counters.
func (s *Service) RecordPass(ctx context.Context, senderID, receiverID uint64) (*domain.ActionResult, error) {
	return s.RecordAction(ctx, senderID, receiverID, domain.ActionPass)
}

// UndoLastAction removes userID's most recent action if it is inside the
// undo window.
//
// Behavior:
//   - No action at all → NothingToUndo.
//   - Latest action older than the window → UndoWindowExpired, nothing changes.
//   - A LIKE/SUPER_LIKE gives back the receiver's like; if it had produced an
//     active match (the receiver liked back), that match is deactivated and
//     both match counters go down exactly once.
//   - like:undone and, when applicable, match:removed go to the receiver.
func (s *Service) UndoLastAction(ctx context.Context, userID uint64) (*domain.UndoResult, error) {
	log := s.appCtx.Logger.With("op", "UndoLastAction", "user", userID)

	var (
		res *domain.UndoResult
		err error
	)
	for attempt := 0; attempt < undoAttempts; attempt++ {
		res, err = s.undoOnce(ctx, userID)
		if !errors.Is(err, errLatestMoved) {
			break
		}
		log.Debug("latest action moved, retrying", "attempt", attempt+1)
	}
	if errors.Is(err, errLatestMoved) {
		err = svcErr.Internal("undo", err)
	}
	metrics.RecordUndo(err)
	if err != nil {
		return nil, s.fail(log, "undo last action", err)
	}

	s.invalidate(ctx, log, userID, res.Action.ReceiverID)

	receiver := res.Action.ReceiverID
	if res.Action.Kind.IsPositive() {
		s.appCtx.Emitter.Emit(ctx, events.LikeUndone, receiver, map[string]any{
			"user_id": userID,
			"kind":    string(res.Action.Kind),
		})
	}
	if res.MatchDeactivated {
		metrics.MatchesRemoved.WithLabelValues("undo").Inc()
		s.appCtx.Emitter.Emit(ctx, events.MatchRemoved, receiver, map[string]any{
			"match_id": res.Match.ID,
			"user_id":  userID,
			"reason":   "undo",
		})
	}

	log.Debug("action undone", "receiver", receiver, "match_deactivated", res.MatchDeactivated)
	return res, nil
}

func (s *Service) undoOnce(ctx context.Context, userID uint64) (*domain.UndoResult, error) {
	latest, err := s.repos.Actions.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, svcErr.NothingToUndo(userID)
	}
	if err := s.checkWindow(latest); err != nil {
		return nil, err
	}
	receiverID := latest.ReceiverID

	res := &domain.UndoResult{}
	err = repository.InTx(ctx, s.appCtx.DB, func(r *repository.Repositories) error {
		if err := lockPair(ctx, r, userID, receiverID); err != nil {
			return err
		}

		// re-read under the pair lock: a concurrent undo or a newer action
		// may have landed since the first read
		cur, err := r.Actions.Latest(ctx, userID)
		if err != nil {
			return err
		}
		if cur == nil {
			return svcErr.NothingToUndo(userID)
		}
		if cur.ReceiverID != receiverID {
			return errLatestMoved
		}
		action, err := r.Actions.FindForUpdate(ctx, userID, receiverID)
		if err != nil {
			return err
		}
		if action == nil {
			return svcErr.NothingToUndo(userID)
		}
		if err := s.checkWindow(action); err != nil {
			return err
		}

		deleted, err := r.Actions.Delete(ctx, userID, receiverID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return svcErr.NothingToUndo(userID)
		}
		res.Action = action.ToDomain()

		if !action.Kind.IsPositive() {
			return nil
		}
		if err := r.Users.DecrementLikes(ctx, receiverID); err != nil {
			return err
		}

		likedBack, err := r.Actions.HasLiked(ctx, receiverID, userID)
		if err != nil || !likedBack {
			return err
		}
		m, err := r.Matches.FindActive(ctx, userID, receiverID)
		if err != nil || m == nil {
			return err
		}
		flipped, err := r.Matches.Deactivate(ctx, m.ID)
		if err != nil || !flipped {
			return err
		}
		if err := r.Users.DecrementMatches(ctx, m.User1ID, m.User2ID); err != nil {
			return err
		}
		m.IsActive = false
		dm := m.ToDomain()
		res.Match = &dm
		res.MatchDeactivated = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) checkWindow(a *db.Action) error {
	age := s.now().Sub(a.CreatedAt)
	if age > s.cfg.UndoWindow {
		return svcErr.UndoWindowExpired(age.Truncate(time.Second), s.cfg.UndoWindow)
	}
	return nil
}

// Unmatch deactivates the active match between userID and otherUserID.
// Both actions stay, so neither user sees the other in discovery again.
func (s *Service) Unmatch(ctx context.Context, userID, otherUserID uint64) (*domain.Match, error) {
	log := s.appCtx.Logger.With("op", "Unmatch", "user", userID, "other", otherUserID)

	if userID == otherUserID {
		return nil, svcErr.InvalidArgument("cannot unmatch yourself")
	}

	var out domain.Match
	err := repository.InTx(ctx, s.appCtx.DB, func(r *repository.Repositories) error {
		if err := lockPair(ctx, r, userID, otherUserID); err != nil {
			return err
		}
		m, err := r.Matches.FindActive(ctx, userID, otherUserID)
		if err != nil {
			return err
		}
		if m == nil {
			return svcErr.NotFound("active match")
		}
		flipped, err := r.Matches.Deactivate(ctx, m.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return svcErr.NotFound("active match")
		}
		if err := r.Users.DecrementMatches(ctx, m.User1ID, m.User2ID); err != nil {
			return err
		}
		m.IsActive = false
		out = m.ToDomain()
		return nil
	})
	if err != nil {
		metrics.RecordRejection("unmatch", err)
		return nil, s.fail(log, "unmatch", err)
	}

	metrics.MatchesRemoved.WithLabelValues("unmatch").Inc()
	s.appCtx.Emitter.Emit(ctx, events.MatchRemoved, otherUserID, map[string]any{
		"match_id": out.ID,
		"user_id":  userID,
		"reason":   "unmatch",
	})
	log.Info("unmatched", "match_id", out.ID)
	return &out, nil
}

// lockPair locks both users (ascending id) and fails with NotFound when
// either is missing.
func lockPair(ctx context.Context, r *repository.Repositories, a, b uint64) error {
	users, err := r.Users.LockUsers(ctx, a, b)
	if err != nil {
		return err
	}
	found := make(map[uint64]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}
	for _, id := range []uint64{a, b} {
		if !found[id] {
			return svcErr.NotFound(fmt.Sprintf("user %d", id))
		}
	}
	return nil
}

// invalidate drops cached pending-likes counts touched by a write. Failures
// only cost a stale count until the TTL runs out.
func (s *Service) invalidate(ctx context.Context, log *slog.Logger, userIDs ...uint64) {
	if s.appCtx.RedisCache == nil {
		return
	}
	if err := s.appCtx.RedisCache.InvalidatePendingLikes(ctx, userIDs...); err != nil {
		log.Warn("pending likes cache invalidation failed", "err", err)
	}
}

// fail logs err at a level matching its kind and returns it typed.
func (s *Service) fail(log *slog.Logger, op string, err error) error {
	err = svcErr.Internal(op, err)
	if svcErr.KindOf(err) == svcErr.KindInternal {
		log.Error(op+" failed", "err", err)
	} else {
		log.Debug(op+" rejected", "err", err)
	}
	return err
}
