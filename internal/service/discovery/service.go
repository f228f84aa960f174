package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oggyb/matchmaking/internal/app"
	"github.com/oggyb/matchmaking/internal/config"
	"github.com/oggyb/matchmaking/internal/domain"
	svcErr "github.com/oggyb/matchmaking/internal/errors"
	"github.com/oggyb/matchmaking/internal/metrics"
	"github.com/oggyb/matchmaking/internal/repository"
	"github.com/oggyb/matchmaking/internal/scoring"
	"github.com/oggyb/matchmaking/internal/validation"
)

// Service builds ranked candidate batches. It is read-only and runs without
// a transaction; whatever it returns is re-validated when the caller acts.
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

// GetCandidates returns up to limit candidates for the requester.
//
// Behavior:
//   - Filters are validated before any query runs (InvalidFilter).
//   - Never returns the requester, anyone they acted on, anyone they are
//     actively matched with, or anyone in excludeIDs.
//   - Ordered mutual-preference first, then score, recency and id.
//   - With strict filters, failing candidates sort after passing ones.
func (s *Service) GetCandidates(
	ctx context.Context,
	requesterID uint64,
	limit int,
	excludeIDs []uint64,
	filters domain.Filters,
) ([]domain.ScoredCandidate, error) {
	started := time.Now()
	log := s.appCtx.Logger.With("op", "GetCandidates", "requester", requesterID)

	if err := s.validate(limit, filters); err != nil {
		log.Debug("rejected filters", "err", err)
		return nil, err
	}

	requester, err := s.repos.Users.GetProfile(ctx, requesterID)
	if err != nil {
		log.Error("load requester failed", "err", err)
		return nil, svcErr.Internal("load requester", err)
	}
	if requester == nil {
		return nil, svcErr.NotFound(fmt.Sprintf("user %d", requesterID))
	}
	me := requester.Profile()

	exclude, err := s.exclusionSet(ctx, requesterID, excludeIDs)
	if err != nil {
		log.Error("build exclusion set failed", "err", err)
		return nil, svcErr.Internal("build exclusion set", err)
	}

	q := repository.CandidateQuery{
		ExcludeIDs:     exclude,
		OnlyWithPhotos: filters.PhotosRequired(),
		PoolSize:       s.cfg.CandidatePoolSize,
	}
	if filters.StrictMode {
		q.MutualGender = &repository.MutualGender{
			RequesterGender: me.Gender,
			RequesterWants:  me.InterestedIn,
		}
	}

	pool, err := s.repos.Users.FindCandidatePool(ctx, q)
	if err != nil {
		log.Error("candidate pool query failed", "err", err)
		return nil, svcErr.Internal("load candidate pool", err)
	}

	params := s.params(me, filters)
	scored := make([]scoring.Scored, 0, len(pool))
	for i := range pool {
		scored = append(scored, scoring.Evaluate(me, pool[i].Profile(), params))
	}
	scoring.Rank(scored)
	scored = scoring.ApplyStrict(scored, filters, params)

	if len(scored) > limit {
		scored = scored[:limit]
	}

	out := make([]domain.ScoredCandidate, len(scored))
	for i, c := range scored {
		out[i] = c.Candidate()
	}

	metrics.RecordCandidates(time.Since(started), len(pool), len(out))
	log.Debug("candidates ranked", "pool", len(pool), "returned", len(out))
	return out, nil
}

func (s *Service) validate(limit int, f domain.Filters) error {
	if limit < 1 || limit > s.cfg.MaxCandidateLimit {
		return svcErr.InvalidFilter(fmt.Sprintf("limit must be between 1 and %d", s.cfg.MaxCandidateLimit))
	}
	if err := validation.Struct(f); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return svcErr.InvalidFilter(verrs.Error())
		}
		return svcErr.Internal("validate filters", err)
	}
	return nil
}

// exclusionSet merges everything the requester must never see again.
func (s *Service) exclusionSet(ctx context.Context, requesterID uint64, extra []uint64) ([]uint64, error) {
	acted, err := s.repos.Actions.ActedOnIDs(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	matched, err := s.repos.Matches.ActivePartnerIDs(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64]struct{}, len(acted)+len(matched)+len(extra)+1)
	out := make([]uint64, 0, len(acted)+len(matched)+len(extra)+1)
	add := func(ids ...uint64) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	add(requesterID)
	add(acted...)
	add(matched...)
	add(extra...)
	return out, nil
}

// params resolves soft preferences: explicit filter, then the requester's
// stored preference, then the configured default.
func (s *Service) params(me domain.Profile, f domain.Filters) scoring.Params {
	p := scoring.Params{
		AgeRange:      domain.AgeRange{Min: s.cfg.DefaultAgeMin, Max: s.cfg.DefaultAgeMax},
		MaxDistanceKm: s.cfg.DefaultMaxDistanceKm,
		Now:           s.now(),
	}

	switch {
	case f.AgeRange != nil:
		p.AgeRange = *f.AgeRange
	case me.PreferredAgeMin != nil && me.PreferredAgeMax != nil && *me.PreferredAgeMin <= *me.PreferredAgeMax:
		p.AgeRange = domain.AgeRange{Min: *me.PreferredAgeMin, Max: *me.PreferredAgeMax}
	}

	switch {
	case f.MaxDistanceKm != nil:
		p.MaxDistanceKm = *f.MaxDistanceKm
	case me.PreferredMaxDistanceKm != nil && *me.PreferredMaxDistanceKm > 0:
		p.MaxDistanceKm = *me.PreferredMaxDistanceKm
	}
	return p
}
