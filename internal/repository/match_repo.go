package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaking/internal/db"
	"github.com/oggyb/matchmaking/internal/domain"
)

// MatchRepository stores the undirected match pairs.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// EnsureMatch is insert-or-get-existing on the canonical pair.
//
// Behavior:
//   - No row yet → a new active row is inserted, created = true.
//   - Active row exists → it is returned unchanged, created = false.
//   - Inactive row exists → it is reactivated with a fresh matched_at,
//     created = true. The update is conditional on is_active = false, so of
//     two racing callers only one observes created = true.
func (r *MatchRepository) EnsureMatch(ctx context.Context, a, b uint64, now time.Time) (*db.Match, bool, error) {
	u1, u2 := domain.CanonicalPair(a, b)

	m := db.Match{User1ID: u1, User2ID: u2, IsActive: true, MatchedAt: now}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Create(&m)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &m, true, nil
	}

	existing, err := r.FindByPair(ctx, u1, u2)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	if existing.IsActive {
		return existing, false, nil
	}

	upd := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND is_active = ?", existing.ID, false).
		Updates(map[string]any{"is_active": true, "matched_at": now})
	if upd.Error != nil {
		return nil, false, upd.Error
	}
	if upd.RowsAffected == 0 {
		// someone else reactivated it first
		existing, err = r.FindByPair(ctx, u1, u2)
		return existing, false, err
	}
	existing.IsActive = true
	existing.MatchedAt = now
	return existing, true, nil
}

// FindByPair returns the row for {a, b} in either order, active or not.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	u1, u2 := domain.CanonicalPair(a, b)
	var rows []db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// FindActive is FindByPair restricted to active matches.
func (r *MatchRepository) FindActive(ctx context.Context, a, b uint64) (*db.Match, error) {
	m, err := r.FindByPair(ctx, a, b)
	if err != nil || m == nil || !m.IsActive {
		return nil, err
	}
	return m, nil
}

// Deactivate flips an active match to inactive and reports whether this
// call did it.
func (r *MatchRepository) Deactivate(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	return res.RowsAffected == 1, res.Error
}

// ActivePartnerIDs lists everyone userID is currently matched with.
func (r *MatchRepository) ActivePartnerIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var rows []db.Match
	err := r.db.WithContext(ctx).
		Select("user1_id", "user2_id").
		Where("is_active = ? AND (user1_id = ? OR user2_id = ?)", true, userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(rows))
	for i, m := range rows {
		ids[i] = m.ToDomain().Other(userID)
	}
	return ids, nil
}

// ListActive pages through userID's active matches, newest first.
func (r *MatchRepository) ListActive(ctx context.Context, userID uint64, limit, offset int) ([]db.Match, error) {
	var rows []db.Match
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND (user1_id = ? OR user2_id = ?)", true, userID, userID).
		Order("matched_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}
