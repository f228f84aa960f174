package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaking/internal/db"
	"github.com/oggyb/matchmaking/internal/domain"
)

// UserRepository reads user profiles and maintains the two derived counters
// the matchmaking core owns.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// CandidateQuery narrows the candidate pool at retrieval time.
type CandidateQuery struct {
	ExcludeIDs     []uint64
	OnlyWithPhotos bool
	PoolSize       int

	// MutualGender, when set, keeps only users whose gender the requester
	// accepts and who accept the requester's gender.
	MutualGender *MutualGender
}

// MutualGender is the strict-mode retrieval condition.
type MutualGender struct {
	RequesterGender domain.Gender
	RequesterWants  domain.GenderInterest
}

// GetProfile loads one user with photos and interests, nil if absent.
func (r *UserRepository) GetProfile(ctx context.Context, id uint64) (*db.User, error) {
	var users []db.User
	err := r.withProfile(ctx).Where("id = ?", id).Limit(1).Find(&users).Error
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

// FindProfiles loads users by id, keyed by id.
func (r *UserRepository) FindProfiles(ctx context.Context, ids []uint64) (map[uint64]*db.User, error) {
	out := make(map[uint64]*db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []db.User
	if err := r.withProfile(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// LockUsers takes row locks on the given users in ascending id order, so
// two transactions touching the same pair always queue instead of
// deadlocking. Missing ids are simply absent from the result.
func (r *UserRepository) LockUsers(ctx context.Context, ids ...uint64) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "active", "gender", "total_likes", "total_matches").
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// FindCandidatePool retrieves at most PoolSize active users not in
// ExcludeIDs, most recently active first.
func (r *UserRepository) FindCandidatePool(ctx context.Context, q CandidateQuery) ([]db.User, error) {
	query := r.withProfile(ctx).
		Where("active = ?", true)

	if len(q.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", q.ExcludeIDs)
	}

	if q.OnlyWithPhotos {
		query = query.Where("EXISTS (SELECT 1 FROM photos p WHERE p.user_id = users.id)")
	}

	if mg := q.MutualGender; mg != nil {
		if !mg.RequesterWants.IsEveryone() {
			query = query.Where("gender IN ?", mg.RequesterWants.Genders())
		}
		query = query.Where(
			"(interested_in_everyone = ? OR (interested_in_mask & ?) <> 0)",
			true, mg.RequesterGender.Bit(),
		)
	}

	var users []db.User
	err := query.
		Order("last_active_at DESC").
		Order("id ASC").
		Limit(q.PoolSize).
		Find(&users).Error
	return users, err
}

// IncrementLikes bumps the receiver's total-likes counter.
func (r *UserRepository) IncrementLikes(ctx context.Context, userID uint64) error {
	return r.bump(ctx, "total_likes", 1, userID)
}

// DecrementLikes lowers the total-likes counter, never below zero.
func (r *UserRepository) DecrementLikes(ctx context.Context, userID uint64) error {
	return r.bump(ctx, "total_likes", -1, userID)
}

// IncrementMatches bumps the match counter of every given user.
func (r *UserRepository) IncrementMatches(ctx context.Context, userIDs ...uint64) error {
	return r.bump(ctx, "total_matches", 1, userIDs...)
}

// DecrementMatches lowers the match counter of every given user, never below zero.
func (r *UserRepository) DecrementMatches(ctx context.Context, userIDs ...uint64) error {
	return r.bump(ctx, "total_matches", -1, userIDs...)
}

func (r *UserRepository) bump(ctx context.Context, column string, delta int, ids ...uint64) error {
	q := r.db.WithContext(ctx).Model(&db.User{}).Where("id IN ?", ids)
	if delta < 0 {
		q = q.Where(column+" >= ?", -delta)
	}
	return q.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

// Counters returns the stored like and match counters.
func (r *UserRepository) Counters(ctx context.Context, userID uint64) (likes, matches int64, err error) {
	var u db.User
	err = r.db.WithContext(ctx).
		Select("total_likes", "total_matches").
		Where("id = ?", userID).
		Take(&u).Error
	return u.TotalLikes, u.TotalMatches, err
}

func (r *UserRepository) withProfile(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Preload("Photos").
		Preload("Interests")
}
