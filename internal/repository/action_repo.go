package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaking/internal/db"
	"github.com/oggyb/matchmaking/internal/domain"
)

// ActionRepository provides data access methods for the Action model.
// It encapsulates all queries related to likes/passes between users.
type ActionRepository struct {
	db *gorm.DB
}

// NewActionRepository creates a new repository bound to the given DB connection.
func NewActionRepository(database *gorm.DB) *ActionRepository {
	return &ActionRepository{db: database}
}

// Create inserts a new action. The composite primary key rejects a second
// action on the same (sender, receiver) pair with gorm.ErrDuplicatedKey
// (requires TranslateError).
func (r *ActionRepository) Create(ctx context.Context, action *db.Action) error {
	return r.db.WithContext(ctx).Create(action).Error
}

// Find returns the action sender -> receiver, or nil if there is none.
func (r *ActionRepository) Find(ctx context.Context, senderID, receiverID uint64) (*db.Action, error) {
	return r.find(ctx, senderID, receiverID, false)
}

// FindForUpdate is Find with a row lock, for re-checks right before a write.
func (r *ActionRepository) FindForUpdate(ctx context.Context, senderID, receiverID uint64) (*db.Action, error) {
	return r.find(ctx, senderID, receiverID, true)
}

func (r *ActionRepository) find(ctx context.Context, senderID, receiverID uint64, lock bool) (*db.Action, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rows []db.Action
	err := q.Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Latest returns the sender's most recent action (highest Seq), or nil if
// there is none.
func (r *ActionRepository) Latest(ctx context.Context, senderID uint64) (*db.Action, error) {
	var rows []db.Action
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("seq DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Delete removes sender -> receiver and reports how many rows went away.
func (r *ActionRepository) Delete(ctx context.Context, senderID, receiverID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Delete(&db.Action{})
	return res.RowsAffected, res.Error
}

// ActedOnIDs lists every user the sender has any action on.
func (r *ActionRepository) ActedOnIDs(ctx context.Context, senderID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Action{}).
		Where("sender_id = ?", senderID).
		Pluck("receiver_id", &ids).Error
	return ids, err
}

// HasLiked checks whether an actor has liked (or super-liked) a recipient.
func (r *ActionRepository) HasLiked(ctx context.Context, actorID, recipientID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Action{}).
		Where("sender_id = ? AND receiver_id = ? AND kind IN ?", actorID, recipientID, domain.PositiveKinds()).
		Count(&count).Error
	return count > 0, err
}

// pendingLikers is the shared base of ListLikers and CountPendingLikers:
// positive actions aimed at recipient, from active users, that the
// recipient has not acted on yet.
func (r *ActionRepository) pendingLikers(ctx context.Context, recipientID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("actions a").
		Joins("JOIN users u ON u.id = a.sender_id AND u.active = ?", true).
		Where("a.receiver_id = ? AND a.kind IN ?", recipientID, domain.PositiveKinds()).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM actions a2
				WHERE a2.sender_id = ?
				  AND a2.receiver_id = a.sender_id
			)`, recipientID)
}

// ListLikers returns the actions of users who liked the recipient and are
// still waiting for an answer.
//
// Behavior:
//   - Only LIKE and SUPER_LIKE count.
//   - Excludes users the recipient already liked or passed.
//   - Ordered by created_at DESC, sender_id DESC.
//   - Offset pagination.
func (r *ActionRepository) ListLikers(ctx context.Context, recipientID uint64, limit, offset int) ([]db.Action, error) {
	var actions []db.Action
	err := r.pendingLikers(ctx, recipientID).
		Select("a.sender_id, a.receiver_id, a.kind, a.created_at").
		Order("a.created_at DESC, a.sender_id DESC").
		Limit(limit).
		Offset(offset).
		Find(&actions).Error
	return actions, err
}

// CountPendingLikers counts what ListLikers would page through.
// Used in conjunction with the Redis cache (DB is fallback).
func (r *ActionRepository) CountPendingLikers(ctx context.Context, recipientID uint64) (int64, error) {
	var count int64
	if err := r.pendingLikers(ctx, recipientID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
