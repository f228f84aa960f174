package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaking/internal/domain"
)

// User table.
//
// Profile fields are owned by the profile subsystem; the matchmaking core
// only reads them, except for the TotalLikes/TotalMatches counters.
//
// Genders of interest are stored as a tagged pair: InterestedInEveryone, or
// a bitmask of domain.Gender bits in InterestedInMask. Both are queryable in
// SQL on MySQL and SQLite (bitwise AND).
type User struct {
	ID           uint64        `gorm:"primaryKey;autoIncrement"`
	Username     string        `gorm:"uniqueIndex;size:64;not null"`
	Email        string        `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string        `gorm:"size:255;not null"`
	Active       bool          `gorm:"default:true;index:idx_active_last_seen,priority:1"`
	LastActiveAt time.Time     `gorm:"index:idx_active_last_seen,priority:2,sort:desc"`
	Gender       domain.Gender `gorm:"size:16;not null"`

	InterestedInEveryone bool  `gorm:"not null;default:false"`
	InterestedInMask     uint8 `gorm:"not null;default:0"`

	BirthDate time.Time `gorm:"not null"`
	Latitude  *float64
	Longitude *float64
	IsPremium bool `gorm:"not null;default:false"`

	Bio        *string `gorm:"type:text"`
	Education  *string `gorm:"size:64"`
	Profession *string `gorm:"size:128"`
	HeightCm   *int
	Smoking    *string `gorm:"size:32"`
	Drinking   *string `gorm:"size:32"`

	Languages         datatypes.JSONSlice[string]
	RelationshipTypes datatypes.JSONSlice[domain.RelationshipType]

	PreferredAgeMin        *int
	PreferredAgeMax        *int
	PreferredMaxDistanceKm *float64

	TotalLikes   int64 `gorm:"not null;default:0"`
	TotalMatches int64 `gorm:"not null;default:0"`

	Photos    []Photo    `gorm:"constraint:OnDelete:CASCADE"`
	Interests []Interest `gorm:"many2many:user_interests"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// GenderInterest rebuilds the tagged variant from its columns.
func (u *User) GenderInterest() domain.GenderInterest {
	return domain.GenderInterestFromMask(u.InterestedInEveryone, u.InterestedInMask)
}

// SetGenderInterest stores the tagged variant into its columns.
func (u *User) SetGenderInterest(gi domain.GenderInterest) {
	u.InterestedInEveryone = gi.IsEveryone()
	u.InterestedInMask = gi.Mask()
}

// Photo only matters to the core as a count.
type Photo struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"index;not null"`
	URL       string    `gorm:"size:512;not null"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Interest is a named hobby/topic shared between users.
type Interest struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex;size:64;not null"`
}

// Action represents a sender's swipe on a receiver.
//
// Composite PK: (SenderID, ReceiverID)
//   - At most one action per ordered pair. Never updated in place; removed
//     only by undo.
//
// Seq numbers a sender's actions in insertion order (1, 2, ...). Timestamps
// are millisecond precision and can tie; Seq cannot, so "latest action"
// is the highest Seq.
//
// Indexes:
//   - idx_receiver_kind_created(receiver_id, kind, created_at DESC)
//     Serves the "who liked me" feed and its counts.
//   - idx_sender_seq(sender_id, seq) unique
//     Finds a user's most recent action for undo.
type Action struct {
	SenderID   uint64            `gorm:"primaryKey;autoIncrement:false;uniqueIndex:idx_sender_seq,priority:1"`
	ReceiverID uint64            `gorm:"primaryKey;autoIncrement:false;index:idx_receiver_kind_created,priority:1"`
	Seq        uint64            `gorm:"not null;default:0;uniqueIndex:idx_sender_seq,priority:2"`
	Kind       domain.ActionKind `gorm:"size:16;not null;index:idx_receiver_kind_created,priority:2"`
	CreatedAt  time.Time         `gorm:"autoCreateTime;index:idx_receiver_kind_created,priority:3,sort:desc"`
}

// BeforeCreate assigns the next Seq for the sender unless one is set.
// Writers hold the sender's row lock (or SQLite's single write lock), so
// MAX+1 cannot be taken twice; the unique index backs that up.
func (a *Action) BeforeCreate(tx *gorm.DB) error {
	if a.Seq != 0 {
		return nil
	}
	var last uint64
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&Action{}).
		Select("COALESCE(MAX(seq), 0)").
		Where("sender_id = ?", a.SenderID).
		Scan(&last).Error
	if err != nil {
		return err
	}
	a.Seq = last + 1
	return nil
}

func (a Action) ToDomain() domain.Action {
	return domain.Action{
		SenderID:   a.SenderID,
		ReceiverID: a.ReceiverID,
		Kind:       a.Kind,
		CreatedAt:  a.CreatedAt,
	}
}

// Match is the undirected pair materialized by mutual likes.
//
// User1ID < User2ID always. idx_match_pair is unique, so there is at most one
// row per unordered pair; a deactivated row is reactivated if the pair
// matches again. Rows are never hard-deleted.
type Match struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	User2ID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index:idx_match_user2"`
	IsActive  bool      `gorm:"not null;default:true"`
	MatchedAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (m Match) ToDomain() domain.Match {
	return domain.Match{
		ID:        m.ID,
		User1ID:   m.User1ID,
		User2ID:   m.User2ID,
		IsActive:  m.IsActive,
		MatchedAt: m.MatchedAt,
		CreatedAt: m.CreatedAt,
	}
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&User{}, &Photo{}, &Interest{}, &Action{}, &Match{}}
}
