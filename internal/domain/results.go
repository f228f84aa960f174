package domain

import "time"

// ScoreBreakdown lists every weighted term that went into a candidate's score.
type ScoreBreakdown struct {
	MutualInterest      float64 `json:"mutual_interest"`
	AgeFit              float64 `json:"age_fit"`
	GeographicFit       float64 `json:"geographic_fit"`
	SharedInterests     float64 `json:"shared_interests"`
	RelationshipOverlap float64 `json:"relationship_overlap"`
	RecentActivity      float64 `json:"recent_activity"`
	ProfileCompleteness float64 `json:"profile_completeness"`
	PremiumBoost        float64 `json:"premium_boost"`
}

// Total sums all terms.
func (b ScoreBreakdown) Total() float64 {
	return b.MutualInterest + b.AgeFit + b.GeographicFit + b.SharedInterests +
		b.RelationshipOverlap + b.RecentActivity + b.ProfileCompleteness + b.PremiumBoost
}

// ScoredCandidate is one entry of a discovery batch.
type ScoredCandidate struct {
	User                    PublicUser     `json:"user"`
	Age                     int            `json:"age"`
	DistanceKm              *float64       `json:"distance_km,omitempty"`
	Score                   float64        `json:"score"`
	Breakdown               ScoreBreakdown `json:"score_breakdown"`
	SharedInterestCount     int            `json:"shared_interest_count"`
	MatchesMutualPreference bool           `json:"matches_mutual_preference"`
}

// Action is a recorded swipe.
type Action struct {
	SenderID   uint64     `json:"sender_id"`
	ReceiverID uint64     `json:"receiver_id"`
	Kind       ActionKind `json:"kind"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Match is an undirected pair; User1ID is always the smaller id.
type Match struct {
	ID        uint64    `json:"id"`
	User1ID   uint64    `json:"user1_id"`
	User2ID   uint64    `json:"user2_id"`
	IsActive  bool      `json:"is_active"`
	MatchedAt time.Time `json:"matched_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Other returns the partner of userID in m.
func (m Match) Other(userID uint64) uint64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// CanonicalPair orders two ids so the smaller comes first.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// ActionResult is returned by RecordAction and RecordPass.
type ActionResult struct {
	Action  Action `json:"action"`
	IsMatch bool   `json:"is_match"`
	Match   *Match `json:"match,omitempty"`
}

// UndoResult describes what an undo reverted.
type UndoResult struct {
	Action           Action `json:"action"`
	MatchDeactivated bool   `json:"match_deactivated"`
	Match            *Match `json:"match,omitempty"`
}

// Liker is one entry in the who-liked-me feed.
type Liker struct {
	User      PublicUser `json:"user"`
	Age       int        `json:"age"`
	Interests []string   `json:"interests"`
	Kind      ActionKind `json:"kind"`
	LikedAt   time.Time  `json:"liked_at"`
}

// WhoLikedMe is a page of likers plus the two counters.
type WhoLikedMe struct {
	Likers       []Liker `json:"likers"`
	TotalLikes   int64   `json:"total_likes"`
	PendingCount int64   `json:"pending_count"`
}

// MatchSummary is an active match seen from one side.
type MatchSummary struct {
	Match   Match      `json:"match"`
	Partner PublicUser `json:"partner"`
	Age     int        `json:"age"`
}
