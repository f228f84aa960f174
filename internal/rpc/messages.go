package rpc

import "github.com/oggyb/matchmaking/internal/domain"

type GetCandidatesRequest struct {
	UserID     uint64         `json:"user_id"`
	Limit      int            `json:"limit"`
	ExcludeIDs []uint64       `json:"exclude_ids,omitempty"`
	Filters    domain.Filters `json:"filters"`
}

type GetCandidatesResponse struct {
	Candidates []domain.ScoredCandidate `json:"candidates"`
}

type RecordActionRequest struct {
	SenderID   uint64 `json:"sender_id"`
	ReceiverID uint64 `json:"receiver_id"`
	// Kind is LIKE, SUPER_LIKE or PASS, any casing.
	Kind string `json:"kind"`
}

type RecordPassRequest struct {
	SenderID   uint64 `json:"sender_id"`
	ReceiverID uint64 `json:"receiver_id"`
}

type UndoLastActionRequest struct {
	UserID uint64 `json:"user_id"`
}

type GetWhoLikedMeRequest struct {
	UserID uint64 `json:"user_id"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type UnmatchRequest struct {
	UserID      uint64 `json:"user_id"`
	OtherUserID uint64 `json:"other_user_id"`
}

type ListMatchesRequest struct {
	UserID uint64 `json:"user_id"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type ListMatchesResponse struct {
	Matches []domain.MatchSummary `json:"matches"`
}
