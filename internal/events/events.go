package events

import (
	"context"
	"fmt"
)

// Event types published by the matchmaking core.
const (
	MatchNew        = "match:new"
	LikeUndone      = "like:undone"
	LikedYouRemoved = "liked_you:removed"
	MatchRemoved    = "match:removed"
)

// Emitter notifies a user about something that happened to them.
//
// Emit is fire-and-forget: it is called after the write has committed and
// never reports failure back to the caller. Payload values must be plain
// JSON-able scalars, strings, slices of any or nested maps.
type Emitter interface {
	Emit(ctx context.Context, eventType string, targetUserID uint64, payload map[string]any)
}

// Channel is the pub/sub channel a user's events go to.
func Channel(userID uint64) string {
	return fmt.Sprintf("events:user:%d", userID)
}

// NopEmitter drops everything.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, uint64, map[string]any) {}
