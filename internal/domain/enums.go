package domain

import (
	"fmt"
	"strings"
)

// RelationshipType is what a user is looking for.
type RelationshipType string

const (
	RelationshipLongTerm   RelationshipType = "LONG_TERM"
	RelationshipShortTerm  RelationshipType = "SHORT_TERM"
	RelationshipCasual     RelationshipType = "CASUAL"
	RelationshipFriendship RelationshipType = "FRIENDSHIP"
	RelationshipMarriage   RelationshipType = "MARRIAGE"
	RelationshipUnsure     RelationshipType = "UNSURE"
)

func (r RelationshipType) Valid() bool {
	switch r {
	case RelationshipLongTerm, RelationshipShortTerm, RelationshipCasual,
		RelationshipFriendship, RelationshipMarriage, RelationshipUnsure:
		return true
	}
	return false
}

func ParseRelationshipType(s string) (RelationshipType, error) {
	r := RelationshipType(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown relationship type %q", s)
	}
	return r, nil
}

// RelationshipTypesIntersect reports whether a and b share at least one value.
func RelationshipTypesIntersect(a, b []RelationshipType) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[RelationshipType]struct{}, len(a))
	for _, r := range a {
		seen[r] = struct{}{}
	}
	for _, r := range b {
		if _, ok := seen[r]; ok {
			return true
		}
	}
	return false
}

// ActionKind is the direction-bearing swipe one user records on another.
type ActionKind string

const (
	ActionLike      ActionKind = "LIKE"
	ActionPass      ActionKind = "PASS"
	ActionSuperLike ActionKind = "SUPER_LIKE"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionLike, ActionPass, ActionSuperLike:
		return true
	}
	return false
}

// IsPositive is true for the kinds that count as a like.
func (k ActionKind) IsPositive() bool {
	return k == ActionLike || k == ActionSuperLike
}

func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown action kind %q", s)
	}
	return k, nil
}

// PositiveKinds lists the kinds that count as a like, for SQL IN clauses.
func PositiveKinds() []ActionKind {
	return []ActionKind{ActionLike, ActionSuperLike}
}
