package scoring

import (
	"sort"

	"github.com/oggyb/matchmaking/internal/domain"
)

// Rank orders candidates: mutual preference first, then score, then most
// recent activity. Ties fall back to ascending id so output is deterministic.
func Rank(list []Scored) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Mutual != b.Mutual {
			return a.Mutual
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Profile.LastActiveAt.Equal(b.Profile.LastActiveAt) {
			return a.Profile.LastActiveAt.After(b.Profile.LastActiveAt)
		}
		return a.Profile.ID < b.Profile.ID
	})
}

// ApplyStrict moves every candidate failing an active strict filter behind
// the ones that pass. Both halves keep their relative order.
func ApplyStrict(list []Scored, f domain.Filters, p Params) []Scored {
	if !f.HasStrict() {
		return list
	}
	pass := make([]Scored, 0, len(list))
	var fail []Scored
	for _, s := range list {
		if PassesStrict(s, f, p) {
			pass = append(pass, s)
		} else {
			fail = append(fail, s)
		}
	}
	return append(pass, fail...)
}

// PassesStrict checks every active strict filter. A candidate with no value
// for a filtered field passes that filter.
func PassesStrict(s Scored, f domain.Filters, p Params) bool {
	if f.StrictAge && !s.Profile.BirthDate.IsZero() && !p.AgeRange.Contains(s.Age) {
		return false
	}
	if f.StrictDistance && s.DistanceKm != nil && *s.DistanceKm > p.MaxDistanceKm {
		return false
	}
	if f.StrictRelationshipType && len(f.RelationshipTypes) > 0 && len(s.Profile.RelationshipTypes) > 0 &&
		!domain.RelationshipTypesIntersect(f.RelationshipTypes, s.Profile.RelationshipTypes) {
		return false
	}
	if f.StrictEducation && !oneOf(s.Profile.Education, f.Education) {
		return false
	}
	if f.StrictSmoking && !oneOf(s.Profile.Smoking, f.Smoking) {
		return false
	}
	if f.StrictDrinking && !oneOf(s.Profile.Drinking, f.Drinking) {
		return false
	}
	if f.StrictLanguages && len(f.Languages) > 0 && len(s.Profile.Languages) > 0 &&
		CountShared(f.Languages, s.Profile.Languages) == 0 {
		return false
	}
	return true
}

// oneOf treats an empty value or an empty accepted set as a pass.
func oneOf(value string, accepted []string) bool {
	if len(accepted) == 0 || normalize(value) == "" {
		return true
	}
	for _, a := range accepted {
		if normalize(a) == normalize(value) {
			return true
		}
	}
	return false
}
