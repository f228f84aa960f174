package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/matchmaking/internal/domain"
	"github.com/oggyb/matchmaking/internal/scoring"
)

func ids(list []scoring.Scored) []uint64 {
	out := make([]uint64, len(list))
	for i, s := range list {
		out[i] = s.Profile.ID
	}
	return out
}

func scored(id uint64, mutual bool, score float64, lastActive time.Time) scoring.Scored {
	return scoring.Scored{
		Profile: domain.Profile{ID: id, LastActiveAt: lastActive},
		Mutual:  mutual,
		Score:   score,
	}
}

func TestRank_Order(t *testing.T) {
	list := []scoring.Scored{
		scored(1, false, 500, now),
		scored(2, true, 120, now.Add(-time.Hour)),
		scored(3, true, 150, now.Add(-48*time.Hour)),
		scored(4, true, 120, now),
		scored(5, true, 120, now),
	}
	scoring.Rank(list)
	assert.Equal(t, []uint64{3, 4, 5, 2, 1}, ids(list))
}

func TestApplyStrict_NoStrictIsIdentity(t *testing.T) {
	list := []scoring.Scored{scored(1, true, 1, now), scored(2, true, 2, now)}
	out := scoring.ApplyStrict(list, domain.Filters{}, params())
	assert.Equal(t, []uint64{1, 2}, ids(out))
}

func TestApplyStrict_PartitionKeepsOrder(t *testing.T) {
	p := params()
	mk := func(id uint64, age int) scoring.Scored {
		s := scored(id, true, float64(100-id), now)
		s.Profile.BirthDate = born(age)
		s.Age = age
		return s
	}
	list := []scoring.Scored{mk(1, 40), mk(2, 30), mk(3, 50), mk(4, 26)}

	out := scoring.ApplyStrict(list, domain.Filters{StrictAge: true}, p)
	assert.Equal(t, []uint64{2, 4, 1, 3}, ids(out))
}

func TestPassesStrict_Distance(t *testing.T) {
	p := params()
	near, far := 10.0, 60.0

	s := scored(1, true, 0, now)
	f := domain.Filters{StrictDistance: true}

	s.DistanceKm = &near
	assert.True(t, scoring.PassesStrict(s, f, p))
	s.DistanceKm = &far
	assert.False(t, scoring.PassesStrict(s, f, p))
	s.DistanceKm = nil
	assert.True(t, scoring.PassesStrict(s, f, p), "unknown distance passes")
}

func TestPassesStrict_SetFilters(t *testing.T) {
	p := params()
	f := domain.Filters{
		RelationshipTypes:      []domain.RelationshipType{domain.RelationshipLongTerm},
		StrictRelationshipType: true,
		Smoking:                []string{"never"},
		StrictSmoking:          true,
		Languages:              []string{"en", "fr"},
		StrictLanguages:        true,
	}

	s := scored(1, true, 0, now)
	assert.True(t, scoring.PassesStrict(s, f, p), "all fields unset pass")

	s.Profile.Smoking = "Never"
	s.Profile.Languages = []string{"FR"}
	s.Profile.RelationshipTypes = []domain.RelationshipType{domain.RelationshipCasual, domain.RelationshipLongTerm}
	assert.True(t, scoring.PassesStrict(s, f, p))

	s.Profile.Smoking = "daily"
	assert.False(t, scoring.PassesStrict(s, f, p))

	s.Profile.Smoking = ""
	s.Profile.Languages = []string{"de"}
	assert.False(t, scoring.PassesStrict(s, f, p))

	s.Profile.Languages = nil
	s.Profile.RelationshipTypes = []domain.RelationshipType{domain.RelationshipCasual}
	assert.False(t, scoring.PassesStrict(s, f, p))
}

func TestPassesStrict_SoftFlagsIgnored(t *testing.T) {
	p := params()
	s := scored(1, true, 0, now)
	s.Profile.Education = "none"
	s.Profile.BirthDate = born(70)
	s.Age = 70

	f := domain.Filters{Education: []string{"PhD"}}
	assert.True(t, scoring.PassesStrict(s, f, p))

	f.StrictEducation = true
	assert.False(t, scoring.PassesStrict(s, f, p))
	f.StrictEducation = false
	f.StrictAge = true
	assert.False(t, scoring.PassesStrict(s, f, p))
}
