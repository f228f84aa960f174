// Package scoring ranks candidate profiles against a requester.
//
// Everything here is pure: no I/O, no clocks other than the one passed in
// Params. The discovery service does retrieval and calls into this package.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/oggyb/matchmaking/internal/domain"
)

// Term bounds.
const (
	MutualInterestPoints      = 100.0
	AgeFitMax                 = 50.0
	AgePenaltyPerYear         = 5.0
	GeoFitMax                 = 40.0
	GeoPenaltyKmPerPoint      = 10.0
	SharedInterestPerItem     = 10.0
	SharedInterestMax         = 30.0
	RelationshipOverlapPoints = 20.0
	ActiveWeekPoints          = 10.0
	ActiveMonthPoints         = 5.0
	CompletenessPerField      = 2.0
	PremiumBoostPoints        = 5.0

	// EarthRadiusKm is the mean radius used by Haversine.
	EarthRadiusKm = 6371.0

	minPhotosForCompleteness = 3
)

// Params are the resolved soft preferences used for one scoring pass.
type Params struct {
	AgeRange      domain.AgeRange
	MaxDistanceKm float64
	Now           time.Time
}

// Scored is a candidate with all derived values attached.
type Scored struct {
	Profile         domain.Profile
	Age             int
	DistanceKm      *float64
	Breakdown       domain.ScoreBreakdown
	Score           float64
	SharedInterests int
	Mutual          bool
}

// Candidate converts to the sanitized value returned to callers.
func (s Scored) Candidate() domain.ScoredCandidate {
	return domain.ScoredCandidate{
		User:                    s.Profile.Public(),
		Age:                     s.Age,
		DistanceKm:              s.DistanceKm,
		Score:                   s.Score,
		Breakdown:               s.Breakdown,
		SharedInterestCount:     s.SharedInterests,
		MatchesMutualPreference: s.Mutual,
	}
}

// Evaluate computes every term for one candidate.
func Evaluate(requester, candidate domain.Profile, p Params) Scored {
	s := Scored{
		Profile: candidate,
		Age:     candidate.Age(p.Now),
		Mutual: domain.MutuallyCompatible(
			requester.Gender, requester.InterestedIn,
			candidate.Gender, candidate.InterestedIn,
		),
		SharedInterests: CountShared(requester.Interests, candidate.Interests),
	}

	b := domain.ScoreBreakdown{}
	if s.Mutual {
		b.MutualInterest = MutualInterestPoints
	}
	b.AgeFit = AgeFit(s.Age, p.AgeRange)

	if requester.Location != nil && candidate.Location != nil {
		d := Haversine(*requester.Location, *candidate.Location)
		s.DistanceKm = &d
		b.GeographicFit = GeographicFit(d, p.MaxDistanceKm)
	}

	b.SharedInterests = SharedInterestFit(s.SharedInterests)
	if domain.RelationshipTypesIntersect(requester.RelationshipTypes, candidate.RelationshipTypes) {
		b.RelationshipOverlap = RelationshipOverlapPoints
	}
	b.RecentActivity = ActivityFit(candidate.LastActiveAt, p.Now)
	b.ProfileCompleteness = CompletenessFit(candidate)
	if requester.IsPremium && candidate.IsPremium {
		b.PremiumBoost = PremiumBoostPoints
	}

	s.Breakdown = b
	s.Score = b.Total()
	return s
}

// AgeFit is full marks inside the range, minus 5 per year outside, floored at 0.
func AgeFit(age int, r domain.AgeRange) float64 {
	if r.Contains(age) {
		return AgeFitMax
	}
	return math.Max(0, AgeFitMax-AgePenaltyPerYear*float64(r.YearsOutside(age)))
}

// GeographicFit decays linearly to 0 at maxKm, then loses a point per 10 km
// beyond, floored at 0.
func GeographicFit(distanceKm, maxKm float64) float64 {
	if maxKm <= 0 {
		return 0
	}
	if distanceKm <= maxKm {
		return clamp(GeoFitMax*(1-distanceKm/maxKm), 0, GeoFitMax)
	}
	return math.Max(0, GeoFitMax-(distanceKm-maxKm)/GeoPenaltyKmPerPoint)
}

func SharedInterestFit(n int) float64 {
	return math.Min(SharedInterestMax, SharedInterestPerItem*float64(n))
}

// ActivityFit rewards users seen in the last week or month.
func ActivityFit(lastActive, now time.Time) float64 {
	if lastActive.IsZero() {
		return 0
	}
	since := now.Sub(lastActive)
	switch {
	case since <= 7*24*time.Hour:
		return ActiveWeekPoints
	case since <= 30*24*time.Hour:
		return ActiveMonthPoints
	}
	return 0
}

// CompletenessFit gives 2 points for each of bio, education, profession,
// height and having at least three photos.
func CompletenessFit(p domain.Profile) float64 {
	fields := 0
	if strings.TrimSpace(p.Bio) != "" {
		fields++
	}
	if strings.TrimSpace(p.Education) != "" {
		fields++
	}
	if strings.TrimSpace(p.Profession) != "" {
		fields++
	}
	if p.HeightCm > 0 {
		fields++
	}
	if p.PhotoCount >= minPhotosForCompleteness {
		fields++
	}
	return CompletenessPerField * float64(fields)
}

// CountShared counts case-insensitive common entries, ignoring duplicates.
func CountShared(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[normalize(v)] = struct{}{}
	}
	n := 0
	for _, v := range b {
		k := normalize(v)
		if _, ok := set[k]; ok {
			n++
			delete(set, k)
		}
	}
	return n
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b domain.Coordinates) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
