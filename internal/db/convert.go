package db

import "github.com/oggyb/matchmaking/internal/domain"

// Profile maps a loaded user into the scoring view. Photos and Interests
// must be preloaded for PhotoCount and Interests to be meaningful.
func (u *User) Profile() domain.Profile {
	p := domain.Profile{
		ID:                     u.ID,
		Username:               u.Username,
		Gender:                 u.Gender,
		InterestedIn:           u.GenderInterest(),
		BirthDate:              u.BirthDate,
		LastActiveAt:           u.LastActiveAt,
		IsPremium:              u.IsPremium,
		Bio:                    deref(u.Bio),
		Education:              deref(u.Education),
		Profession:             deref(u.Profession),
		Smoking:                deref(u.Smoking),
		Drinking:               deref(u.Drinking),
		Languages:              []string(u.Languages),
		RelationshipTypes:      []domain.RelationshipType(u.RelationshipTypes),
		PhotoCount:             len(u.Photos),
		Interests:              u.InterestNames(),
		PreferredAgeMin:        u.PreferredAgeMin,
		PreferredAgeMax:        u.PreferredAgeMax,
		PreferredMaxDistanceKm: u.PreferredMaxDistanceKm,
	}
	if u.HeightCm != nil {
		p.HeightCm = *u.HeightCm
	}
	if u.Latitude != nil && u.Longitude != nil {
		p.Location = &domain.Coordinates{Latitude: *u.Latitude, Longitude: *u.Longitude}
	}
	return p
}

// InterestNames flattens the interest relation.
func (u *User) InterestNames() []string {
	if len(u.Interests) == 0 {
		return nil
	}
	names := make([]string, len(u.Interests))
	for i, in := range u.Interests {
		names[i] = in.Name
	}
	return names
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
