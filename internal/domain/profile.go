package domain

import "time"

// Coordinates are decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Profile is the read-only view of a user used for scoring and filtering.
// It carries no credentials.
type Profile struct {
	ID                uint64
	Username          string
	Gender            Gender
	InterestedIn      GenderInterest
	BirthDate         time.Time
	Location          *Coordinates
	LastActiveAt      time.Time
	IsPremium         bool
	Bio               string
	Education         string
	Profession        string
	HeightCm          int
	Smoking           string
	Drinking          string
	Languages         []string
	PhotoCount        int
	Interests         []string
	RelationshipTypes []RelationshipType

	PreferredAgeMin        *int
	PreferredAgeMax        *int
	PreferredMaxDistanceKm *float64
}

// Age returns whole years elapsed since BirthDate at now.
func (p Profile) Age(now time.Time) int {
	return AgeAt(p.BirthDate, now)
}

// AgeAt computes whole years between birth and now, respecting birthdays.
func AgeAt(birth, now time.Time) int {
	if birth.IsZero() {
		return 0
	}
	birth = birth.UTC()
	now = now.UTC()
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// PublicUser is what callers get back about another user: no email, no password hash.
type PublicUser struct {
	ID                uint64             `json:"id"`
	Username          string             `json:"username"`
	Gender            Gender             `json:"gender"`
	Bio               string             `json:"bio,omitempty"`
	Education         string             `json:"education,omitempty"`
	Profession        string             `json:"profession,omitempty"`
	HeightCm          int                `json:"height_cm,omitempty"`
	IsPremium         bool               `json:"is_premium"`
	LastActiveAt      time.Time          `json:"last_active_at"`
	PhotoCount        int                `json:"photo_count"`
	Interests         []string           `json:"interests,omitempty"`
	RelationshipTypes []RelationshipType `json:"relationship_types,omitempty"`
	Languages         []string           `json:"languages,omitempty"`
}

// Public strips a profile down to its public fields.
func (p Profile) Public() PublicUser {
	return PublicUser{
		ID:                p.ID,
		Username:          p.Username,
		Gender:            p.Gender,
		Bio:               p.Bio,
		Education:         p.Education,
		Profession:        p.Profession,
		HeightCm:          p.HeightCm,
		IsPremium:         p.IsPremium,
		LastActiveAt:      p.LastActiveAt,
		PhotoCount:        p.PhotoCount,
		Interests:         p.Interests,
		RelationshipTypes: p.RelationshipTypes,
		Languages:         p.Languages,
	}
}
