package domain

// AgeRange is an inclusive range of ages in years.
type AgeRange struct {
	Min int `json:"min" validate:"gte=18,lte=120"`
	Max int `json:"max" validate:"gte=18,lte=120,gtefield=Min"`
}

func (r AgeRange) Contains(age int) bool { return age >= r.Min && age <= r.Max }

// YearsOutside is how far age lies beyond the range (0 when inside).
func (r AgeRange) YearsOutside(age int) int {
	switch {
	case age < r.Min:
		return r.Min - age
	case age > r.Max:
		return age - r.Max
	}
	return 0
}

// Filters configures candidate discovery. Soft options only move the score;
// their Strict* flag turns them into a hard pass/fail partition.
type Filters struct {
	AgeRange  *AgeRange `json:"age_range,omitempty"`
	StrictAge bool      `json:"strict_age,omitempty"`

	MaxDistanceKm  *float64 `json:"max_distance_km,omitempty" validate:"omitempty,gt=0,lte=20000"`
	StrictDistance bool     `json:"strict_distance,omitempty"`

	// OnlyWithPhotos defaults to true when nil.
	OnlyWithPhotos *bool `json:"only_with_photos,omitempty"`

	RelationshipTypes      []RelationshipType `json:"relationship_types,omitempty" validate:"omitempty,dive,oneof=LONG_TERM SHORT_TERM CASUAL FRIENDSHIP MARRIAGE UNSURE"`
	StrictRelationshipType bool               `json:"strict_relationship_type,omitempty"`

	Education       []string `json:"education,omitempty" validate:"omitempty,dive,required,max=64"`
	StrictEducation bool     `json:"strict_education,omitempty"`

	Smoking       []string `json:"smoking,omitempty" validate:"omitempty,dive,required,max=32"`
	StrictSmoking bool     `json:"strict_smoking,omitempty"`

	Drinking       []string `json:"drinking,omitempty" validate:"omitempty,dive,required,max=32"`
	StrictDrinking bool     `json:"strict_drinking,omitempty"`

	Languages       []string `json:"languages,omitempty" validate:"omitempty,dive,required,max=32"`
	StrictLanguages bool     `json:"strict_languages,omitempty"`

	// StrictMode pushes the mutual gender-interest condition into retrieval.
	StrictMode bool `json:"strict_mode,omitempty"`
}

// PhotosRequired resolves the OnlyWithPhotos default.
func (f Filters) PhotosRequired() bool {
	return f.OnlyWithPhotos == nil || *f.OnlyWithPhotos
}

// HasStrict reports whether any strict partition applies.
func (f Filters) HasStrict() bool {
	return f.StrictAge || f.StrictDistance ||
		(f.StrictRelationshipType && len(f.RelationshipTypes) > 0) ||
		(f.StrictEducation && len(f.Education) > 0) ||
		(f.StrictSmoking && len(f.Smoking) > 0) ||
		(f.StrictDrinking && len(f.Drinking) > 0) ||
		(f.StrictLanguages && len(f.Languages) > 0)
}
