package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Gender is a user's declared gender.
type Gender string

const (
	GenderMale      Gender = "MALE"
	GenderFemale    Gender = "FEMALE"
	GenderNonBinary Gender = "NON_BINARY"
)

var allGenders = []Gender{GenderMale, GenderFemale, GenderNonBinary}

// ParseGender accepts any casing ("female", "Female", "FEMALE").
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	if g.bit() == 0 {
		return "", fmt.Errorf("unknown gender %q", s)
	}
	return g, nil
}

func (g Gender) Valid() bool { return g.bit() != 0 }

func (g Gender) bit() GenderSet {
	for i, known := range allGenders {
		if g == known {
			return 1 << uint(i)
		}
	}
	return 0
}

// Bit returns the mask bit used to persist g inside a GenderSet.
func (g Gender) Bit() uint8 { return uint8(g.bit()) }

// GenderSet is a bitmask of genders.
type GenderSet uint8

func NewGenderSet(genders ...Gender) GenderSet {
	var s GenderSet
	for _, g := range genders {
		s |= g.bit()
	}
	return s
}

func (s GenderSet) Has(g Gender) bool { return g.bit() != 0 && s&g.bit() != 0 }

func (s GenderSet) Empty() bool { return s == 0 }

// Genders lists the members in a stable order.
func (s GenderSet) Genders() []Gender {
	out := make([]Gender, 0, len(allGenders))
	for _, g := range allGenders {
		if s.Has(g) {
			out = append(out, g)
		}
	}
	return out
}

// GenderInterest is who a user wants to see: everyone, or a specific set.
// The zero value is Specific with no genders and accepts nobody.
type GenderInterest struct {
	everyone bool
	genders  GenderSet
}

// Everyone matches any gender.
func Everyone() GenderInterest { return GenderInterest{everyone: true} }

// Specific matches only the listed genders.
func Specific(genders ...Gender) GenderInterest {
	return GenderInterest{genders: NewGenderSet(genders...)}
}

// GenderInterestFromMask rebuilds the variant from its persisted form.
func GenderInterestFromMask(everyone bool, mask uint8) GenderInterest {
	if everyone {
		return Everyone()
	}
	return GenderInterest{genders: GenderSet(mask)}
}

func (gi GenderInterest) IsEveryone() bool { return gi.everyone }

// Genders returns the specific genders; nil for Everyone.
func (gi GenderInterest) Genders() []Gender {
	if gi.everyone {
		return nil
	}
	return gi.genders.Genders()
}

// Mask returns the persisted bitmask (0 for Everyone).
func (gi GenderInterest) Mask() uint8 {
	if gi.everyone {
		return 0
	}
	return uint8(gi.genders)
}

func (gi GenderInterest) Accepts(g Gender) bool {
	if gi.everyone {
		return true
	}
	return gi.genders.Has(g)
}

func (gi GenderInterest) String() string {
	if gi.everyone {
		return "EVERYONE"
	}
	names := make([]string, 0, 3)
	for _, g := range gi.genders.Genders() {
		names = append(names, string(g))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// MutuallyCompatible reports whether each side is interested in the other's gender.
func MutuallyCompatible(aGender Gender, aWants GenderInterest, bGender Gender, bWants GenderInterest) bool {
	return aWants.Accepts(bGender) && bWants.Accepts(aGender)
}
