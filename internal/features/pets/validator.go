package pets

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xyz-asif/oipet/internal/pkg/validator"
)

type weightRange struct{ min, max float64 }

// Plausible body weight in kg per species.
var weightLimits = map[Species]weightRange{
	SpeciesDog:   {0.5, 100},
	SpeciesCat:   {0.3, 15},
	SpeciesOther: {0.1, 200},
}

const (
	maxNameLength  = 50
	maxBreedLength = 100
	maxListItems   = 20
	maxItemLength  = 100
	minHeightCM    = 1
	maxHeightCM    = 300
)

// ParseDate accepts a calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// ValidatePet checks a complete pet as it would be stored.
func ValidatePet(p *Pet, now time.Time) []string {
	var details []string

	if !validator.IsValidName(p.Name, maxNameLength) {
		details = append(details, "name must be 2 to 50 characters and contain a letter")
	}
	if !p.Species.Valid() {
		details = append(details, "species must be one of: dog, cat, other")
	}
	if !p.Gender.Valid() {
		details = append(details, "gender must be one of: male, female")
	}
	if utf8.RuneCountInString(p.Breed) > maxBreedLength {
		details = append(details, "breed must be at most 100 characters")
	}
	if p.BirthDate.IsZero() {
		details = append(details, "birthDate is required")
	} else if p.BirthDate.After(now) {
		details = append(details, "birthDate cannot be in the future")
	}
	if limits, ok := weightLimits[p.Species]; ok {
		if p.Weight < limits.min || p.Weight > limits.max {
			details = append(details, fmt.Sprintf("weight for %s must be between %gkg and %gkg", p.Species, limits.min, limits.max))
		}
	}
	if p.Height != nil && (*p.Height < minHeightCM || *p.Height > maxHeightCM) {
		details = append(details, "height must be between 1cm and 300cm")
	}
	if len(p.MicrochipID) > 50 {
		details = append(details, "microchipId must be at most 50 characters")
	}
	details = append(details, validateList("medicalConditions", p.MedicalConditions)...)
	details = append(details, validateList("allergies", p.Allergies)...)

	return details
}

func validateList(field string, items []string) []string {
	if len(items) > maxListItems {
		return []string{fmt.Sprintf("%s accepts at most %d items", field, maxListItems)}
	}
	for _, item := range items {
		if strings.TrimSpace(item) == "" || utf8.RuneCountInString(item) > maxItemLength {
			return []string{fmt.Sprintf("%s items must be 1 to %d characters", field, maxItemLength)}
		}
	}
	return nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}
