package health

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxSymptoms    = 20
	maxMedications = 20
	maxNotesLength = 1000
)

type bounds struct{ min, max float64 }

func (b bounds) has(v float64) bool { return v >= b.min && v <= b.max }

var (
	weightBounds      = bounds{0.1, 200}
	heightBounds      = bounds{1, 300}
	durationBounds    = bounds{1, 1440}
	caloriesBounds    = bounds{0, 10000}
	sleepBounds       = bounds{0.5, 24}
	foodBounds        = bounds{1, 5000}
	feedingTimes      = bounds{1, 20}
	waterBounds       = bounds{1, 5000}
	temperatureBounds = bounds{30, 45}
	heartRateBounds   = bounds{20, 300}
	respiratoryBounds = bounds{5, 100}
)

func textLen(s string, min, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= min && n <= max
}

// ValidateRecord checks a record as it would be stored.
func ValidateRecord(r *Record, now time.Time) []string {
	var details []string
	add := func(format string, args ...any) {
		details = append(details, fmt.Sprintf(format, args...))
	}

	if r.Date.IsZero() {
		add("date is required")
	} else if r.Date.After(now) {
		add("date cannot be in the future")
	}
	if r.Weight != nil && !weightBounds.has(*r.Weight) {
		add("weight must be between %gkg and %gkg", weightBounds.min, weightBounds.max)
	}
	if r.Height != nil && !heightBounds.has(*r.Height) {
		add("height must be between %gcm and %gcm", heightBounds.min, heightBounds.max)
	}

	if a := r.Activity; a != nil {
		if !textLen(a.Type, 1, 100) {
			add("activity.type must be 1 to 100 characters")
		}
		if !durationBounds.has(float64(a.Duration)) {
			add("activity.duration must be between 1 and 1440 minutes")
		}
		if !a.Intensity.Valid() {
			add("activity.intensity must be one of: low, medium, high")
		}
		if a.Calories != nil && !caloriesBounds.has(*a.Calories) {
			add("activity.calories must be between 0 and 10000")
		}
	}
	if s := r.Sleep; s != nil {
		if !sleepBounds.has(s.Hours) {
			add("sleep.hours must be between 0.5 and 24")
		}
		if !s.Quality.Valid() {
			add("sleep.quality must be one of: poor, fair, good, excellent")
		}
	}
	if f := r.Feeding; f != nil {
		if !textLen(f.FoodType, 1, 200) {
			add("feeding.foodType must be 1 to 200 characters")
		}
		if !foodBounds.has(f.Amount) {
			add("feeding.amount must be between 1g and 5000g")
		}
		if !feedingTimes.has(float64(f.Times)) {
			add("feeding.times must be between 1 and 20")
		}
	}
	if r.Water != nil && !waterBounds.has(r.Water.Amount) {
		add("water.amount must be between 1ml and 5000ml")
	}
	if r.Mood != "" && !r.Mood.Valid() {
		add("mood must be one of: very_sad, sad, neutral, happy, very_happy")
	}

	if len(r.Symptoms) > maxSymptoms {
		add("symptoms accepts at most %d items", maxSymptoms)
	} else {
		for _, s := range r.Symptoms {
			if !textLen(s, 1, 100) {
				add("symptoms items must be 1 to 100 characters")
				break
			}
		}
	}

	if len(r.Medications) > maxMedications {
		add("medications accepts at most %d items", maxMedications)
	}
	for i, m := range r.Medications {
		if !textLen(m.Name, 1, 200) {
			add("medications[%d].name must be 1 to 200 characters", i)
		}
		if !textLen(m.Dosage, 1, 100) {
			add("medications[%d].dosage must be 1 to 100 characters", i)
		}
		if utf8.RuneCountInString(m.Frequency) > 100 {
			add("medications[%d].frequency must be at most 100 characters", i)
		}
		if m.StartDate.IsZero() {
			add("medications[%d].startDate is required", i)
		} else if m.EndDate != nil && m.EndDate.Before(m.StartDate) {
			add("medications[%d].endDate cannot be before startDate", i)
		}
	}

	if v := r.Vitals; v != nil {
		if v.Temperature != nil && !temperatureBounds.has(*v.Temperature) {
			add("vitals.temperature must be between 30 and 45 celsius")
		}
		if v.HeartRate != nil && !heartRateBounds.has(*v.HeartRate) {
			add("vitals.heartRate must be between 20 and 300 bpm")
		}
		if v.RespiratoryRate != nil && !respiratoryBounds.has(*v.RespiratoryRate) {
			add("vitals.respiratoryRate must be between 5 and 100 per minute")
		}
	}
	if utf8.RuneCountInString(r.Notes) > maxNotesLength {
		add("notes must be at most %d characters", maxNotesLength)
	}

	return details
}
