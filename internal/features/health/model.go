package health

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

func (i Intensity) Valid() bool {
	return i == IntensityLow || i == IntensityMedium || i == IntensityHigh
}

type SleepQuality string

const (
	SleepPoor      SleepQuality = "poor"
	SleepFair      SleepQuality = "fair"
	SleepGood      SleepQuality = "good"
	SleepExcellent SleepQuality = "excellent"
)

func (q SleepQuality) Valid() bool {
	switch q {
	case SleepPoor, SleepFair, SleepGood, SleepExcellent:
		return true
	}
	return false
}

type Mood string

const (
	MoodVerySad   Mood = "very_sad"
	MoodSad       Mood = "sad"
	MoodNeutral   Mood = "neutral"
	MoodHappy     Mood = "happy"
	MoodVeryHappy Mood = "very_happy"
)

var moods = []Mood{MoodVerySad, MoodSad, MoodNeutral, MoodHappy, MoodVeryHappy}

func (m Mood) Valid() bool {
	for _, v := range moods {
		if m == v {
			return true
		}
	}
	return false
}

type Activity struct {
	Type      string    `bson:"type" json:"type" example:"walk"`
	Duration  int       `bson:"duration" json:"duration" example:"30"` // minutes
	Intensity Intensity `bson:"intensity" json:"intensity" example:"medium"`
	Calories  *float64  `bson:"calories,omitempty" json:"calories,omitempty"`
}

type Sleep struct {
	Hours   float64      `bson:"hours" json:"hours" example:"11.5"`
	Quality SleepQuality `bson:"quality" json:"quality" example:"good"`
}

type Feeding struct {
	FoodType string  `bson:"foodType" json:"foodType" example:"dry kibble"`
	Amount   float64 `bson:"amount" json:"amount" example:"250"` // grams
	Times    int     `bson:"times" json:"times" example:"2"`
}

type Water struct {
	Amount float64 `bson:"amount" json:"amount" example:"600"` // ml
}

type Medication struct {
	Name      string     `bson:"name" json:"name"`
	Dosage    string     `bson:"dosage" json:"dosage"`
	Frequency string     `bson:"frequency,omitempty" json:"frequency,omitempty"`
	StartDate time.Time  `bson:"startDate" json:"startDate"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
}

// ActiveAt reports whether the course has not ended at now.
func (m Medication) ActiveAt(now time.Time) bool {
	return m.EndDate == nil || m.EndDate.After(now)
}

type Vitals struct {
	Temperature     *float64 `bson:"temperature,omitempty" json:"temperature,omitempty"`
	HeartRate       *float64 `bson:"heartRate,omitempty" json:"heartRate,omitempty"`
	RespiratoryRate *float64 `bson:"respiratoryRate,omitempty" json:"respiratoryRate,omitempty"`
}

// Record is one dated observation of a pet. OwnerID is copied from the pet
// when the record is created so every lookup can match on it directly.
type Record struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PetID       primitive.ObjectID `bson:"petId" json:"petId"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"-"`
	Date        time.Time          `bson:"date" json:"date"`
	Weight      *float64           `bson:"weight,omitempty" json:"weight,omitempty"`
	Height      *float64           `bson:"height,omitempty" json:"height,omitempty"`
	Activity    *Activity          `bson:"activity,omitempty" json:"activity,omitempty"`
	Sleep       *Sleep             `bson:"sleep,omitempty" json:"sleep,omitempty"`
	Feeding     *Feeding           `bson:"feeding,omitempty" json:"feeding,omitempty"`
	Water       *Water             `bson:"water,omitempty" json:"water,omitempty"`
	Mood        Mood               `bson:"mood,omitempty" json:"mood,omitempty"`
	Symptoms    []string           `bson:"symptoms" json:"symptoms"`
	Medications []Medication       `bson:"medications" json:"medications"`
	Vitals      *Vitals            `bson:"vitals,omitempty" json:"vitals,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Version     int64              `bson:"version" json:"version"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (r *Record) normalize() {
	if r.Symptoms == nil {
		r.Symptoms = []string{}
	}
	if r.Medications == nil {
		r.Medications = []Medication{}
	}
}

// Patch holds the sections an owner may replace. A nil field is left alone.
type Patch struct {
	Date        *time.Time
	Weight      *float64
	Height      *float64
	Activity    *Activity
	Sleep       *Sleep
	Feeding     *Feeding
	Water       *Water
	Mood        *Mood
	Symptoms    *[]string
	Medications *[]Medication
	Vitals      *Vitals
	Notes       *string
}

func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Weight == nil && p.Height == nil && p.Activity == nil &&
		p.Sleep == nil && p.Feeding == nil && p.Water == nil && p.Mood == nil &&
		p.Symptoms == nil && p.Medications == nil && p.Vitals == nil && p.Notes == nil
}

func (p Patch) Apply(r *Record) {
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Weight != nil {
		w := *p.Weight
		r.Weight = &w
	}
	if p.Height != nil {
		h := *p.Height
		r.Height = &h
	}
	if p.Activity != nil {
		a := *p.Activity
		r.Activity = &a
	}
	if p.Sleep != nil {
		s := *p.Sleep
		r.Sleep = &s
	}
	if p.Feeding != nil {
		f := *p.Feeding
		r.Feeding = &f
	}
	if p.Water != nil {
		w := *p.Water
		r.Water = &w
	}
	if p.Mood != nil {
		r.Mood = *p.Mood
	}
	if p.Symptoms != nil {
		r.Symptoms = append([]string{}, (*p.Symptoms)...)
	}
	if p.Medications != nil {
		r.Medications = append([]Medication{}, (*p.Medications)...)
	}
	if p.Vitals != nil {
		v := *p.Vitals
		r.Vitals = &v
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
}

// MedicationInput carries dates as strings so both YYYY-MM-DD and RFC 3339
// are accepted.
type MedicationInput struct {
	Name      string  `json:"name" example:"Apoquel"`
	Dosage    string  `json:"dosage" example:"16mg"`
	Frequency string  `json:"frequency" example:"once a day"`
	StartDate string  `json:"startDate" example:"2024-03-01"`
	EndDate   *string `json:"endDate" example:"2024-03-15"`
}

// CreateRecordRequest has no pet or owner field; both come from the path
// and the token. Date defaults to now.
type CreateRecordRequest struct {
	Date        string            `json:"date" example:"2024-03-02"`
	Weight      *float64          `json:"weight" example:"25.4"`
	Height      *float64          `json:"height"`
	Activity    *Activity         `json:"activity"`
	Sleep       *Sleep            `json:"sleep"`
	Feeding     *Feeding          `json:"feeding"`
	Water       *Water            `json:"water"`
	Mood        Mood              `json:"mood" example:"happy"`
	Symptoms    []string          `json:"symptoms"`
	Medications []MedicationInput `json:"medications"`
	Vitals      *Vitals           `json:"vitals"`
	Notes       string            `json:"notes"`
}

type UpdateRecordRequest struct {
	Date        *string            `json:"date"`
	Weight      *float64           `json:"weight"`
	Height      *float64           `json:"height"`
	Activity    *Activity          `json:"activity"`
	Sleep       *Sleep             `json:"sleep"`
	Feeding     *Feeding           `json:"feeding"`
	Water       *Water             `json:"water"`
	Mood        *Mood              `json:"mood"`
	Symptoms    *[]string          `json:"symptoms"`
	Medications *[]MedicationInput `json:"medications"`
	Vitals      *Vitals            `json:"vitals"`
	Notes       *string            `json:"notes"`
	Version     *int64             `json:"version"`
}

type ListRecordsQuery struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	From  string `form:"from"`
	To    string `form:"to"`
}

type WindowQuery struct {
	Days int `form:"days"`
}

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

type SymptomCount struct {
	Symptom string `json:"symptom"`
	Count   int    `json:"count"`
}

// Stats summarises the records of one pet over a window of days.
type Stats struct {
	Days                 int            `json:"days"`
	TotalRecords         int            `json:"totalRecords"`
	LatestWeight         *float64       `json:"latestWeight,omitempty"`
	AverageWeight        *float64       `json:"averageWeight,omitempty"`
	WeightTrend          Trend          `json:"weightTrend"`
	ActivityCount        int            `json:"activityCount"`
	TotalActivityMinutes int            `json:"totalActivityMinutes"`
	AverageSleepHours    float64        `json:"averageSleepHours"`
	AverageWaterIntake   float64        `json:"averageWaterIntake"`
	MoodDistribution     map[Mood]int   `json:"moodDistribution"`
	CommonSymptoms       []SymptomCount `json:"commonSymptoms"`
	RecentVitals         *Vitals        `json:"recentVitals,omitempty"`
}

type WeightPoint struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
}

// DayActivity groups the activities of one calendar day (UTC).
type DayActivity struct {
	Date          string     `json:"date" example:"2024-03-02"`
	TotalMinutes  int        `json:"totalMinutes"`
	TotalCalories float64    `json:"totalCalories"`
	Activities    []Activity `json:"activities"`
}

type AlertLevel string

const (
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
)

type Alert struct {
	Type     AlertLevel `json:"type"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Priority string     `json:"priority"`
}

type UpcomingMedication struct {
	RecordID  primitive.ObjectID `json:"recordId"`
	Name      string             `json:"name"`
	Dosage    string             `json:"dosage"`
	Frequency string             `json:"frequency,omitempty"`
	StartDate time.Time          `json:"startDate"`
	EndDate   *time.Time         `json:"endDate,omitempty"`
}

// OwnerActivity counts the records an owner entered.
type OwnerActivity struct {
	OwnerID      primitive.ObjectID `bson:"_id" json:"ownerId"`
	RecordCount  int64              `bson:"recordCount" json:"recordCount"`
	LastActivity time.Time          `bson:"lastActivity" json:"lastActivity"`
}
