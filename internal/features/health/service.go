package health

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/internal/features/pets"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/pagination"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

const (
	day = 24 * time.Hour

	defaultStatsDays    = 30
	defaultWeightDays   = 90
	defaultActivityDays = 7
	maxWindowDays       = 365

	// Weight difference in kg between first and last weighing that still
	// counts as stable.
	trendThreshold = 0.5

	alertWindow          = 7 * day
	weightAlertWindow    = 30 * day
	recurringSymptomHits = 3
	weightChangePercent  = 10.0
	topSymptoms          = 5
)

// PetResolver loads a pet only when ownerID owns it.
type PetResolver interface {
	Get(ctx context.Context, ownerID, id primitive.ObjectID) (*pets.Pet, error)
}

var errRecordNotFound = apperrors.NotFound("health record")

type Service struct {
	store Store
	pets  PetResolver
	now   func() time.Time
}

func NewService(store Store, resolver PetResolver, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, pets: resolver, now: now}
}

// resolvePet runs before every record operation; a pet of another user is
// reported as missing.
func (s *Service) resolvePet(ctx context.Context, ownerID, petID primitive.ObjectID) (*pets.Pet, error) {
	return s.pets.Get(ctx, ownerID, petID)
}

func (s *Service) Create(ctx context.Context, ownerID, petID primitive.ObjectID, req CreateRecordRequest) (*Record, error) {
	pet, err := s.resolvePet(ctx, ownerID, petID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	date := now
	if strings.TrimSpace(req.Date) != "" {
		if date, err = pets.ParseDate(req.Date); err != nil {
			return nil, apperrors.Validation("validation failed", err.Error())
		}
	}
	meds, err := toMedications(req.Medications)
	if err != nil {
		return nil, err
	}

	record := &Record{
		PetID:       pet.ID,
		OwnerID:     pet.OwnerID,
		Date:        date,
		Weight:      req.Weight,
		Height:      req.Height,
		Activity:    req.Activity,
		Sleep:       req.Sleep,
		Feeding:     req.Feeding,
		Water:       req.Water,
		Mood:        Mood(strings.ToLower(string(req.Mood))),
		Symptoms:    cleanSymptoms(req.Symptoms),
		Medications: meds,
		Vitals:      req.Vitals,
		Notes:       strings.TrimSpace(req.Notes),
		CreatedBy:   ownerID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if details := ValidateRecord(record, now); len(details) > 0 {
		return nil, apperrors.Validation("validation failed", details...)
	}

	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("health record created",
		zap.String("record_id", record.ID.Hex()),
		zap.String("pet_id", petID.Hex()))

	record.normalize()
	return record, nil
}

func (s *Service) Get(ctx context.Context, ownerID, petID, id primitive.ObjectID) (*Record, error) {
	if _, err := s.resolvePet(ctx, ownerID, petID); err != nil {
		return nil, err
	}
	record, err := s.store.FindOwned(ctx, id, petID, ownerID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errRecordNotFound
	}
	record.normalize()
	return record, nil
}

func (s *Service) Update(ctx context.Context, ownerID, petID, id primitive.ObjectID, req UpdateRecordRequest) (*Record, error) {
	patch, err := patchFromRequest(req)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperrors.Validation("no updatable fields supplied")
	}

	current, err := s.Get(ctx, ownerID, petID, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != current.Version {
		return nil, apperrors.ErrConflict
	}

	now := s.now()
	merged := cloneRecord(current)
	patch.Apply(merged)
	if details := ValidateRecord(merged, now); len(details) > 0 {
		return nil, apperrors.Validation("validation failed", details...)
	}

	updated, err := s.store.UpdateOwned(ctx, id, petID, ownerID, patch, req.Version, now)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		still, err := s.store.FindOwned(ctx, id, petID, ownerID)
		if err != nil {
			return nil, err
		}
		if still == nil {
			return nil, errRecordNotFound
		}
		return nil, apperrors.ErrConflict
	}
	updated.normalize()
	return updated, nil
}

func patchFromRequest(req UpdateRecordRequest) (Patch, error) {
	p := Patch{
		Weight:   req.Weight,
		Height:   req.Height,
		Activity: req.Activity,
		Sleep:    req.Sleep,
		Feeding:  req.Feeding,
		Water:    req.Water,
		Vitals:   req.Vitals,
	}
	if req.Date != nil {
		date, err := pets.ParseDate(*req.Date)
		if err != nil {
			return Patch{}, apperrors.Validation("validation failed", err.Error())
		}
		p.Date = &date
	}
	if req.Mood != nil {
		mood := Mood(strings.ToLower(string(*req.Mood)))
		p.Mood = &mood
	}
	if req.Symptoms != nil {
		symptoms := cleanSymptoms(*req.Symptoms)
		p.Symptoms = &symptoms
	}
	if req.Medications != nil {
		meds, err := toMedications(*req.Medications)
		if err != nil {
			return Patch{}, err
		}
		p.Medications = &meds
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		p.Notes = &notes
	}
	return p, nil
}

func toMedications(in []MedicationInput) ([]Medication, error) {
	out := make([]Medication, 0, len(in))
	var details []string
	for i, m := range in {
		med := Medication{
			Name:      strings.TrimSpace(m.Name),
			Dosage:    strings.TrimSpace(m.Dosage),
			Frequency: strings.TrimSpace(m.Frequency),
		}
		if strings.TrimSpace(m.StartDate) != "" {
			start, err := pets.ParseDate(m.StartDate)
			if err != nil {
				details = append(details, fmt.Sprintf("medications[%d].startDate: %v", i, err))
			}
			med.StartDate = start
		}
		if m.EndDate != nil && strings.TrimSpace(*m.EndDate) != "" {
			end, err := pets.ParseDate(*m.EndDate)
			if err != nil {
				details = append(details, fmt.Sprintf("medications[%d].endDate: %v", i, err))
			} else {
				med.EndDate = &end
			}
		}
		out = append(out, med)
	}
	if len(details) > 0 {
		return nil, apperrors.Validation("validation failed", details...)
	}
	return out, nil
}

func cleanSymptoms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func (s *Service) Delete(ctx context.Context, ownerID, petID, id primitive.ObjectID) error {
	if _, err := s.resolvePet(ctx, ownerID, petID); err != nil {
		return err
	}
	deleted, err := s.store.DeleteOwned(ctx, id, petID, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return errRecordNotFound
	}
	logger.FromContext(ctx).Info("health record deleted",
		zap.String("record_id", id.Hex()),
		zap.String("pet_id", petID.Hex()))
	return nil
}

// DeleteByPet drops the history of a pet that is being deleted.
func (s *Service) DeleteByPet(ctx context.Context, petID, ownerID primitive.ObjectID) (int64, error) {
	return s.store.DeleteByPet(ctx, petID, ownerID)
}

// List pages through a pet's records, newest first. to is inclusive when
// given as a calendar date.
func (s *Service) List(ctx context.Context, ownerID, petID primitive.ObjectID, q ListRecordsQuery) ([]Record, *pagination.Pagination, error) {
	if _, err := s.resolvePet(ctx, ownerID, petID); err != nil {
		return nil, nil, err
	}

	filter := ForPet(petID, ownerID)
	var details []string
	if strings.TrimSpace(q.From) != "" {
		from, err := pets.ParseDate(q.From)
		if err != nil {
			details = append(details, "from: "+err.Error())
		}
		filter.From = from
	}
	if to := strings.TrimSpace(q.To); to != "" {
		until, err := pets.ParseDate(to)
		if err != nil {
			details = append(details, "to: "+err.Error())
		}
		if len(to) == len("2006-01-02") {
			until = until.Add(day)
		} else {
			until = until.Add(time.Nanosecond)
		}
		filter.Until = until
	}
	if len(details) > 0 {
		return nil, nil, apperrors.Validation("invalid date range", details...)
	}

	page := pagination.Request{Page: q.Page, Limit: q.Limit}.Normalize()
	records, total, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, nil, err
	}
	for i := range records {
		records[i].normalize()
	}
	return records, pagination.New(page.Page, page.Limit, total), nil
}

func windowDays(days, fallback int) int {
	if days <= 0 {
		return fallback
	}
	if days > maxWindowDays {
		return maxWindowDays
	}
	return days
}

// window loads the pet's records of the last days, oldest first.
func (s *Service) window(ctx context.Context, ownerID, petID primitive.ObjectID, span time.Duration, shape func(*Filter)) ([]Record, error) {
	if _, err := s.resolvePet(ctx, ownerID, petID); err != nil {
		return nil, err
	}
	filter := ForPet(petID, ownerID)
	filter.From = s.now().Add(-span)
	if shape != nil {
		shape(&filter)
	}
	return s.store.FindAll(ctx, filter)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Stats summarises the last days of records.
func (s *Service) Stats(ctx context.Context, ownerID, petID primitive.ObjectID, days int) (*Stats, error) {
	days = windowDays(days, defaultStatsDays)
	records, err := s.window(ctx, ownerID, petID, time.Duration(days)*day, nil)
	if err != nil {
		return nil, err
	}
	return computeStats(records, days), nil
}

func computeStats(records []Record, days int) *Stats {
	st := &Stats{
		Days:             days,
		TotalRecords:     len(records),
		WeightTrend:      TrendStable,
		MoodDistribution: make(map[Mood]int, len(moods)),
		CommonSymptoms:   []SymptomCount{},
	}
	for _, m := range moods {
		st.MoodDistribution[m] = 0
	}

	var weights []float64
	var sleepSum, waterSum float64
	var sleepN, waterN int
	symptoms := map[string]int{}

	for i := range records {
		r := &records[i]
		if r.Weight != nil {
			weights = append(weights, *r.Weight)
		}
		if r.Activity != nil {
			st.ActivityCount++
			st.TotalActivityMinutes += r.Activity.Duration
		}
		if r.Sleep != nil {
			sleepSum += r.Sleep.Hours
			sleepN++
		}
		if r.Water != nil {
			waterSum += r.Water.Amount
			waterN++
		}
		if r.Mood != "" {
			st.MoodDistribution[r.Mood]++
		}
		for _, sym := range r.Symptoms {
			if sym != "" {
				symptoms[strings.ToLower(sym)]++
			}
		}
		if r.Vitals != nil {
			st.RecentVitals = r.Vitals
		}
	}

	if n := len(weights); n > 0 {
		latest := weights[n-1]
		st.LatestWeight = &latest
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		avg := round(sum/float64(n), 1)
		st.AverageWeight = &avg
		st.WeightTrend = trend(weights[0], latest)
	}
	if sleepN > 0 {
		st.AverageSleepHours = round(sleepSum/float64(sleepN), 1)
	}
	if waterN > 0 {
		st.AverageWaterIntake = math.Round(waterSum / float64(waterN))
	}

	ranked := rankSymptoms(symptoms)
	if len(ranked) > topSymptoms {
		ranked = ranked[:topSymptoms]
	}
	st.CommonSymptoms = ranked
	return st
}

func trend(first, last float64) Trend {
	switch diff := last - first; {
	case diff > trendThreshold:
		return TrendIncreasing
	case diff < -trendThreshold:
		return TrendDecreasing
	}
	return TrendStable
}

func rankSymptoms(counts map[string]int) []SymptomCount {
	out := make([]SymptomCount, 0, len(counts))
	for sym, n := range counts {
		out = append(out, SymptomCount{Symptom: sym, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Symptom < out[j].Symptom
	})
	return out
}

// WeightHistory lists weighings of the last days, oldest first.
func (s *Service) WeightHistory(ctx context.Context, ownerID, petID primitive.ObjectID, days int) ([]WeightPoint, error) {
	days = windowDays(days, defaultWeightDays)
	records, err := s.window(ctx, ownerID, petID, time.Duration(days)*day, func(f *Filter) { f.HasWeight = true })
	if err != nil {
		return nil, err
	}
	points := make([]WeightPoint, 0, len(records))
	for _, r := range records {
		points = append(points, WeightPoint{Date: r.Date, Weight: *r.Weight})
	}
	return points, nil
}

// ActivitySummary groups activities by UTC day, most recent day first.
func (s *Service) ActivitySummary(ctx context.Context, ownerID, petID primitive.ObjectID, days int) ([]DayActivity, error) {
	days = windowDays(days, defaultActivityDays)
	records, err := s.window(ctx, ownerID, petID, time.Duration(days)*day, func(f *Filter) { f.HasActivity = true })
	if err != nil {
		return nil, err
	}

	byDay := map[string]*DayActivity{}
	var keys []string
	for _, r := range records {
		key := r.Date.UTC().Format("2006-01-02")
		d, ok := byDay[key]
		if !ok {
			d = &DayActivity{Date: key, Activities: []Activity{}}
			byDay[key] = d
			keys = append(keys, key)
		}
		d.TotalMinutes += r.Activity.Duration
		if r.Activity.Calories != nil {
			d.TotalCalories += *r.Activity.Calories
		}
		d.Activities = append(d.Activities, *r.Activity)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	out := make([]DayActivity, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byDay[k])
	}
	return out, nil
}

// Alerts flags a silent week, recurring symptoms and sharp weight changes.
func (s *Service) Alerts(ctx context.Context, ownerID, petID primitive.ObjectID) ([]Alert, error) {
	records, err := s.window(ctx, ownerID, petID, weightAlertWindow, nil)
	if err != nil {
		return nil, err
	}
	return computeAlerts(records, s.now()), nil
}

func computeAlerts(records []Record, now time.Time) []Alert {
	alerts := []Alert{}
	weekStart := now.Add(-alertWindow)

	recent := 0
	symptoms := map[string]int{}
	var weights []float64
	for i := range records {
		r := &records[i]
		if r.Weight != nil {
			weights = append(weights, *r.Weight)
		}
		if r.Date.Before(weekStart) {
			continue
		}
		recent++
		for _, sym := range r.Symptoms {
			if sym != "" {
				symptoms[strings.ToLower(sym)]++
			}
		}
	}

	if recent == 0 {
		alerts = append(alerts, Alert{
			Type:     AlertWarning,
			Code:     "no_recent_records",
			Message:  "no health record in the last 7 days",
			Priority: "medium",
		})
	}
	for _, sc := range rankSymptoms(symptoms) {
		if sc.Count < recurringSymptomHits {
			break
		}
		alerts = append(alerts, Alert{
			Type:     AlertDanger,
			Code:     "recurring_symptom",
			Message:  fmt.Sprintf("recurring symptom: %s (%d times in 7 days)", sc.Symptom, sc.Count),
			Priority: "high",
		})
	}
	if n := len(weights); n >= 2 && weights[0] > 0 {
		change := (weights[n-1] - weights[0]) / weights[0] * 100
		if math.Abs(change) > weightChangePercent {
			alerts = append(alerts, Alert{
				Type:     AlertWarning,
				Code:     "weight_change",
				Message:  fmt.Sprintf("weight changed %+.1f%% in 30 days", change),
				Priority: "medium",
			})
		}
	}
	return alerts
}

// UpcomingMedications lists medication courses that have not ended. The
// same name and dosage across records is reported once, from the latest
// record.
func (s *Service) UpcomingMedications(ctx context.Context, ownerID, petID primitive.ObjectID) ([]UpcomingMedication, error) {
	if _, err := s.resolvePet(ctx, ownerID, petID); err != nil {
		return nil, err
	}
	records, err := s.store.FindAll(ctx, ForPet(petID, ownerID))
	if err != nil {
		return nil, err
	}

	now := s.now()
	latest := map[string]UpcomingMedication{}
	for _, r := range records {
		for _, m := range r.Medications {
			if !m.ActiveAt(now) {
				continue
			}
			key := strings.ToLower(m.Name) + "|" + strings.ToLower(m.Dosage)
			latest[key] = UpcomingMedication{
				RecordID:  r.ID,
				Name:      m.Name,
				Dosage:    m.Dosage,
				Frequency: m.Frequency,
				StartDate: m.StartDate,
				EndDate:   m.EndDate,
			}
		}
	}

	out := make([]UpcomingMedication, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Count backs the admin dashboard.
func (s *Service) Count(ctx context.Context, filter Filter) (int64, error) {
	return s.store.Count(ctx, filter)
}

// TopOwners ranks owners by records entered since the given time.
func (s *Service) TopOwners(ctx context.Context, since time.Time, limit int) ([]OwnerActivity, error) {
	return s.store.TopOwners(ctx, Filter{CreatedAfter: since}, limit)
}

// DeleteAllForOwner removes every record of ownerID across all pets.
func (s *Service) DeleteAllForOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	return s.store.DeleteByOwner(ctx, ownerID)
}
