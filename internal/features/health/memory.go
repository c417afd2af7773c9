package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[primitive.ObjectID]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[primitive.ObjectID]*Record)}
}

func (s *MemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *MemoryStore) owned(id, petID, ownerID primitive.ObjectID) (*Record, bool) {
	r, ok := s.records[id]
	if !ok || r.PetID != petID || r.OwnerID != ownerID {
		return nil, false
	}
	return r, true
}

func (s *MemoryStore) FindOwned(_ context.Context, id, petID, ownerID primitive.ObjectID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.owned(id, petID, ownerID)
	if !ok {
		return nil, nil
	}
	return cloneRecord(r), nil
}

func (s *MemoryStore) UpdateOwned(_ context.Context, id, petID, ownerID primitive.ObjectID, patch Patch, version *int64, now time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.owned(id, petID, ownerID)
	if !ok || (version != nil && r.Version != *version) {
		return nil, nil
	}
	patch.Apply(r)
	r.Version++
	r.UpdatedAt = now
	return cloneRecord(r), nil
}

func (s *MemoryStore) DeleteOwned(_ context.Context, id, petID, ownerID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owned(id, petID, ownerID); !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *MemoryStore) DeleteByPet(_ context.Context, petID, ownerID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.records {
		if r.PetID == petID && r.OwnerID == ownerID {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteByOwner(_ context.Context, ownerID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.records {
		if r.OwnerID == ownerID {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) TopOwners(ctx context.Context, filter Filter, limit int) ([]OwnerActivity, error) {
	all, _ := s.FindAll(ctx, filter)
	byOwner := map[primitive.ObjectID]*OwnerActivity{}
	for _, r := range all {
		a, ok := byOwner[r.OwnerID]
		if !ok {
			a = &OwnerActivity{OwnerID: r.OwnerID}
			byOwner[r.OwnerID] = a
		}
		a.RecordCount++
		if r.CreatedAt.After(a.LastActivity) {
			a.LastActivity = r.CreatedAt
		}
	}

	out := make([]OwnerActivity, 0, len(byOwner))
	for _, a := range byOwner {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RecordCount != out[j].RecordCount {
			return out[i].RecordCount > out[j].RecordCount
		}
		return out[i].OwnerID.Hex() < out[j].OwnerID.Hex()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) List(ctx context.Context, filter Filter, page pagination.Request) ([]Record, int64, error) {
	all, _ := s.FindAll(ctx, filter)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })

	start, end := pagination.Window(page, len(all))
	return all[start:end], int64(len(all)), nil
}

func (s *MemoryStore) FindAll(_ context.Context, filter Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Record{}
	for _, r := range s.records {
		if filter.Match(r) {
			out = append(out, *cloneRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, filter Filter) (int64, error) {
	all, _ := s.FindAll(ctx, filter)
	return int64(len(all)), nil
}

func cloneRecord(r *Record) *Record {
	cp := *r
	Patch{
		Weight:   r.Weight,
		Height:   r.Height,
		Activity: r.Activity,
		Sleep:    r.Sleep,
		Feeding:  r.Feeding,
		Water:    r.Water,
		Vitals:   r.Vitals,
	}.Apply(&cp)
	cp.Symptoms = append([]string(nil), r.Symptoms...)
	cp.Medications = append([]Medication(nil), r.Medications...)
	return &cp
}
