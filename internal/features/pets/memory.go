package pets

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
)

type MemoryStore struct {
	mu   sync.RWMutex
	pets map[primitive.ObjectID]*Pet
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pets: make(map[primitive.ObjectID]*Pet)}
}

func (s *MemoryStore) Create(_ context.Context, pet *Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMicrochip(pet.MicrochipID, primitive.NilObjectID); err != nil {
		return err
	}
	if pet.ID.IsZero() {
		pet.ID = primitive.NewObjectID()
	}
	s.pets[pet.ID] = clonePet(pet)
	return nil
}

func (s *MemoryStore) checkMicrochip(chip string, self primitive.ObjectID) error {
	if chip == "" {
		return nil
	}
	for id, p := range s.pets {
		if id != self && p.MicrochipID == chip {
			return errDuplicateMicrochip
		}
	}
	return nil
}

func (s *MemoryStore) FindOwned(_ context.Context, id, ownerID primitive.ObjectID) (*Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pets[id]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	return clonePet(p), nil
}

func (s *MemoryStore) UpdateOwned(_ context.Context, id, ownerID primitive.ObjectID, patch Patch, version *int64, now time.Time) (*Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pets[id]
	if !ok || p.OwnerID != ownerID || (version != nil && p.Version != *version) {
		return nil, nil
	}
	if patch.MicrochipID != nil {
		if err := s.checkMicrochip(*patch.MicrochipID, id); err != nil {
			return nil, err
		}
	}
	patch.Apply(p)
	p.Version++
	p.UpdatedAt = now
	return clonePet(p), nil
}

func (s *MemoryStore) DeleteOwned(_ context.Context, id, ownerID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pets[id]
	if !ok || p.OwnerID != ownerID {
		return false, nil
	}
	delete(s.pets, id)
	return true, nil
}

func (s *MemoryStore) DeleteByOwner(_ context.Context, ownerID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, p := range s.pets {
		if p.OwnerID == ownerID {
			delete(s.pets, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) List(ctx context.Context, filter Filter, page pagination.Request) ([]Pet, int64, error) {
	all, _ := s.FindAll(ctx, filter)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start, end := pagination.Window(page, len(all))
	return all[start:end], int64(len(all)), nil
}

func (s *MemoryStore) FindAll(_ context.Context, filter Filter) ([]Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Pet{}
	for _, p := range s.pets {
		if filter.Match(p) {
			out = append(out, *clonePet(p))
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, filter Filter) (int64, error) {
	all, _ := s.FindAll(ctx, filter)
	return int64(len(all)), nil
}

func clonePet(p *Pet) *Pet {
	cp := *p
	if p.Height != nil {
		h := *p.Height
		cp.Height = &h
	}
	cp.MedicalConditions = append([]string(nil), p.MedicalConditions...)
	cp.Allergies = append([]string(nil), p.Allergies...)
	return &cp
}
