package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]*Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[primitive.ObjectID]*Notification)}
}

func (s *MemoryStore) Create(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	s.items[n.ID] = clone(n)
	return nil
}

func (s *MemoryStore) CreateMany(ctx context.Context, ns []Notification) error {
	for i := range ns {
		if err := s.Create(ctx, &ns[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter Filter, page pagination.Request) ([]Notification, int64, error) {
	all, _ := s.FindAll(ctx, filter)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].IsRead != all[j].IsRead {
			return !all[i].IsRead
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	start, end := pagination.Window(page, len(all))
	return all[start:end], int64(len(all)), nil
}

func (s *MemoryStore) FindAll(_ context.Context, filter Filter) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Notification{}
	for _, n := range s.items {
		if filter.Match(n) {
			out = append(out, *clone(n))
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, filter Filter) (int64, error) {
	all, _ := s.FindAll(ctx, filter)
	return int64(len(all)), nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id, userID primitive.ObjectID, at time.Time) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return nil, nil
	}
	n.IsRead = true
	n.ReadAt = &at
	return clone(n), nil
}

func (s *MemoryStore) MarkAllRead(_ context.Context, userID primitive.ObjectID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var marked int64
	for _, n := range s.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			marked++
		}
	}
	return marked, nil
}

func (s *MemoryStore) DeleteOwned(_ context.Context, id, userID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, n := range s.items {
		if !n.ExpiresAt.After(now) {
			delete(s.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) DeleteByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, n := range s.items {
		if n.UserID == userID {
			delete(s.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) DuePush(_ context.Context, now time.Time, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Notification{}
	for _, n := range s.items {
		if duePush(n, now) {
			out = append(out, *clone(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkDelivered(_ context.Context, id primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.items[id]; ok {
		n.IsDelivered = true
		n.DeliveredAt = &at
	}
	return nil
}

func (s *MemoryStore) IncrementRetry(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.items[id]; ok {
		n.RetryCount++
	}
	return nil
}

func clone(n *Notification) *Notification {
	cp := *n
	cp.Channels = append([]Channel{}, n.Channels...)
	cp.Tags = append([]string{}, n.Tags...)
	if n.Data != nil {
		cp.Data = make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			cp.Data[k] = v
		}
	}
	return &cp
}
