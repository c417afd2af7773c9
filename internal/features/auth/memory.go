package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

// MemoryStore is an in-process UserStore for STORE_DRIVER=memory and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[primitive.ObjectID]*User)}
}

func (s *MemoryStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return apperrors.ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	return s.findFirst(func(u *User) bool { return u.Email == email }), nil
}

func (s *MemoryStore) findFirst(pred func(*User) bool) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if pred(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, id primitive.ObjectID, patch UserPatch) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	patch.Apply(u)
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) ConsumePasswordReset(_ context.Context, tokenHash string, now time.Time, newHash string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.PasswordResetToken != tokenHash || u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(now) {
			continue
		}
		u.PasswordHash = newHash
		u.PasswordResetToken = ""
		u.PasswordResetExpires = nil
		u.UpdatedAt = now
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) ConsumeEmailVerification(_ context.Context, tokenHash string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if tokenHash == "" || u.EmailVerificationToken != tokenHash {
			continue
		}
		u.IsEmailVerified = true
		u.EmailVerificationToken = ""
		u.UpdatedAt = time.Now()
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) List(ctx context.Context, filter UserFilter, page pagination.Request) ([]User, int64, error) {
	all, _ := s.FindAll(ctx, filter)
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start, end := pagination.Window(page, len(all))
	return all[start:end], int64(len(all)), nil
}

func (s *MemoryStore) FindAll(_ context.Context, filter UserFilter) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []User{}
	for _, u := range s.users {
		if filter.Match(u) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, filter UserFilter) (int64, error) {
	all, _ := s.FindAll(ctx, filter)
	return int64(len(all)), nil
}
