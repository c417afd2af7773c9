package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/oipet/internal/features/auth"
	"github.com/xyz-asif/oipet/internal/features/pets"
	"github.com/xyz-asif/oipet/internal/pkg/password"
)

const sample = `{
  "users": [
    {"name": "Ana", "email": "Ana@X.com", "password": "Abc123", "isAdmin": true,
     "pets": [{"name": "Rex", "species": "dog", "birthDate": "2020-01-01", "weight": 20, "gender": "male"}]},
    {"name": "Bia", "email": "bia@x.com", "password": "Abc123"},
    {"name": "Caio", "email": "caio@x.com", "password": "Abc123"}
  ]
}`

func options(users *auth.MemoryStore) Options {
	now := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return Options{
		Users:   users,
		Pets:    pets.NewService(pets.NewMemoryStore(), nil, now),
		Hasher:  password.NewHasher(4),
		Workers: 2,
		Now:     now,
	}
}

func TestRunInsertsAndSkipsExisting(t *testing.T) {
	ctx := context.Background()
	users := auth.NewMemoryStore()
	require.NoError(t, users.Create(ctx, &auth.User{Email: "bia@x.com", Name: "Bia"}))

	f, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	opts := options(users)
	res, err := Run(ctx, f, opts)
	require.NoError(t, err)
	require.Equal(t, &Result{UsersCreated: 2, UsersSkipped: 1, PetsCreated: 1}, res)

	ana, err := users.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	require.NotNil(t, ana)
	require.True(t, ana.IsAdmin)
	require.True(t, opts.Hasher.Compare(ana.PasswordHash, "Abc123"))

	again, err := Run(ctx, f, opts)
	require.NoError(t, err)
	require.Equal(t, 0, again.UsersCreated)
	require.Equal(t, 3, again.UsersSkipped)
}

func TestRunRejectsInvalidUsers(t *testing.T) {
	f := &File{Users: []User{{Name: "Ana", Email: "ana@x.com", Password: "short"}}}
	_, err := Run(context.Background(), f, options(auth.NewMemoryStore()))
	require.ErrorContains(t, err, "seed user ana@x.com")

	f = &File{Users: []User{
		{Name: "Ana", Email: "ana@x.com", Password: "Abc123"},
		{Name: "Ana", Email: "ANA@x.com", Password: "Abc123"},
	}}
	_, err = Run(context.Background(), f, options(auth.NewMemoryStore()))
	require.ErrorContains(t, err, "duplicate email")
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"users": [{"mail": "x"}]}`))
	require.Error(t, err)
}
