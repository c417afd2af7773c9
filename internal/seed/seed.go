// Package seed loads demo accounts and pets from a JSON file.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xyz-asif/oipet/internal/features/auth"
	"github.com/xyz-asif/oipet/internal/features/pets"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/password"
	"github.com/xyz-asif/oipet/internal/pkg/validator"
)

type File struct {
	Users []User `json:"users"`
}

type User struct {
	Name            string                  `json:"name"`
	Email           string                  `json:"email"`
	Password        string                  `json:"password"`
	Phone           string                  `json:"phone"`
	IsAdmin         bool                    `json:"isAdmin"`
	IsEmailVerified bool                    `json:"isEmailVerified"`
	Pets            []pets.CreatePetRequest `json:"pets"`
}

// Parse decodes a seed file and rejects unknown fields.
func Parse(r io.Reader) (*File, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

type Options struct {
	Users  auth.UserStore
	Pets   *pets.Service
	Hasher *password.Hasher
	// Workers bounds concurrent hashing. Defaults to runtime.NumCPU().
	Workers int
	Now     func() time.Time
}

type Result struct {
	UsersCreated int `json:"usersCreated"`
	UsersSkipped int `json:"usersSkipped"`
	PetsCreated  int `json:"petsCreated"`
}

// Run inserts every user whose email is not registered yet, with its pets.
// Password hashing runs in parallel; inserts are sequential.
func Run(ctx context.Context, f *File, opts Options) (*Result, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	lg := logger.FromContext(ctx)
	res := &Result{}

	var todo []User
	seen := map[string]bool{}
	for _, u := range f.Users {
		u.Email = validator.NormalizeEmail(u.Email)
		if seen[u.Email] {
			return nil, fmt.Errorf("duplicate email %s in seed file", u.Email)
		}
		seen[u.Email] = true

		existing, err := opts.Users.FindByEmail(ctx, u.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			res.UsersSkipped++
			lg.Info("seed user exists, skipping", zap.String("email", u.Email))
			continue
		}
		if err := validate(u); err != nil {
			return nil, err
		}
		todo = append(todo, u)
	}

	hashes := make([]string, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range todo {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := opts.Hasher.Hash(todo[i].Password)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", todo[i].Email, err)
			}
			hashes[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, u := range todo {
		now := opts.Now()
		user := &auth.User{
			Email:           u.Email,
			PasswordHash:    hashes[i],
			Name:            strings.TrimSpace(u.Name),
			Phone:           strings.TrimSpace(u.Phone),
			IsAdmin:         u.IsAdmin,
			IsActive:        true,
			IsEmailVerified: u.IsEmailVerified,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := opts.Users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create %s: %w", u.Email, err)
		}
		res.UsersCreated++

		for _, p := range u.Pets {
			if _, err := opts.Pets.Create(ctx, user.ID, p); err != nil {
				return nil, fmt.Errorf("create pet %q for %s: %w", p.Name, u.Email, err)
			}
			res.PetsCreated++
		}
	}
	return res, nil
}

func validate(u User) error {
	details := auth.ValidateName(u.Name)
	if !validator.IsValidEmail(u.Email) {
		details = append(details, "email is invalid")
	}
	details = append(details, auth.ValidatePhone(u.Phone)...)
	details = append(details, validator.PasswordViolations(u.Password)...)
	if len(details) > 0 {
		return fmt.Errorf("seed user %s: %s", u.Email, strings.Join(details, "; "))
	}
	return nil
}
