package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
)

// UserStore is the credential store. Lookups return (nil, nil) when the
// user does not exist.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id primitive.ObjectID, patch UserPatch) (*User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// ConsumePasswordReset sets the new hash and clears the reset token in
	// one atomic write, only if tokenHash matches and has not expired.
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time, newHash string) (*User, error)
	// ConsumeEmailVerification marks the owner of tokenHash verified and
	// clears the token.
	ConsumeEmailVerification(ctx context.Context, tokenHash string) (*User, error)

	List(ctx context.Context, filter UserFilter, page pagination.Request) ([]User, int64, error)
	FindAll(ctx context.Context, filter UserFilter) ([]User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
}

// UserFilter is the typed query for user listings.
type UserFilter struct {
	Search          string
	IsActive        *bool
	IsAdmin         *bool
	IsEmailVerified *bool
	CreatedAfter    *time.Time
	LastLoginAfter  *time.Time
}

// BSON renders the filter for MongoDB.
func (f UserFilter) BSON() bson.M {
	m := bson.M{}
	if s := strings.TrimSpace(f.Search); s != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		m["$or"] = bson.A{bson.M{"name": rx}, bson.M{"email": rx}}
	}
	if f.IsActive != nil {
		m["isActive"] = *f.IsActive
	}
	if f.IsAdmin != nil {
		m["isAdmin"] = *f.IsAdmin
	}
	if f.IsEmailVerified != nil {
		m["isEmailVerified"] = *f.IsEmailVerified
	}
	if f.CreatedAfter != nil {
		m["createdAt"] = bson.M{"$gte": *f.CreatedAfter}
	}
	if f.LastLoginAfter != nil {
		m["lastLoginAt"] = bson.M{"$gte": *f.LastLoginAfter}
	}
	return m
}

// Match evaluates the filter against u; mirrors BSON for in-memory stores.
func (f UserFilter) Match(u *User) bool {
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(u.Name), s) && !strings.Contains(strings.ToLower(u.Email), s) {
			return false
		}
	}
	if f.IsActive != nil && u.IsActive != *f.IsActive {
		return false
	}
	if f.IsAdmin != nil && u.IsAdmin != *f.IsAdmin {
		return false
	}
	if f.IsEmailVerified != nil && u.IsEmailVerified != *f.IsEmailVerified {
		return false
	}
	if f.CreatedAfter != nil && u.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.LastLoginAfter != nil && (u.LastLoginAt == nil || u.LastLoginAt.Before(*f.LastLoginAfter)) {
		return false
	}
	return true
}

// Bool is a small helper for building filters and patches.
func Bool(b bool) *bool { return &b }

// String is a small helper for building patches.
func String(s string) *string { return &s }
