package pets

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
)

// Store persists pets. Owned lookups take the owner id and match both
// fields in a single filter; a pet of someone else is simply not found.
type Store interface {
	Create(ctx context.Context, pet *Pet) error
	// FindOwned returns (nil, nil) when no pet matches id and owner.
	FindOwned(ctx context.Context, id, ownerID primitive.ObjectID) (*Pet, error)
	// UpdateOwned returns (nil, nil) when nothing matched. With a non nil
	// version the stored version must be equal. now becomes updatedAt.
	UpdateOwned(ctx context.Context, id, ownerID primitive.ObjectID, patch Patch, version *int64, now time.Time) (*Pet, error)
	DeleteOwned(ctx context.Context, id, ownerID primitive.ObjectID) (bool, error)
	DeleteByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error)

	List(ctx context.Context, filter Filter, page pagination.Request) ([]Pet, int64, error)
	FindAll(ctx context.Context, filter Filter) ([]Pet, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Filter is the typed query for pet listings. A nil OwnerID means every
// owner and is only built behind the admin gate.
type Filter struct {
	OwnerID *primitive.ObjectID
	Species Species
	Search  string

	// CreatedAfter, when set, keeps pets registered at or after it.
	CreatedAfter time.Time
}

func (f Filter) BSON() bson.M {
	m := bson.M{}
	if f.OwnerID != nil {
		m["ownerId"] = *f.OwnerID
	}
	if f.Species != "" {
		m["species"] = f.Species
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		m["$or"] = bson.A{bson.M{"name": rx}, bson.M{"breed": rx}}
	}
	if !f.CreatedAfter.IsZero() {
		m["createdAt"] = bson.M{"$gte": f.CreatedAfter}
	}
	return m
}

// Match mirrors BSON for the in-memory store.
func (f Filter) Match(p *Pet) bool {
	if f.OwnerID != nil && p.OwnerID != *f.OwnerID {
		return false
	}
	if f.Species != "" && p.Species != f.Species {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(p.Name), s) && !strings.Contains(strings.ToLower(p.Breed), s) {
			return false
		}
	}
	if !f.CreatedAfter.IsZero() && p.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	return true
}

// Owned scopes a filter to one owner.
func Owned(ownerID primitive.ObjectID) Filter {
	return Filter{OwnerID: &ownerID}
}
