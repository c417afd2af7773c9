package health

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
)

// Store persists health records. Every owned method matches id, pet and
// owner in one filter.
type Store interface {
	Create(ctx context.Context, record *Record) error
	// FindOwned returns (nil, nil) when nothing matches.
	FindOwned(ctx context.Context, id, petID, ownerID primitive.ObjectID) (*Record, error)
	// UpdateOwned returns (nil, nil) when nothing matches, including a stale
	// version. now becomes updatedAt.
	UpdateOwned(ctx context.Context, id, petID, ownerID primitive.ObjectID, patch Patch, version *int64, now time.Time) (*Record, error)
	DeleteOwned(ctx context.Context, id, petID, ownerID primitive.ObjectID) (bool, error)
	DeleteByPet(ctx context.Context, petID, ownerID primitive.ObjectID) (int64, error)
	DeleteByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error)
	// TopOwners ranks owners by matching records, most first.
	TopOwners(ctx context.Context, filter Filter, limit int) ([]OwnerActivity, error)

	// List is newest first.
	List(ctx context.Context, filter Filter, page pagination.Request) ([]Record, int64, error)
	// FindAll is oldest first.
	FindAll(ctx context.Context, filter Filter) ([]Record, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Filter selects records. From is inclusive, Until exclusive; zero values
// leave that side open.
type Filter struct {
	PetID       *primitive.ObjectID
	OwnerID     *primitive.ObjectID
	From        time.Time
	Until       time.Time
	HasWeight   bool
	HasActivity bool

	// CreatedAfter filters on when the record was entered, not its date.
	CreatedAfter time.Time
}

// ForPet scopes a filter to one pet of one owner.
func ForPet(petID, ownerID primitive.ObjectID) Filter {
	return Filter{PetID: &petID, OwnerID: &ownerID}
}

func (f Filter) BSON() bson.M {
	m := bson.M{}
	if f.PetID != nil {
		m["petId"] = *f.PetID
	}
	if f.OwnerID != nil {
		m["ownerId"] = *f.OwnerID
	}
	if !f.From.IsZero() || !f.Until.IsZero() {
		date := bson.M{}
		if !f.From.IsZero() {
			date["$gte"] = f.From
		}
		if !f.Until.IsZero() {
			date["$lt"] = f.Until
		}
		m["date"] = date
	}
	if f.HasWeight {
		m["weight"] = bson.M{"$exists": true}
	}
	if f.HasActivity {
		m["activity"] = bson.M{"$exists": true}
	}
	if !f.CreatedAfter.IsZero() {
		m["createdAt"] = bson.M{"$gte": f.CreatedAfter}
	}
	return m
}

func (f Filter) Match(r *Record) bool {
	if f.PetID != nil && r.PetID != *f.PetID {
		return false
	}
	if f.OwnerID != nil && r.OwnerID != *f.OwnerID {
		return false
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.Until.IsZero() && !r.Date.Before(f.Until) {
		return false
	}
	if f.HasWeight && r.Weight == nil {
		return false
	}
	if f.HasActivity && r.Activity == nil {
		return false
	}
	if !f.CreatedAfter.IsZero() && r.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	return true
}
