package pets

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(ctx context.Context, db *mongo.Database) (*Repository, error) {
	collection := db.Collection("pets")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "microchipId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "species", Value: 1}},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Repository{collection: collection}, nil
}

var errDuplicateMicrochip = apperrors.New(apperrors.KindConflict, "microchip id already registered")

func (r *Repository) Create(ctx context.Context, pet *Pet) error {
	if pet.ID.IsZero() {
		pet.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, pet); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errDuplicateMicrochip
		}
		return err
	}
	return nil
}

func (r *Repository) FindOwned(ctx context.Context, id, ownerID primitive.ObjectID) (*Pet, error) {
	var pet Pet
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Decode(&pet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &pet, nil
}

func (r *Repository) UpdateOwned(ctx context.Context, id, ownerID primitive.ObjectID, patch Patch, version *int64, now time.Time) (*Pet, error) {
	filter := bson.M{"_id": id, "ownerId": ownerID}
	if version != nil {
		filter["version"] = *version
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var pet Pet
	if err := r.collection.FindOneAndUpdate(ctx, filter, patchUpdate(patch, now), opts).Decode(&pet); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, errDuplicateMicrochip
		}
		return nil, err
	}
	return &pet, nil
}

// patchUpdate builds the update document. Optional strings cleared to ""
// are unset so they match what Create stores; the microchip index is
// sparse and would otherwise collide on empty values.
func patchUpdate(p Patch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	unset := bson.M{}
	optional := func(field string, v *string) {
		switch {
		case v == nil:
		case *v == "":
			unset[field] = ""
		default:
			set[field] = *v
		}
	}

	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Species != nil {
		set["species"] = *p.Species
	}
	optional("breed", p.Breed)
	if p.BirthDate != nil {
		set["birthDate"] = *p.BirthDate
	}
	if p.Weight != nil {
		set["weight"] = *p.Weight
	}
	if p.Height != nil {
		set["height"] = *p.Height
	}
	if p.Gender != nil {
		set["gender"] = *p.Gender
	}
	if p.IsNeutered != nil {
		set["isNeutered"] = *p.IsNeutered
	}
	optional("avatar", p.Avatar)
	optional("avatarPublicId", p.AvatarPublicID)
	optional("microchipId", p.MicrochipID)
	if p.MedicalConditions != nil {
		set["medicalConditions"] = *p.MedicalConditions
	}
	if p.Allergies != nil {
		set["allergies"] = *p.Allergies
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (r *Repository) DeleteOwned(ctx context.Context, id, ownerID primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *Repository) DeleteByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *Repository) List(ctx context.Context, filter Filter, page pagination.Request) ([]Pet, int64, error) {
	page = page.Normalize()
	query := filter.BSON()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	pets := []Pet{}
	if err := cursor.All(ctx, &pets); err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return pets, total, nil
}

func (r *Repository) FindAll(ctx context.Context, filter Filter) ([]Pet, error) {
	cursor, err := r.collection.Find(ctx, filter.BSON())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	pets := []Pet{}
	if err := cursor.All(ctx, &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

func (r *Repository) Count(ctx context.Context, filter Filter) (int64, error) {
	return r.collection.CountDocuments(ctx, filter.BSON())
}
