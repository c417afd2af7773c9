package health

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xyz-asif/oipet/internal/pkg/pagination"
)

type Repository struct {
	collection *mongo.Collection
}

func NewRepository(ctx context.Context, db *mongo.Database) (*Repository, error) {
	collection := db.Collection("health_records")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "petId", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "date", Value: -1}}},
	})
	if err != nil {
		return nil, err
	}
	return &Repository{collection: collection}, nil
}

func ownedFilter(id, petID, ownerID primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "petId": petID, "ownerId": ownerID}
}

func (r *Repository) Create(ctx context.Context, record *Record) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

func (r *Repository) FindOwned(ctx context.Context, id, petID, ownerID primitive.ObjectID) (*Record, error) {
	var record Record
	if err := r.collection.FindOne(ctx, ownedFilter(id, petID, ownerID)).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *Repository) UpdateOwned(ctx context.Context, id, petID, ownerID primitive.ObjectID, patch Patch, version *int64, now time.Time) (*Record, error) {
	filter := ownedFilter(id, petID, ownerID)
	if version != nil {
		filter["version"] = *version
	}
	update := bson.M{
		"$set": patchSet(patch, now),
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record Record
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func patchSet(p Patch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Date != nil {
		set["date"] = *p.Date
	}
	if p.Weight != nil {
		set["weight"] = *p.Weight
	}
	if p.Height != nil {
		set["height"] = *p.Height
	}
	if p.Activity != nil {
		set["activity"] = *p.Activity
	}
	if p.Sleep != nil {
		set["sleep"] = *p.Sleep
	}
	if p.Feeding != nil {
		set["feeding"] = *p.Feeding
	}
	if p.Water != nil {
		set["water"] = *p.Water
	}
	if p.Mood != nil {
		set["mood"] = *p.Mood
	}
	if p.Symptoms != nil {
		set["symptoms"] = *p.Symptoms
	}
	if p.Medications != nil {
		set["medications"] = *p.Medications
	}
	if p.Vitals != nil {
		set["vitals"] = *p.Vitals
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	return set
}

func (r *Repository) DeleteOwned(ctx context.Context, id, petID, ownerID primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, ownedFilter(id, petID, ownerID))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *Repository) DeleteByPet(ctx context.Context, petID, ownerID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"petId": petID, "ownerId": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *Repository) DeleteByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *Repository) TopOwners(ctx context.Context, filter Filter, limit int) ([]OwnerActivity, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter.BSON()}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$ownerId",
			"recordCount":  bson.M{"$sum": 1},
			"lastActivity": bson.M{"$max": "$createdAt"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "recordCount", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []OwnerActivity{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) List(ctx context.Context, filter Filter, page pagination.Request) ([]Record, int64, error) {
	page = page.Normalize()
	query := filter.BSON()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	records, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *Repository) FindAll(ctx context.Context, filter Filter) ([]Record, error) {
	return r.find(ctx, filter.BSON(), options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (r *Repository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]Record, error) {
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) Count(ctx context.Context, filter Filter) (int64, error) {
	return r.collection.CountDocuments(ctx, filter.BSON())
}
