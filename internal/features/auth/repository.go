package auth

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

// Repository handles database interactions for the auth feature
type Repository struct {
	collection *mongo.Collection
}

// NewRepository initializes the repository and creates necessary indexes
func NewRepository(ctx context.Context, db *mongo.Database) (*Repository, error) {
	collection := db.Collection("users")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "passwordResetToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "emailVerificationToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Repository{collection: collection}, nil
}

// Create inserts a new user; a unique index violation becomes DuplicateEmail.
func (r *Repository) Create(ctx context.Context, user *User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *Repository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Update applies patch and returns the updated document.
func (r *Repository) Update(ctx context.Context, id primitive.ObjectID, patch UserPatch) (*User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, patchUpdate(patch, time.Now()), opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func patchUpdate(p UserPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	unset := bson.M{}

	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Avatar != nil {
		set["avatar"] = *p.Avatar
	}
	if p.AvatarPublicID != nil {
		set["avatarPublicId"] = *p.AvatarPublicID
	}
	if p.FCMToken != nil {
		set["fcmToken"] = *p.FCMToken
	}
	if p.PasswordHash != nil {
		set["password"] = *p.PasswordHash
	}
	if p.IsActive != nil {
		set["isActive"] = *p.IsActive
	}
	if p.IsAdmin != nil {
		set["isAdmin"] = *p.IsAdmin
	}
	if p.IsEmailVerified != nil {
		set["isEmailVerified"] = *p.IsEmailVerified
	}
	if p.LastLoginAt != nil {
		set["lastLoginAt"] = *p.LastLoginAt
	}
	if p.PasswordResetToken != nil {
		set["passwordResetToken"] = *p.PasswordResetToken
	}
	if p.PasswordResetExpires != nil {
		set["passwordResetExpires"] = *p.PasswordResetExpires
	}
	if p.ClearPasswordReset {
		unset["passwordResetToken"] = ""
		unset["passwordResetExpires"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *Repository) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time, newHash string) (*User, error) {
	filter := bson.M{
		"passwordResetToken":   tokenHash,
		"passwordResetExpires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password": newHash, "updatedAt": now},
		"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""},
	}
	return r.consume(ctx, filter, update)
}

func (r *Repository) ConsumeEmailVerification(ctx context.Context, tokenHash string) (*User, error) {
	update := bson.M{
		"$set":   bson.M{"isEmailVerified": true, "updatedAt": time.Now()},
		"$unset": bson.M{"emailVerificationToken": ""},
	}
	return r.consume(ctx, bson.M{"emailVerificationToken": tokenHash}, update)
}

func (r *Repository) consume(ctx context.Context, filter, update bson.M) (*User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user User
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) List(ctx context.Context, filter UserFilter, page pagination.Request) ([]User, int64, error) {
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

	users := []User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *Repository) FindAll(ctx context.Context, filter UserFilter) ([]User, error) {
	cursor, err := r.collection.Find(ctx, filter.BSON())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Repository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, filter.BSON())
}
