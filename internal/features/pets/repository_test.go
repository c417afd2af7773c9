package pets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPatchUpdateUnsetsClearedStrings(t *testing.T) {
	now := time.Date(2022, 6, 1, 10, 0, 0, 0, time.UTC)
	empty, chip, name := "", "985112345678901", "Rex"

	update := patchUpdate(Patch{Name: &name, MicrochipID: &empty, Breed: &empty, Avatar: &empty, AvatarPublicID: &empty}, now)

	set := update["$set"].(bson.M)
	require.Equal(t, bson.M{"name": "Rex", "updatedAt": now}, set)
	require.Equal(t, bson.M{"microchipId": "", "breed": "", "avatar": "", "avatarPublicId": ""}, update["$unset"])
	require.Equal(t, bson.M{"version": 1}, update["$inc"])

	update = patchUpdate(Patch{MicrochipID: &chip}, now)
	require.Equal(t, chip, update["$set"].(bson.M)["microchipId"])
	require.NotContains(t, update, "$unset")
}

func TestMemoryStoreClearingMicrochipTwice(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := primitive.NewObjectID()
	now := time.Date(2022, 6, 1, 10, 0, 0, 0, time.UTC)

	a := &Pet{OwnerID: owner, Name: "Rex", MicrochipID: "111"}
	b := &Pet{OwnerID: owner, Name: "Mia", MicrochipID: "222"}
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	empty := ""
	for _, p := range []*Pet{a, b} {
		updated, err := store.UpdateOwned(ctx, p.ID, owner, Patch{MicrochipID: &empty}, nil, now)
		require.NoError(t, err)
		require.Empty(t, updated.MicrochipID)
		require.Equal(t, now, updated.UpdatedAt)
	}
}
