package repository

import (
	"context"
	"testing"

	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewStore(db).Repos().Follows
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")

	t.Run("self follow rejected", func(t *testing.T) {
		err := repo.Create(ctx, ada.ID, ada.ID)
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("self follow rejected by the store", func(t *testing.T) {
		err := db.Create(&models.Follow{FollowerID: bob.ID, FollowingID: bob.ID}).Error
		assert.Error(t, err)
	})

	t.Run("edge is unique per ordered pair", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, ada.ID, bob.ID))
		err := repo.Create(ctx, ada.ID, bob.ID)
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

		// reverse direction is a different edge
		require.NoError(t, repo.Create(ctx, bob.ID, ada.ID))

		following, err := repo.Exists(ctx, ada.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, following)
	})

	t.Run("counts", func(t *testing.T) {
		followers, err := repo.CountFollowers(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), followers)

		following, err := repo.CountFollowing(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), following)
	})

	t.Run("delete", func(t *testing.T) {
		removed, err := repo.Delete(ctx, ada.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Delete(ctx, ada.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Equal(t, int64(1), testutil.Count(t, db, &models.Follow{}, ""))
	})
}
