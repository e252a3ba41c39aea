package repository

import (
	"context"
	"errors"
	"testing"

	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AtomicRollsBackOnError(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := NewStore(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")

	boom := errors.New("notification insert failed")
	err := store.Atomic(ctx, func(r Repositories) error {
		if err := r.Follows.Create(ctx, ada.ID, bob.ID); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, models.CodeStoreUnavailable, models.ErrorCode(err))

	following, err := store.Repos().Follows.Exists(ctx, ada.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following, "edge must roll back with its notification")
}

func TestStore_AtomicKeepsAppErrors(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := NewStore(db)

	err := store.Atomic(context.Background(), func(r Repositories) error {
		return models.NewUnauthorizedError("not yours")
	})
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestStore_AtomicCommits(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	store := NewStore(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")

	err := store.Atomic(ctx, func(r Repositories) error {
		if err := r.Follows.Create(ctx, ada.ID, bob.ID); err != nil {
			return err
		}
		// reads inside the unit see its writes
		ok, err := r.Follows.Exists(ctx, ada.ID, bob.ID)
		require.True(t, ok)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), testutil.Count(t, db, &models.Follow{}, ""))
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		limit, offset    int
		wantLim, wantOff int
	}{
		{0, 0, 20, 0},
		{-5, -1, 20, 0},
		{500, 40, 100, 40},
		{10, 10, 10, 10},
	}
	for _, tt := range tests {
		l, o := ClampPage(tt.limit, tt.offset, 20, 100)
		assert.Equal(t, tt.wantLim, l)
		assert.Equal(t, tt.wantOff, o)
	}
}
