package service

import (
	"context"
	"testing"

	"murmur/internal/identity"
	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Inbox(t *testing.T) {
	f := newFixture(t)
	inbox := NewNotificationService(f.store)
	likes := NewReactionService(f.store, f.emitter, f.views)
	follows := NewFollowService(f.store, f.emitter, f.views)
	ctx := context.Background()

	ada, adaUser := f.actor(t, "ada")
	bob, _ := f.actor(t, "bob")
	cat, _ := f.actor(t, "cat")
	post := testutil.CreatePost(t, f.db, adaUser, "hello")

	_, err := likes.ToggleLike(ctx, bob, post.ID)
	require.NoError(t, err)
	_, err = follows.ToggleFollow(ctx, cat, adaUser.ID)
	require.NoError(t, err)
	_, err = follows.ToggleFollow(ctx, ada, bob.UserID)
	require.NoError(t, err)

	list, err := inbox.List(ctx, ada, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotificationFollow, list[0].Type, "newest first")
	assert.Equal(t, "cat", list[0].Creator.Username)
	assert.Equal(t, models.NotificationLike, list[1].Type)
	require.NotNil(t, list[1].Post)
	assert.Equal(t, "hello", list[1].Post.Content)

	// ids that belong to another recipient are ignored
	var bobsNote models.Notification
	require.NoError(t, f.db.Where("user_id = ?", bob.UserID).First(&bobsNote).Error)

	n, err := inbox.MarkRead(ctx, ada, []uint{list[1].ID, bobsNote.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), f.count(t, &models.Notification{}, "user_id = ? AND read = ?", bob.UserID, false))

	n, err = inbox.MarkRead(ctx, ada, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Zero(t, f.count(t, &models.Notification{}, "user_id = ? AND read = ?", adaUser.ID, false))

	_, err = inbox.List(ctx, identity.Anonymous(), 10, 0)
	assertCode(t, err, models.CodeUnauthenticated)
	_, err = inbox.MarkRead(ctx, identity.Anonymous(), nil)
	assertCode(t, err, models.CodeUnauthenticated)
}
