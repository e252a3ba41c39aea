package service

import (
	"context"
	"strings"
	"testing"

	"murmur/internal/identity"
	"murmur/internal/invalidation"
	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateComment_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.store, f.emitter, f.views)
	ada, adaUser := f.actor(t, "ada")
	post := testutil.CreatePost(t, f.db, adaUser, "hello")

	tests := []struct {
		name     string
		actor    identity.Actor
		in       CreateCommentInput
		wantCode string
	}{
		{"empty", ada, CreateCommentInput{PostID: post.ID, Content: ""}, models.CodeValidation},
		{"whitespace only", ada, CreateCommentInput{PostID: post.ID, Content: " \n\t "}, models.CodeValidation},
		{"markup only", ada, CreateCommentInput{PostID: post.ID, Content: "<img src=x>"}, models.CodeValidation},
		{"too long", ada, CreateCommentInput{PostID: post.ID, Content: strings.Repeat("a", 2001)}, models.CodeValidation},
		{"missing post", ada, CreateCommentInput{PostID: 9999, Content: "hi"}, models.CodeNotFound},
		{"anonymous", identity.Anonymous(), CreateCommentInput{PostID: post.ID, Content: "hi"}, models.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := svc.CreateComment(context.Background(), tt.actor, tt.in)
			assertCode(t, err, tt.wantCode)
			assert.Nil(t, c)
			assert.Zero(t, f.count(t, &models.Comment{}, ""))
			assert.Zero(t, f.count(t, &models.Notification{}, ""))
		})
	}
	assert.Empty(t, f.views.all())
}

func TestCommentService_CreateComment_NotifiesAuthor(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.store, f.emitter, f.views)
	ctx := context.Background()

	_, adaUser := f.actor(t, "ada")
	bob, _ := f.actor(t, "bob")
	post := testutil.CreatePost(t, f.db, adaUser, "hello")

	c, err := svc.CreateComment(ctx, bob, CreateCommentInput{PostID: post.ID, Content: "  <i>great</i> post "})
	require.NoError(t, err)
	assert.Equal(t, "great post", c.Content)
	assert.Equal(t, "bob", c.Author.Username)

	var n models.Notification
	require.NoError(t, f.db.Where("user_id = ?", adaUser.ID).First(&n).Error)
	assert.Equal(t, models.NotificationComment, n.Type)
	assert.Equal(t, bob.UserID, n.CreatorID)
	require.NotNil(t, n.PostID)
	require.NotNil(t, n.CommentID)
	assert.Equal(t, post.ID, *n.PostID)
	assert.Equal(t, c.ID, *n.CommentID)
	assert.Equal(t, 1, f.publisher.count(adaUser.ID))

	assert.ElementsMatch(t, []invalidation.Scope{
		invalidation.Feed(), invalidation.Post(post.ID), invalidation.Author(adaUser.ID),
	}, f.views.all())
}

func TestCommentService_CreateComment_OwnPostIsSilent(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.store, f.emitter, f.views)

	ada, adaUser := f.actor(t, "ada")
	post := testutil.CreatePost(t, f.db, adaUser, "hello")

	_, err := svc.CreateComment(context.Background(), ada, CreateCommentInput{PostID: post.ID, Content: "replying to myself"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.count(t, &models.Comment{}, ""))
	assert.Zero(t, f.count(t, &models.Notification{}, ""))
	assert.Zero(t, f.publisher.count(adaUser.ID))
}

func TestCommentService_CreateComment_RollsBackWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	_, adaUser := f.actor(t, "ada")
	bob, _ := f.actor(t, "bob")
	post := testutil.CreatePost(t, f.db, adaUser, "hello")

	svc := NewCommentService(&failingNotificationStore{Store: f.store}, f.emitter, f.views)

	c, err := svc.CreateComment(context.Background(), bob, CreateCommentInput{PostID: post.ID, Content: "nice"})
	assertCode(t, err, models.CodeStoreUnavailable)
	assert.Nil(t, c)
	assert.Zero(t, f.count(t, &models.Comment{}, ""), "comment rolled back with the notification")
	assert.Zero(t, f.publisher.count(adaUser.ID))
	assert.Empty(t, f.views.all())
}
