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

func TestPostService_CreatePost_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(f.store, f.views)
	ada, _ := f.actor(t, "ada")

	tests := []struct {
		name    string
		actor   identity.Actor
		in      CreatePostInput
		wantErr string
	}{
		{"anonymous", identity.Anonymous(), CreatePostInput{Content: "hi"}, models.CodeUnauthenticated},
		{"too long", ada, CreatePostInput{Content: strings.Repeat("a", 5001)}, models.CodeValidation},
		{"image not a url", ada, CreatePostInput{Content: "hi", Image: "not a url"}, models.CodeValidation},
		{"image wrong scheme", ada, CreatePostInput{Image: "ftp://files.example.com/a.png"}, models.CodeValidation},
		{"empty post is allowed", ada, CreatePostInput{}, ""},
		{"image only", ada, CreatePostInput{Image: "https://img.example.com/a.png"}, ""},
		{"exactly at the cap", ada, CreatePostInput{Content: strings.Repeat("é", 5000)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := svc.CreatePost(context.Background(), tt.actor, tt.in)
			if tt.wantErr != "" {
				assertCode(t, err, tt.wantErr)
				assert.Nil(t, post)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, post.ID)
		})
	}
}

func TestPostService_CreatePost_SanitizesAndReturnsAuthor(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(f.store, f.views)
	ada, _ := f.actor(t, "ada")

	post, err := svc.CreatePost(context.Background(), ada, CreatePostInput{
		Content: `  <script>alert(1)</script><b>hello</b> & welcome  `,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello & welcome", post.Content)
	assert.Equal(t, "ada", post.Author.Username)
	assert.Empty(t, post.Author.Email, "author is a summary projection")

	assert.ElementsMatch(t, []invalidation.Scope{
		invalidation.Feed(), invalidation.Author(ada.UserID), invalidation.Profile("ada"),
	}, f.views.all())
}

func TestPostService_DeletePost(t *testing.T) {
	f := newFixture(t)
	posts := NewPostService(f.store, f.views)
	comments := NewCommentService(f.store, f.emitter, f.views)
	likes := NewReactionService(f.store, f.emitter, f.views)
	ctx := context.Background()

	ada, adaUser := f.actor(t, "ada")
	bob, _ := f.actor(t, "bob")
	post := testutil.CreatePost(t, f.db, adaUser, "hello")
	other := testutil.CreatePost(t, f.db, adaUser, "keep me")

	_, err := comments.CreateComment(ctx, bob, CreateCommentInput{PostID: post.ID, Content: "nice"})
	require.NoError(t, err)
	_, err = likes.ToggleLike(ctx, bob, post.ID)
	require.NoError(t, err)
	_, err = likes.ToggleLike(ctx, bob, other.ID)
	require.NoError(t, err)

	t.Run("non-author is refused", func(t *testing.T) {
		err := posts.DeletePost(ctx, bob, post.ID)
		assertUnauthorizedError(t, err)
		assert.Equal(t, int64(1), f.count(t, &models.Post{}, "id = ?", post.ID))
		assert.Equal(t, int64(1), f.count(t, &models.Comment{}, "post_id = ?", post.ID))
		assert.Equal(t, int64(1), f.count(t, &models.Like{}, "post_id = ?", post.ID))
	})

	t.Run("anonymous", func(t *testing.T) {
		assertCode(t, posts.DeletePost(ctx, identity.Anonymous(), post.ID), models.CodeUnauthenticated)
	})

	t.Run("missing post", func(t *testing.T) {
		assertCode(t, posts.DeletePost(ctx, ada, 9999), models.CodeNotFound)
	})

	t.Run("author cascades", func(t *testing.T) {
		f.views.scopes = nil
		require.NoError(t, posts.DeletePost(ctx, ada, post.ID))

		assert.Zero(t, f.count(t, &models.Post{}, "id = ?", post.ID))
		assert.Zero(t, f.count(t, &models.Comment{}, "post_id = ?", post.ID))
		assert.Zero(t, f.count(t, &models.Like{}, "post_id = ?", post.ID))
		assert.Zero(t, f.count(t, &models.Notification{}, "post_id = ?", post.ID))

		assert.Equal(t, int64(1), f.count(t, &models.Post{}, "id = ?", other.ID))
		assert.Equal(t, int64(1), f.count(t, &models.Like{}, "post_id = ?", other.ID))
		assert.Equal(t, int64(1), f.count(t, &models.Notification{}, "post_id = ?", other.ID))

		scopes := f.views.all()
		assert.Contains(t, scopes, invalidation.Post(post.ID))
		assert.Contains(t, scopes, invalidation.Liked(bob.UserID))
		assert.Contains(t, scopes, invalidation.Feed())
	})

	t.Run("second delete is not found", func(t *testing.T) {
		assertCode(t, posts.DeletePost(ctx, ada, post.ID), models.CodeNotFound)
	})
}

func TestPostService_Reads(t *testing.T) {
	f := newFixture(t)
	posts := NewPostService(f.store, f.views)
	comments := NewCommentService(f.store, f.emitter, f.views)
	likes := NewReactionService(f.store, f.emitter, f.views)
	ctx := context.Background()

	_, adaUser := f.actor(t, "ada")
	bob, bobUser := f.actor(t, "bob")
	cat, _ := f.actor(t, "cat")

	first := testutil.CreatePost(t, f.db, adaUser, "first")
	second := testutil.CreatePost(t, f.db, bobUser, "second")
	third := testutil.CreatePost(t, f.db, adaUser, "third")

	_, err := comments.CreateComment(ctx, bob, CreateCommentInput{PostID: first.ID, Content: "one"})
	require.NoError(t, err)
	_, err = comments.CreateComment(ctx, cat, CreateCommentInput{PostID: first.ID, Content: "two"})
	require.NoError(t, err)
	_, err = likes.ToggleLike(ctx, bob, first.ID)
	require.NoError(t, err)
	_, err = likes.ToggleLike(ctx, cat, first.ID)
	require.NoError(t, err)
	_, err = likes.ToggleLike(ctx, bob, third.ID)
	require.NoError(t, err)

	t.Run("feed newest first with details", func(t *testing.T) {
		feed, err := posts.ListFeed(ctx, ListPostsInput{})
		require.NoError(t, err)
		require.Len(t, feed, 3)
		assert.Equal(t, []uint{third.ID, second.ID, first.ID}, []uint{feed[0].ID, feed[1].ID, feed[2].ID})

		oldest := feed[2]
		assert.Equal(t, "ada", oldest.Author.Username)
		assert.Equal(t, int64(2), oldest.LikeCount)
		assert.Equal(t, int64(2), oldest.CommentCount)
		require.Len(t, oldest.Comments, 2)
		assert.Equal(t, "one", oldest.Comments[0].Content)
		assert.Equal(t, "bob", oldest.Comments[0].Author.Username)
		assert.Len(t, oldest.Likes, 2)
	})

	t.Run("feed paging", func(t *testing.T) {
		page, err := posts.ListFeed(ctx, ListPostsInput{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, first.ID, page[0].ID)

		page, err = posts.ListFeed(ctx, ListPostsInput{Offset: 10})
		require.NoError(t, err)
		assert.NotNil(t, page)
		assert.Empty(t, page)
	})

	t.Run("by author", func(t *testing.T) {
		list, err := posts.ListByAuthor(ctx, adaUser.ID, ListPostsInput{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, third.ID, list[0].ID)
	})

	t.Run("liked by", func(t *testing.T) {
		list, err := posts.ListLikedBy(ctx, bob.UserID, ListPostsInput{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, []uint{third.ID, first.ID}, []uint{list[0].ID, list[1].ID})
	})

	t.Run("single post", func(t *testing.T) {
		p, err := posts.GetPost(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", p.Content)
		assert.Len(t, p.Comments, 2)

		_, err = posts.GetPost(ctx, 9999)
		assertCode(t, err, models.CodeNotFound)
	})
}
