package service

import (
	"context"
	"strings"
	"time"

	"murmur/internal/cache"
	"murmur/internal/identity"
	"murmur/internal/invalidation"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	store repository.Store
	views invalidation.Enqueuer
}

type CreatePostInput struct {
	Content string
	Image   string
}

type ListPostsInput struct {
	Limit  int
	Offset int
}

func NewPostService(store repository.Store, views invalidation.Enqueuer) *PostService {
	return &PostService{store: store, views: views}
}

// CreatePost publishes a post. Unlike comments, posts may be empty: an image
// alone, or nothing at all, is a valid post.
func (s *PostService) CreatePost(ctx context.Context, actor identity.Actor, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "CreatePost")
	defer func() {
		recordMutation("post", err)
		observability.EndSpan(span, err)
	}()

	if err := requireActor(actor); err != nil {
		return nil, err
	}

	content := validation.SanitizeText(in.Content)
	if err := validation.CheckLength("content", content, validation.MaxPostLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	image := strings.TrimSpace(in.Image)
	if err := validation.ValidateHTTPURL("image", image); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	err = s.store.Atomic(ctx, func(r repository.Repositories) error {
		created := &models.Post{AuthorID: actor.UserID, Content: content, Image: image}
		if err := r.Posts.Create(ctx, created); err != nil {
			return err
		}
		var err error
		post, err = r.Posts.GetDetailed(ctx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.views.Enqueue(ctx,
		invalidation.Feed(),
		invalidation.Author(actor.UserID),
		invalidation.Profile(actor.Username),
	)
	return post, nil
}

// DeletePost removes a post with its comments, likes and notifications.
// Only the author may delete it.
func (s *PostService) DeletePost(ctx context.Context, actor identity.Actor, postID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "service", "DeletePost",
		attribute.Int64("post.id", int64(postID)))
	defer func() {
		recordMutation("post_delete", err)
		observability.EndSpan(span, err)
	}()

	if err := requireActor(actor); err != nil {
		return err
	}

	var likers []uint
	err = s.store.Atomic(ctx, func(r repository.Repositories) error {
		post, err := r.Posts.GetDetailed(ctx, postID)
		if err != nil {
			return err
		}
		if !actor.Is(post.AuthorID) {
			return models.NewUnauthorizedError("You can only delete your own posts")
		}
		for _, l := range post.Likes {
			likers = append(likers, l.UserID)
		}
		return r.Posts.Delete(ctx, postID)
	})
	if err != nil {
		return err
	}

	scopes := []invalidation.Scope{
		invalidation.Feed(),
		invalidation.Post(postID),
		invalidation.Author(actor.UserID),
		invalidation.Profile(actor.Username),
	}
	for _, id := range likers {
		scopes = append(scopes, invalidation.Liked(id))
	}
	s.views.Enqueue(ctx, scopes...)
	return nil
}

// GetPost returns one post with author, comments and likes.
func (s *PostService) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(postID), &post, cache.PostTTL, func() error {
		p, err := s.store.Repos().Posts.GetDetailed(ctx, postID)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListFeed returns the home feed, newest first.
func (s *PostService) ListFeed(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit, offset := repository.ClampPage(in.Limit, in.Offset, defaultPageSize, maxPageSize)
	return s.cachedList(ctx, cache.FeedKey(limit, offset), cache.FeedTTL, func() ([]*models.Post, error) {
		return s.store.Repos().Posts.ListFeed(ctx, limit, offset)
	})
}

// ListByAuthor returns the posts written by authorID, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, in ListPostsInput) ([]*models.Post, error) {
	limit, offset := repository.ClampPage(in.Limit, in.Offset, defaultPageSize, maxPageSize)
	return s.cachedList(ctx, cache.AuthorPostsKey(authorID, limit, offset), cache.AuthorPostsTTL, func() ([]*models.Post, error) {
		return s.store.Repos().Posts.ListByAuthor(ctx, authorID, limit, offset)
	})
}

// ListLikedBy returns the posts userID liked, newest post first.
func (s *PostService) ListLikedBy(ctx context.Context, userID uint, in ListPostsInput) ([]*models.Post, error) {
	limit, offset := repository.ClampPage(in.Limit, in.Offset, defaultPageSize, maxPageSize)
	return s.cachedList(ctx, cache.LikedKey(userID, limit, offset), cache.LikedTTL, func() ([]*models.Post, error) {
		return s.store.Repos().Posts.ListLikedBy(ctx, userID, limit, offset)
	})
}

func (s *PostService) cachedList(ctx context.Context, key string, ttl time.Duration, fetch func() ([]*models.Post, error)) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, key, &posts, ttl, func() error {
		var err error
		posts, err = fetch()
		return err
	})
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}
