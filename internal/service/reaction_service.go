package service

import (
	"context"

	"murmur/internal/identity"
	"murmur/internal/invalidation"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ReactionService toggles likes on posts.
type ReactionService struct {
	store   repository.Store
	emitter *notifications.Emitter
	views   invalidation.Enqueuer
}

func NewReactionService(store repository.Store, emitter *notifications.Emitter, views invalidation.Enqueuer) *ReactionService {
	return &ReactionService{store: store, emitter: emitter, views: views}
}

// ToggleLike likes postID for actor, or removes the like when present. The
// like and the LIKE notification to the post's author commit together.
func (s *ReactionService) ToggleLike(ctx context.Context, actor identity.Actor, postID uint) (res ToggleResult, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "ToggleLike",
		attribute.Int64("post.id", int64(postID)))
	defer func() {
		recordMutation("like", err)
		observability.EndSpan(span, err)
	}()

	if err := requireActor(actor); err != nil {
		return res, err
	}

	var (
		post *models.Post
		note *models.Notification
	)
	err = s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		post, err = r.Posts.GetByID(ctx, postID)
		if err != nil {
			return err
		}

		liked, err := r.Likes.Exists(ctx, actor.UserID, postID)
		if err != nil {
			return err
		}
		if liked {
			if _, err := r.Likes.Delete(ctx, actor.UserID, postID); err != nil {
				return err
			}
			res.Active = false
			return nil
		}

		if err := r.Likes.Create(ctx, actor.UserID, postID); err != nil {
			if models.IsCode(err, models.CodeConflict) {
				res.Active = true
				return nil
			}
			return err
		}
		note, err = s.emitter.Emit(ctx, r.Notifications, models.NotificationLike, post.AuthorID, actor.UserID,
			notifications.Refs{PostID: uintPtr(postID)})
		if err != nil {
			return err
		}
		res.Active = true
		return nil
	})
	if err != nil {
		return ToggleResult{}, err
	}

	publishAfterCommit(ctx, s.emitter, s.store.Repos().Users, note)
	s.views.Enqueue(ctx,
		invalidation.Feed(),
		invalidation.Post(postID),
		invalidation.Author(post.AuthorID),
		invalidation.Liked(actor.UserID),
	)
	return res, nil
}
