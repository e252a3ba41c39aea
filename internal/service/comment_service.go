package service

import (
	"context"

	"murmur/internal/identity"
	"murmur/internal/invalidation"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type CommentService struct {
	store   repository.Store
	emitter *notifications.Emitter
	views   invalidation.Enqueuer
}

type CreateCommentInput struct {
	PostID  uint
	Content string
}

func NewCommentService(store repository.Store, emitter *notifications.Emitter, views invalidation.Enqueuer) *CommentService {
	return &CommentService{store: store, emitter: emitter, views: views}
}

// CreateComment adds a comment to a post and notifies the post's author.
// Comments are immutable once written.
func (s *CommentService) CreateComment(ctx context.Context, actor identity.Actor, in CreateCommentInput) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "CreateComment",
		attribute.Int64("post.id", int64(in.PostID)))
	defer func() {
		recordMutation("comment", err)
		observability.EndSpan(span, err)
	}()

	if err := requireActor(actor); err != nil {
		return nil, err
	}

	content := validation.SanitizeText(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}
	if err := validation.CheckLength("content", content, validation.MaxCommentLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var (
		post *models.Post
		note *models.Notification
	)
	err = s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		post, err = r.Posts.GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}

		comment = &models.Comment{PostID: post.ID, AuthorID: actor.UserID, Content: content}
		if err := r.Comments.Create(ctx, comment); err != nil {
			return err
		}
		author, err := r.Users.GetByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		comment.Author = *author

		note, err = s.emitter.Emit(ctx, r.Notifications, models.NotificationComment, post.AuthorID, actor.UserID,
			notifications.Refs{PostID: uintPtr(post.ID), CommentID: uintPtr(comment.ID)})
		return err
	})
	if err != nil {
		return nil, err
	}

	if note != nil {
		s.emitter.Publish(ctx, note, comment.Author.Summary())
	}
	s.views.Enqueue(ctx,
		invalidation.Feed(),
		invalidation.Post(post.ID),
		invalidation.Author(post.AuthorID),
	)
	return comment, nil
}
