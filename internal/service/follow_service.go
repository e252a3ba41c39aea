package service

import (
	"context"

	"murmur/internal/cache"
	"murmur/internal/identity"
	"murmur/internal/invalidation"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type FollowService struct {
	store   repository.Store
	emitter *notifications.Emitter
	views   invalidation.Enqueuer
}

func NewFollowService(store repository.Store, emitter *notifications.Emitter, views invalidation.Enqueuer) *FollowService {
	return &FollowService{store: store, emitter: emitter, views: views}
}

// ToggleFollow makes actor follow targetID, or unfollow when the edge exists.
// The edge and the FOLLOW notification commit together.
func (s *FollowService) ToggleFollow(ctx context.Context, actor identity.Actor, targetID uint) (res ToggleResult, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "ToggleFollow",
		attribute.Int64("follow.target_id", int64(targetID)))
	defer func() {
		recordMutation("follow", err)
		observability.EndSpan(span, err)
	}()

	if err := requireActor(actor); err != nil {
		return res, err
	}
	if actor.Is(targetID) {
		return res, models.NewValidationError("You cannot follow yourself")
	}

	var (
		target *models.User
		note   *models.Notification
	)
	err = s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		target, err = r.Users.GetByID(ctx, targetID)
		if err != nil {
			return err
		}

		exists, err := r.Follows.Exists(ctx, actor.UserID, targetID)
		if err != nil {
			return err
		}
		if exists {
			if _, err := r.Follows.Delete(ctx, actor.UserID, targetID); err != nil {
				return err
			}
			res.Active = false
			return nil
		}

		if err := r.Follows.Create(ctx, actor.UserID, targetID); err != nil {
			if models.IsCode(err, models.CodeConflict) {
				// a concurrent request already created the edge
				res.Active = true
				return nil
			}
			return err
		}
		note, err = s.emitter.Emit(ctx, r.Notifications, models.NotificationFollow, targetID, actor.UserID, notifications.Refs{})
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
		invalidation.Profile(target.Username),
		invalidation.Profile(actor.Username),
		invalidation.Suggestions(actor.UserID),
	)
	return res, nil
}

// IsFollowing reports whether actor follows targetID. Anonymous actors follow no one.
func (s *FollowService) IsFollowing(ctx context.Context, actor identity.Actor, targetID uint) (bool, error) {
	if !actor.Authenticated() {
		return false, nil
	}
	return s.store.Repos().Follows.Exists(ctx, actor.UserID, targetID)
}

// ListSuggested returns up to limit users the actor does not follow yet,
// most-followed first.
func (s *FollowService) ListSuggested(ctx context.Context, actor identity.Actor, limit int) ([]models.UserSummary, error) {
	if !actor.Authenticated() {
		return []models.UserSummary{}, nil
	}
	limit, _ = repository.ClampPage(limit, 0, defaultSuggestionCount, maxSuggestionCount)

	var users []models.UserSummary
	err := cache.Aside(ctx, cache.SuggestionsKey(actor.UserID, limit), &users, cache.SuggestionsTTL, func() error {
		var err error
		users, err = s.store.Repos().Users.ListSuggested(ctx, actor.UserID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return users, nil
}
