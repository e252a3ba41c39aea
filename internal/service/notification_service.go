package service

import (
	"context"

	"murmur/internal/identity"
	"murmur/internal/models"
	"murmur/internal/repository"
)

// NotificationService serves the signed-in user's notification inbox.
type NotificationService struct {
	store repository.Store
}

func NewNotificationService(store repository.Store) *NotificationService {
	return &NotificationService{store: store}
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor identity.Actor, limit, offset int) ([]*models.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	limit, offset = repository.ClampPage(limit, offset, defaultPageSize, maxPageSize)
	list, err := s.store.Repos().Notifications.ListForUser(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Notification{}
	}
	return list, nil
}

// MarkRead flags the given notifications as read, or all of them when ids is
// empty. Ids belonging to other users are ignored. It returns the number of
// notifications changed.
func (s *NotificationService) MarkRead(ctx context.Context, actor identity.Actor, ids []uint) (n int64, err error) {
	defer func() { recordMutation("notification_read", err) }()

	if err := requireActor(actor); err != nil {
		return 0, err
	}
	return s.store.Repos().Notifications.MarkRead(ctx, actor.UserID, ids)
}
