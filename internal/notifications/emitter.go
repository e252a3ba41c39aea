package notifications

import (
	"context"
	"log/slog"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
)

// Publisher delivers an encoded event to one user. *Notifier implements it.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// Refs are the optional entities a notification points at.
type Refs struct {
	PostID    *uint
	CommentID *uint
}

// Emitter writes notifications inside the caller's transaction and pushes
// them to the recipient once that transaction has committed.
type Emitter struct {
	publisher Publisher
	enabled   func(recipientID uint) bool
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithPushGate restricts realtime pushes to recipients for which gate returns true.
func WithPushGate(gate func(recipientID uint) bool) EmitterOption {
	return func(e *Emitter) { e.enabled = gate }
}

// NewEmitter creates an Emitter. A nil publisher disables realtime pushes.
func NewEmitter(publisher Publisher, opts ...EmitterOption) *Emitter {
	e := &Emitter{publisher: publisher}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit records that actor did kind to something recipient owns. It writes
// through repo, which must be bound to the mutation's transaction, so a failed
// insert rolls the mutation back. Self-actions return (nil, nil).
func (e *Emitter) Emit(
	ctx context.Context,
	repo repository.NotificationRepository,
	kind models.NotificationType,
	recipientID, actorID uint,
	refs Refs,
) (*models.Notification, error) {
	if !kind.Valid() {
		return nil, models.NewValidationError("unknown notification type " + string(kind))
	}
	if recipientID == actorID {
		observability.NotificationsSuppressed.WithLabelValues(string(kind)).Inc()
		return nil, nil
	}

	n := &models.Notification{
		UserID:    recipientID,
		CreatorID: actorID,
		Type:      kind,
		PostID:    refs.PostID,
		CommentID: refs.CommentID,
	}
	if err := repo.Create(ctx, n); err != nil {
		return nil, err
	}
	observability.NotificationsEmitted.WithLabelValues(string(kind)).Inc()
	return n, nil
}

// Publish pushes n to its recipient. Call it only after the transaction that
// wrote n has committed. Failures are logged and counted, never returned.
func (e *Emitter) Publish(ctx context.Context, n *models.Notification, creator models.UserSummary) {
	if n == nil || e.publisher == nil {
		return
	}
	if e.enabled != nil && !e.enabled(n.UserID) {
		return
	}

	payload, err := Event{
		Type: EventNotificationCreated,
		Payload: NotificationPayload{
			ID:        n.ID,
			Type:      n.Type,
			Creator:   creator,
			PostID:    n.PostID,
			CommentID: n.CommentID,
			CreatedAt: n.CreatedAt,
		},
	}.Encode()
	if err == nil {
		err = e.publisher.PublishUser(ctx, n.UserID, payload)
	}
	if err != nil {
		observability.RealtimePublishFailures.Inc()
		middleware.Logger.WarnContext(ctx, "failed to push notification",
			slog.Uint64("recipient_id", uint64(n.UserID)),
			slog.String("type", string(n.Type)),
			slog.String("error", err.Error()))
	}
}
