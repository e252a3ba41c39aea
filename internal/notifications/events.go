package notifications

import (
	"encoding/json"
	"time"

	"murmur/internal/models"
)

// Realtime event types sent over the websocket.
const (
	EventNotificationCreated = "notification_created"
	EventViewInvalidated     = "view_invalidated"
	EventMessagesDropped     = "messages_dropped"
)

// Event is the envelope of every realtime message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals the event for publishing.
func (e Event) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NotificationPayload is the realtime view of a freshly written notification.
type NotificationPayload struct {
	ID        uint                    `json:"id"`
	Type      models.NotificationType `json:"type"`
	Creator   models.UserSummary      `json:"creator"`
	PostID    *uint                   `json:"post_id,omitempty"`
	CommentID *uint                   `json:"comment_id,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}
