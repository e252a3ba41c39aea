package models

import "time"

// NotificationType names the interaction a notification reports.
type NotificationType string

const (
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
	NotificationFollow  NotificationType = "FOLLOW"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow:
		return true
	}
	return false
}

// Notification records that CreatorID did something that concerns UserID.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notifications_recipient,priority:1" json:"user_id"`
	CreatorID uint             `gorm:"not null" json:"creator_id"`
	Creator   User             `gorm:"foreignKey:CreatorID" json:"creator"`
	Type      NotificationType `gorm:"size:16;not null" json:"type"`
	PostID    *uint            `gorm:"index" json:"post_id,omitempty"`
	Post      *Post            `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	CommentID *uint            `gorm:"index" json:"comment_id,omitempty"`
	Comment   *Comment         `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"comment,omitempty"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time        `gorm:"index:idx_notifications_recipient,priority:2" json:"created_at"`
}
