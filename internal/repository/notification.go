package repository

import (
	"context"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository stores the append-only notification log.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error)
	// MarkRead flags the recipient's notifications as read. No ids means all of them.
	MarkRead(ctx context.Context, userID uint, ids []uint) (int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return storeError("Notification", r.db.WithContext(ctx).Omit("Creator", "Post", "Comment").Create(n).Error)
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error) {
	var out []*models.Notification
	err := r.read.WithContext(ctx).
		Preload("Creator", summaryColumns).
		Preload("Post", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "author_id", "content", "image", "created_at")
		}).
		Preload("Comment", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "post_id", "author_id", "content", "created_at")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, storeError("Notification", err)
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID uint, ids []uint) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND read = ?", userID, false)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	result := q.Update("read", true)
	if result.Error != nil {
		return 0, storeError("Notification", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.read.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&n).Error
	return n, storeError("Notification", err)
}
