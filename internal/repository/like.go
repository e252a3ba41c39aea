package repository

import (
	"context"

	"murmur/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository manages (user, post) like rows. Uniqueness is the primary key.
type LikeRepository interface {
	Exists(ctx context.Context, userID, postID uint) (bool, error)
	// Create returns a Conflict error when the like already exists.
	Create(ctx context.Context, userID, postID uint) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, userID, postID uint) (bool, error)
}

// likeRepository always reads from the primary.
type likeRepository struct {
	db *gorm.DB
}

func (r *likeRepository) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, storeError("Like", err)
	}
	return count > 0, nil
}

func (r *likeRepository) Create(ctx context.Context, userID, postID uint) error {
	// ON CONFLICT DO NOTHING keeps a surrounding Postgres transaction usable
	// when a concurrent caller inserted the same pair first.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{UserID: userID, PostID: postID})
	if result.Error != nil {
		return storeError("Like", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewConflictError("Like", nil)
	}
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, storeError("Like", result.Error)
	}
	return result.RowsAffected > 0, nil
}
