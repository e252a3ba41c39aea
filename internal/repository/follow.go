package repository

import (
	"context"

	"murmur/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository manages directed follow edges.
type FollowRepository interface {
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	// Create returns a Conflict error when the edge already exists.
	Create(ctx context.Context, followerID, followingID uint) error
	// Delete reports whether an edge was removed.
	Delete(ctx context.Context, followerID, followingID uint) (bool, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, storeError("Follow", err)
	}
	return count > 0, nil
}

func (r *followRepository) Create(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationError("You cannot follow yourself")
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
	if result.Error != nil {
		return storeError("Follow", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewConflictError("Follow", nil)
	}
	return nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, storeError("Follow", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.read.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&n).Error
	return n, storeError("Follow", err)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.read.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&n).Error
	return n, storeError("Follow", err)
}
