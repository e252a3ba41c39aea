package repository

import (
	"context"
	"errors"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByExternalID returns (nil, nil) when no user is bound to externalID.
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	// GetByUsername returns (nil, nil) when the handle is free.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// TakenUsernames returns the subset of candidates already in use.
	TakenUsernames(ctx context.Context, candidates []string) ([]string, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	ListSuggested(ctx context.Context, actorID uint, limit int) ([]models.UserSummary, error)
}

type userRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.read.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError("User", id, err)
	}
	return &user, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	// primary: provisioning must see a row inserted a moment ago
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError("User", err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.read.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError("User", err)
	}
	return &user, nil
}

func (r *userRepository) TakenUsernames(ctx context.Context, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	var taken []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username IN ?", candidates).
		Pluck("username", &taken).Error
	if err != nil {
		return nil, storeError("User", err)
	}
	return taken, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return storeError("User", r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{ID: user.ID}).
		Select("name", "bio", "location", "website", "image").
		Updates(user)
	if result.Error != nil {
		return storeError("User", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	return nil
}

// ListSuggested returns users the actor does not follow, most followed first.
func (r *userRepository) ListSuggested(ctx context.Context, actorID uint, limit int) ([]models.UserSummary, error) {
	var out []models.UserSummary
	err := r.read.WithContext(ctx).
		Model(&models.User{}).
		Select("users.id, users.name, users.username, users.image, " +
			"(SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id) AS follower_count").
		Where("users.id <> ?", actorID).
		Where("users.id NOT IN (SELECT following_id FROM follows WHERE follower_id = ?)", actorID).
		Order("follower_count DESC, users.id ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, storeError("User", err)
	}
	return out, nil
}
