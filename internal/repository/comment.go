package repository

import (
	"context"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations. Comments are
// read back through the post they belong to.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
}

type commentRepository struct {
	db *gorm.DB
}

// Create inserts the comment. A post deleted since it was read surfaces as NotFound.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return storeError("Comment", r.db.WithContext(ctx).Omit("Author").Create(comment).Error)
}
