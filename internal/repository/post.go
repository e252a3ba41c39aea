package repository

import (
	"context"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByID returns the bare post row.
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// GetDetailed returns the post with author, comments, likes and counts.
	GetDetailed(ctx context.Context, id uint) (*models.Post, error)
	// Delete removes the post and every row referencing it.
	Delete(ctx context.Context, id uint) error
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	ListFeed(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error)
	ListLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
}

type postRepository struct {
	db   *gorm.DB
	read *gorm.DB
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return storeError("Post", r.db.WithContext(ctx).Omit("Author", "Comments", "Likes").Create(post).Error)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, lookupError("Post", id, err)
	}
	return &post, nil
}

func (r *postRepository) GetDetailed(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := applyPostDetails(r.read.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, lookupError("Post", id, err)
	}
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("post_id = ? OR comment_id IN (?)", id, comments).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	return storeError("Post", err)
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	err := r.read.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, storeError("Post", err)
}

func (r *postRepository) ListFeed(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.list(applyPostDetails(r.read.WithContext(ctx)), limit, offset)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	q := applyPostDetails(r.read.WithContext(ctx)).Where("posts.author_id = ?", authorID)
	return r.list(q, limit, offset)
}

func (r *postRepository) ListLikedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	q := applyPostDetails(r.read.WithContext(ctx)).
		Where("posts.id IN (SELECT post_id FROM likes WHERE user_id = ?)", userID)
	return r.list(q, limit, offset)
}

func (r *postRepository) list(q *gorm.DB, limit, offset int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, limit)
	err := q.Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, storeError("Post", err)
	}
	return posts, nil
}

// applyPostDetails selects the counts as subqueries and preloads the author
// summary, the comments oldest first and the likes.
func applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.
		Select("posts.*, " +
			"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count, " +
			"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count").
		Preload("Author", summaryColumns).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC, comments.id ASC")
		}).
		Preload("Comments.Author", summaryColumns).
		Preload("Likes")
}
