package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the entity repositories bound to one database handle,
// either the shared pool or a single transaction.
type Repositories struct {
	Users         UserRepository
	Posts         PostRepository
	Comments      CommentRepository
	Likes         LikeRepository
	Follows       FollowRepository
	Notifications NotificationRepository
}

// Store is the unit of work used by the services.
type Store interface {
	// Repos returns repositories on the shared pool. Reads may go to the replica.
	Repos() Repositories
	// Atomic runs fn inside one transaction. Every write made through the
	// repositories passed to fn commits or rolls back together.
	Atomic(ctx context.Context, fn func(r Repositories) error) error
}

type gormStore struct {
	db    *gorm.DB
	repos Repositories
}

// NewStore creates a Store on db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db, repos: newRepositories(db, readDB(db))}
}

func newRepositories(db, read *gorm.DB) Repositories {
	return Repositories{
		Users:         &userRepository{db: db, read: read},
		Posts:         &postRepository{db: db, read: read},
		Comments:      &commentRepository{db: db},
		Likes:         &likeRepository{db: db},
		Follows:       &followRepository{db: db, read: read},
		Notifications: &notificationRepository{db: db, read: read},
	}
}

func (s *gormStore) Repos() Repositories {
	return s.repos
}

func (s *gormStore) Atomic(ctx context.Context, fn func(r Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// reads inside the transaction must see its own writes
		return fn(newRepositories(tx, tx))
	})
	return storeError("transaction", err)
}
