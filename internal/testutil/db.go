// Package testutil provides shared fixtures for tests that need a real store.
package testutil

import (
	"testing"
	"time"

	"murmur/internal/database"
	"murmur/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory database with foreign keys enforced.
// The pool is pinned to one connection so every query sees the same memory db.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user whose external id and email derive from username.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		ExternalID: "ext_" + username,
		Email:      username + "@example.com",
		Name:       username,
		Username:   username,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a post by author. Each call is stamped one second after
// the previous post so newest-first ordering is deterministic.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, content string) *models.Post {
	t.Helper()
	var latest models.Post
	created := time.Now().UTC().Add(-time.Hour)
	if err := db.Order("created_at DESC").Limit(1).Find(&latest).Error; err == nil && latest.ID != 0 {
		created = latest.CreatedAt.Add(time.Second)
	}
	p := &models.Post{AuthorID: author.ID, Content: content, CreatedAt: created}
	require.NoError(t, db.Omit("Author", "Comments", "Likes").Create(p).Error)
	return p
}

// Count returns the number of rows of model matching the condition.
func Count(t testing.TB, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
