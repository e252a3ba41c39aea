package cache

import (
	"context"
	"fmt"
	"time"
)

// Key layout of the cached read views. Every key lives under "view:" so a
// scope can be cleared by prefix.
const (
	feedKeyPrefix        = "view:feed:"
	postKeyFmt           = "view:post:%d"
	profileKeyFmt        = "view:profile:%s"
	authorPostsKeyPrefix = "view:author:%d:"
	likedKeyPrefix       = "view:liked:%d:"
	suggestionsKeyFmt    = "view:suggestions:%d"
)

const (
	FeedTTL        = 30 * time.Second
	PostTTL        = 2 * time.Minute
	ProfileTTL     = 5 * time.Minute
	AuthorPostsTTL = 2 * time.Minute
	LikedTTL       = 2 * time.Minute
	SuggestionsTTL = 10 * time.Minute
)

// FeedKey is the cache key of one feed page.
func FeedKey(limit, offset int) string {
	return fmt.Sprintf("%s%d:%d", feedKeyPrefix, limit, offset)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(postKeyFmt, postID)
}

func ProfileKey(username string) string {
	return fmt.Sprintf(profileKeyFmt, username)
}

func AuthorPostsKey(userID uint, limit, offset int) string {
	return fmt.Sprintf(authorPostsKeyPrefix+"%d:%d", userID, limit, offset)
}

func LikedKey(userID uint, limit, offset int) string {
	return fmt.Sprintf(likedKeyPrefix+"%d:%d", userID, limit, offset)
}

func SuggestionsKey(userID uint, limit int) string {
	return fmt.Sprintf(suggestionsKeyFmt+":%d", userID, limit)
}

// FeedPattern matches every cached feed page.
func FeedPattern() string { return feedKeyPrefix + "*" }

// AuthorPostsPattern matches every cached page of userID's posts.
func AuthorPostsPattern(userID uint) string {
	return fmt.Sprintf(authorPostsKeyPrefix, userID) + "*"
}

// LikedPattern matches every cached page of posts userID liked.
func LikedPattern(userID uint) string {
	return fmt.Sprintf(likedKeyPrefix, userID) + "*"
}

// SuggestionsPattern matches every cached suggestion list for userID.
func SuggestionsPattern(userID uint) string {
	return fmt.Sprintf(suggestionsKeyFmt, userID) + ":*"
}

// Invalidate deletes keys. It is a no-op without a client.
func Invalidate(ctx context.Context, keys ...string) error {
	if client == nil || len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}

// InvalidatePattern deletes every key matching pattern using SCAN.
func InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	if client == nil {
		return 0, nil
	}

	deleted := 0
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := client.Del(ctx, batch...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if len(batch) > 0 {
		if err := client.Del(ctx, batch...).Err(); err != nil {
			return deleted, err
		}
		deleted += len(batch)
	}
	return deleted, nil
}
