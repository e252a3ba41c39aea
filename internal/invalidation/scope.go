// Package invalidation decouples mutations from the cached read views they
// make stale. Services enqueue scopes; a Consumer applies them.
package invalidation

import (
	"fmt"
	"strconv"
	"strings"
)

// Scope names a set of cached views, e.g. "feed" or "profile:ada".
type Scope string

const (
	kindFeed        = "feed"
	kindProfile     = "profile"
	kindAuthor      = "author"
	kindPost        = "post"
	kindLiked       = "liked"
	kindSuggestions = "suggestions"
)

// Feed is the home feed.
func Feed() Scope { return kindFeed }

// Profile is the profile page of username.
func Profile(username string) Scope { return Scope(kindProfile + ":" + username) }

// Author is the list of posts written by userID.
func Author(userID uint) Scope { return scopeWithID(kindAuthor, userID) }

// Post is a single post view.
func Post(postID uint) Scope { return scopeWithID(kindPost, postID) }

// Liked is the list of posts userID liked.
func Liked(userID uint) Scope { return scopeWithID(kindLiked, userID) }

// Suggestions is the who-to-follow list computed for userID.
func Suggestions(userID uint) Scope { return scopeWithID(kindSuggestions, userID) }

func scopeWithID(kind string, id uint) Scope {
	return Scope(kind + ":" + strconv.FormatUint(uint64(id), 10))
}

// parse splits a scope into its kind and argument.
func (s Scope) parse() (kind, arg string, err error) {
	kind, arg, _ = strings.Cut(string(s), ":")
	switch kind {
	case kindFeed:
		return kind, "", nil
	case kindProfile:
		if arg == "" {
			return "", "", fmt.Errorf("scope %q: missing username", s)
		}
		return kind, arg, nil
	case kindAuthor, kindPost, kindLiked, kindSuggestions:
		if _, err := strconv.ParseUint(arg, 10, 64); err != nil {
			return "", "", fmt.Errorf("scope %q: invalid id", s)
		}
		return kind, arg, nil
	default:
		return "", "", fmt.Errorf("unknown scope %q", s)
	}
}
