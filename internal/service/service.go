// Package service implements the social operations: identity resolution,
// follows, posts, comments, likes and the notification inbox. Services own
// transactions and authorization; repositories own SQL.
package service

import (
	"context"
	"strings"

	"murmur/internal/identity"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/repository"
)

// Paging defaults for list operations.
const (
	defaultPageSize        = 20
	maxPageSize            = 100
	defaultSuggestionCount = 3
	maxSuggestionCount     = 20
)

// ToggleResult reports the state a toggle left behind.
type ToggleResult struct {
	Active bool `json:"active"`
}

// requireActor rejects mutations by anonymous callers.
func requireActor(actor identity.Actor) error {
	if !actor.Authenticated() {
		return models.NewUnauthenticatedError()
	}
	return nil
}

// recordMutation counts a mutation by kind and outcome ("ok" or the lower-cased error code).
func recordMutation(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(models.ErrorCode(err))
		if outcome == "" {
			outcome = "internal_error"
		}
	}
	observability.SocialMutations.WithLabelValues(kind, outcome).Inc()
}

// publishAfterCommit pushes n once its transaction committed. The actor's
// summary is looked up lazily so a failed lookup only costs the push.
func publishAfterCommit(ctx context.Context, emitter *notifications.Emitter, users repository.UserRepository, n *models.Notification) {
	if emitter == nil || n == nil {
		return
	}
	creator := models.UserSummary{ID: n.CreatorID}
	if u, err := users.GetByID(ctx, n.CreatorID); err == nil {
		creator = u.Summary()
	}
	emitter.Publish(ctx, n, creator)
}

func uintPtr(v uint) *uint {
	return &v
}
