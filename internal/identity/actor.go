// Package identity carries the authenticated actor through the request and
// verifies session tokens issued by the external identity provider.
package identity

import "context"

// Actor is the caller on whose behalf an operation runs. The zero value is anonymous.
type Actor struct {
	UserID     uint
	ExternalID string
	Username   string
}

// Anonymous returns an actor with no resolved user.
func Anonymous() Actor { return Actor{} }

// Authenticated reports whether the actor resolved to a local user.
func (a Actor) Authenticated() bool { return a.UserID != 0 }

// Is reports whether the actor is the given local user.
func (a Actor) Is(userID uint) bool { return a.Authenticated() && a.UserID == userID }

type actorKey struct{}

// WithActor stores the actor on ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor stored on ctx, or an anonymous actor.
func FromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Anonymous()
}
