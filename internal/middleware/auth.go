// Package middleware provides authentication, logging, metrics and rate limiting for the HTTP layer.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"murmur/internal/identity"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ActorResolver turns a raw provider session token into a local actor,
// provisioning the user on first contact.
type ActorResolver interface {
	ResolveCurrentUser(ctx context.Context, token string) (identity.Actor, error)
}

// Authenticate resolves the caller once per request and stores the actor in
// locals and in the user context. Missing or invalid tokens yield an anonymous
// actor; AuthRequired decides whether that is acceptable.
func Authenticate(resolver ActorResolver, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c, cookieName)
		if token == "" {
			AuthOutcomes.WithLabelValues("anonymous").Inc()
			setActor(c, identity.Anonymous())
			return c.Next()
		}

		actor, err := resolver.ResolveCurrentUser(c.UserContext(), token)
		switch {
		case err == nil:
			AuthOutcomes.WithLabelValues("resolved").Inc()
		case errors.Is(err, identity.ErrInvalidToken):
			AuthOutcomes.WithLabelValues("rejected").Inc()
			Logger.DebugContext(c.UserContext(), "ignoring invalid session token", slog.String("error", err.Error()))
			actor = identity.Anonymous()
		default:
			AuthOutcomes.WithLabelValues("error").Inc()
			Logger.ErrorContext(c.UserContext(), "failed to resolve session", slog.String("error", err.Error()))
			return models.RespondWithAppError(c, err)
		}

		setActor(c, actor)
		return c.Next()
	}
}

// AuthRequired rejects anonymous callers. It must run after Authenticate.
func AuthRequired(c *fiber.Ctx) error {
	if !Actor(c).Authenticated() {
		return models.RespondWithAppError(c, models.NewUnauthenticatedError())
	}
	return c.Next()
}

// Actor returns the actor resolved for this request.
func Actor(c *fiber.Ctx) identity.Actor {
	return identity.FromContext(c.UserContext())
}

func setActor(c *fiber.Ctx, actor identity.Actor) {
	ctx := identity.WithActor(c.UserContext(), actor)
	if actor.Authenticated() {
		ctx = context.WithValue(ctx, UserIDKey, actor.UserID)
	}
	c.SetUserContext(ctx)
}

// sessionToken reads the bearer header, then the session cookie, then the
// token query parameter used by websocket upgrades.
func sessionToken(c *fiber.Ctx, cookieName string) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName != "" {
		if v := c.Cookies(cookieName); v != "" {
			return v
		}
	}
	if strings.HasPrefix(c.Path(), "/api/ws") {
		return c.Query("token")
	}
	return ""
}
