package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"murmur/internal/identity"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// TokenVerifier checks a provider session token. *identity.Verifier implements it.
type TokenVerifier interface {
	Verify(token string) (*identity.ExternalIdentity, error)
}

// IdentityService maps provider identities to local users.
type IdentityService struct {
	store    repository.Store
	verifier TokenVerifier
}

func NewIdentityService(store repository.Store, verifier TokenVerifier) *IdentityService {
	return &IdentityService{store: store, verifier: verifier}
}

// ResolveCurrentUser verifies token and returns the local actor it belongs to,
// provisioning the user on first contact. An empty token is anonymous; an
// invalid one returns an error wrapping identity.ErrInvalidToken.
func (s *IdentityService) ResolveCurrentUser(ctx context.Context, token string) (identity.Actor, error) {
	if strings.TrimSpace(token) == "" {
		return identity.Anonymous(), nil
	}
	ext, err := s.verifier.Verify(token)
	if err != nil {
		return identity.Anonymous(), err
	}

	user, err := s.ResolveOrProvision(ctx, *ext)
	if err != nil {
		return identity.Anonymous(), err
	}
	return identity.Actor{UserID: user.ID, ExternalID: user.ExternalID, Username: user.Username}, nil
}

// ResolveOrProvision returns the user bound to ext.Subject, creating it when
// missing. Concurrent first contacts converge on the same row.
func (s *IdentityService) ResolveOrProvision(ctx context.Context, ext identity.ExternalIdentity) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "ResolveOrProvision",
		attribute.String("identity.subject", ext.Subject))
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(ext.Subject) == "" {
		return nil, models.NewValidationError("identity subject is required")
	}

	users := s.store.Repos().Users
	existing, err := users.GetByExternalID(ctx, ext.Subject)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	candidates := validation.HandleCandidates(validation.DeriveHandle(ext.Username, ext.Email))
	taken, err := users.TakenUsernames(ctx, candidates)
	if err != nil {
		return nil, err
	}
	inUse := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		inUse[t] = struct{}{}
	}

	name := ext.DisplayName()
	if err := validation.CheckLength("name", name, validation.MaxNameLength); err != nil {
		name = string([]rune(name)[:validation.MaxNameLength])
	}
	image := ext.ImageURL
	if validation.ValidateHTTPURL("image", image) != nil {
		image = ""
	}

	for _, handle := range candidates {
		if _, ok := inUse[handle]; ok {
			continue
		}
		candidate := &models.User{
			ExternalID: ext.Subject,
			Email:      ext.Email,
			Name:       name,
			Username:   handle,
			Image:      image,
		}
		err := users.Create(ctx, candidate)
		if err == nil {
			middleware.Logger.InfoContext(ctx, "provisioned user",
				slog.Uint64("user_id", uint64(candidate.ID)),
				slog.String("username", handle))
			return candidate, nil
		}
		if !models.IsCode(err, models.CodeConflict) {
			return nil, err
		}

		// Either another request provisioned this subject, or the handle was
		// claimed since TakenUsernames ran.
		winner, lookupErr := users.GetByExternalID(ctx, ext.Subject)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if winner != nil {
			return winner, nil
		}
	}

	return nil, models.NewConflictError("username", fmt.Errorf("no free handle for %q", candidates[0]))
}
