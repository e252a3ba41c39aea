package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"murmur/internal/identity"
	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityService_ResolveOrProvision(t *testing.T) {
	f := newFixture(t)
	svc := NewIdentityService(f.store, identity.NewVerifier("secret", "issuer", ""))
	ctx := context.Background()

	ext := identity.ExternalIdentity{
		Subject:   "user_abc",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "Ada.L",
		Email:     "ada@example.com",
		ImageURL:  "https://img.example.com/ada.png",
	}

	first, err := svc.ResolveOrProvision(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, "ada_l", first.Username)
	assert.Equal(t, "Ada Lovelace", first.Name)
	assert.Equal(t, "https://img.example.com/ada.png", first.Image)

	again, err := svc.ResolveOrProvision(ctx, ext)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, int64(1), f.count(t, &models.User{}, ""))
}

func TestIdentityService_ResolveOrProvision_HandleCollisions(t *testing.T) {
	f := newFixture(t)
	svc := NewIdentityService(f.store, nil)
	ctx := context.Background()

	f.actor(t, "grace")
	f.actor(t, "grace_2")

	u, err := svc.ResolveOrProvision(ctx, identity.ExternalIdentity{Subject: "s1", Email: "grace@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "grace_3", u.Username)

	u, err = svc.ResolveOrProvision(ctx, identity.ExternalIdentity{Subject: "s2"})
	require.NoError(t, err)
	assert.Equal(t, "user", u.Username, "falls back when neither username nor email is known")
}

func TestIdentityService_ResolveOrProvision_Validation(t *testing.T) {
	svc := NewIdentityService(&stubStore{}, nil)
	_, err := svc.ResolveOrProvision(context.Background(), identity.ExternalIdentity{Subject: "  "})
	assertValidationError(t, err)
}

func TestIdentityService_ResolveOrProvision_ConcurrentFirstContact(t *testing.T) {
	winner := &models.User{ID: 7, ExternalID: "s1", Username: "ada"}
	lookups := 0
	users := &userRepoStub{
		getByExternalIDFn: func(context.Context, string) (*models.User, error) {
			lookups++
			if lookups == 1 {
				return nil, nil
			}
			return winner, nil
		},
		takenUsernamesFn: func(context.Context, []string) ([]string, error) { return nil, nil },
		createFn: func(context.Context, *models.User) error {
			return models.NewConflictError("user", errors.New("duplicate key"))
		},
	}
	svc := NewIdentityService(&stubStore{repos: repository.Repositories{Users: users}}, nil)

	u, err := svc.ResolveOrProvision(context.Background(), identity.ExternalIdentity{Subject: "s1", Username: "ada"})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, u.ID)
}

func TestIdentityService_ResolveOrProvision_HandleClaimedMidway(t *testing.T) {
	var attempts []string
	users := &userRepoStub{
		getByExternalIDFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		takenUsernamesFn:  func(context.Context, []string) ([]string, error) { return nil, nil },
		createFn: func(_ context.Context, u *models.User) error {
			attempts = append(attempts, u.Username)
			if u.Username == "ada" {
				return models.NewConflictError("user", errors.New("duplicate key"))
			}
			u.ID = 3
			return nil
		},
	}
	svc := NewIdentityService(&stubStore{repos: repository.Repositories{Users: users}}, nil)

	u, err := svc.ResolveOrProvision(context.Background(), identity.ExternalIdentity{Subject: "s1", Username: "ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada_2", u.Username)
	assert.Equal(t, []string{"ada", "ada_2"}, attempts)
}

func TestIdentityService_ResolveOrProvision_StoreErrors(t *testing.T) {
	boom := models.NewStoreUnavailableError(errors.New("connection refused"))
	users := &userRepoStub{
		getByExternalIDFn: func(context.Context, string) (*models.User, error) { return nil, boom },
	}
	svc := NewIdentityService(&stubStore{repos: repository.Repositories{Users: users}}, nil)

	_, err := svc.ResolveOrProvision(context.Background(), identity.ExternalIdentity{Subject: "s1"})
	assertCode(t, err, models.CodeStoreUnavailable)
}

func TestIdentityService_ResolveOrProvision_AllHandlesTaken(t *testing.T) {
	users := &userRepoStub{
		getByExternalIDFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		takenUsernamesFn: func(_ context.Context, candidates []string) ([]string, error) {
			return candidates, nil
		},
	}
	svc := NewIdentityService(&stubStore{repos: repository.Repositories{Users: users}}, nil)

	_, err := svc.ResolveOrProvision(context.Background(), identity.ExternalIdentity{Subject: "s1", Username: "ada"})
	assertCode(t, err, models.CodeConflict)
}

func TestIdentityService_ResolveCurrentUser(t *testing.T) {
	f := newFixture(t)
	verifier := identity.NewVerifier("test-secret", "https://id.example.com", "")
	svc := NewIdentityService(f.store, verifier)
	ctx := context.Background()

	token, err := verifier.Sign(identity.ExternalIdentity{Subject: "sub_1", Username: "linus"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		wantErr  error
		wantAnon bool
	}{
		{"empty token is anonymous", "", nil, true},
		{"garbage token", "not-a-jwt", identity.ErrInvalidToken, true},
		{"valid token provisions", token, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := svc.ResolveCurrentUser(ctx, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, !tt.wantAnon, actor.Authenticated())
			if !tt.wantAnon {
				assert.Equal(t, "linus", actor.Username)
				assert.Equal(t, "sub_1", actor.ExternalID)
			}
		})
	}

	assert.Equal(t, int64(1), f.count(t, &models.User{}, "external_id = ?", "sub_1"))
}
