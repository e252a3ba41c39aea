package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"murmur/internal/identity"
	"murmur/internal/invalidation"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingViews captures enqueued invalidation scopes.
type recordingViews struct {
	mu     sync.Mutex
	scopes []invalidation.Scope
}

func (v *recordingViews) Enqueue(_ context.Context, scopes ...invalidation.Scope) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scopes = append(v.scopes, scopes...)
}

func (v *recordingViews) all() []invalidation.Scope {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]invalidation.Scope(nil), v.scopes...)
}

// recordingPublisher captures realtime pushes by recipient.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[uint][]notifications.Event
}

func (p *recordingPublisher) PublishUser(_ context.Context, userID uint, payload string) error {
	var ev notifications.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[uint][]notifications.Event)
	}
	p.events[userID] = append(p.events[userID], ev)
	return nil
}

func (p *recordingPublisher) count(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[userID])
}

// fixture is a real store on in-memory sqlite with recording side channels.
type fixture struct {
	db        *gorm.DB
	store     repository.Store
	emitter   *notifications.Emitter
	publisher *recordingPublisher
	views     *recordingViews
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	pub := &recordingPublisher{}
	return &fixture{
		db:        db,
		store:     repository.NewStore(db),
		emitter:   notifications.NewEmitter(pub),
		publisher: pub,
		views:     &recordingViews{},
	}
}

// actor creates a user and returns the actor resolved for it.
func (f *fixture) actor(t *testing.T, username string) (identity.Actor, *models.User) {
	t.Helper()
	u := testutil.CreateUser(t, f.db, username)
	return identity.Actor{UserID: u.ID, ExternalID: u.ExternalID, Username: u.Username}, u
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	return testutil.Count(t, f.db, model, query, args...)
}

// stubStore runs Atomic callbacks directly against fixed repositories.
type stubStore struct {
	repos     repository.Repositories
	atomicErr error
}

func (s *stubStore) Repos() repository.Repositories { return s.repos }

func (s *stubStore) Atomic(_ context.Context, fn func(r repository.Repositories) error) error {
	if s.atomicErr != nil {
		return s.atomicErr
	}
	return fn(s.repos)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeUnauthorized)
}
