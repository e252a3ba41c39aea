package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
		id, ok := parseUserChannel(tt.expected)
		assert.True(t, ok)
		assert.Equal(t, tt.userID, id)
	}

	for _, bad := range []string{"notifications:user:", "notifications:user:x", "notifications:user:0", "chat:conv:1"} {
		_, ok := parseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "x"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "x"))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()

	a1, err := hub.Register(1, nil)
	require.NoError(t, err)
	a2, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.ConnectionCount(1))

	hub.Broadcast(1, "for-ada")
	assert.Equal(t, "for-ada", string(<-a1.Send))
	assert.Equal(t, "for-ada", string(<-a2.Send))
	assert.Empty(t, b.Send)

	hub.BroadcastAll("everyone")
	assert.Equal(t, "everyone", string(<-b.Send))
	<-a1.Send
	<-a2.Send

	hub.UnregisterClient(a1)
	hub.UnregisterClient(a1)
	assert.Equal(t, 1, hub.ConnectionCount(1))
	_, open := <-a1.Send
	assert.False(t, open)

	require.NoError(t, hub.Shutdown(context.Background()))
	_, err = hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrServerFull)
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(7, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(7, nil)
	assert.ErrorIs(t, err, ErrUserFull)
	_ = hub.Shutdown(context.Background())
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)

	hub.UnregisterClient(c)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestHub_StartWiringDeliversRedisMessages(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub()
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ada, err := hub.Register(1, nil)
	require.NoError(t, err)
	bob, err := hub.Register(2, nil)
	require.NoError(t, err)

	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.PublishUser(ctx, 1, `{"type":"notification_created"}`))
	assert.Eventually(t, func() bool { return len(ada.Send) == 1 }, testEventuallyTimeout, testPollInterval)
	assert.Empty(t, bob.Send)

	require.NoError(t, n.PublishBroadcast(ctx, `{"type":"view_invalidated"}`))
	assert.Eventually(t, func() bool { return len(bob.Send) == 1 && len(ada.Send) == 2 }, testEventuallyTimeout, testPollInterval)

	_ = hub.Shutdown(context.Background())
}
