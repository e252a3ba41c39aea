package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=abc%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("broken", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires a user")

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 80)
}

func TestDefaults(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.EnabledGlobally(FlagViewInvalidation))
	assert.True(t, m.Enabled(FlagRealtimePush, 7))

	m = NewManager("view_invalidation=off, REALTIME_PUSH = 50%")
	assert.False(t, m.EnabledGlobally(FlagViewInvalidation))
	assert.False(t, m.EnabledGlobally(FlagRealtimePush), "partial rollouts are not global")
	assert.Equal(t, m.Enabled(FlagRealtimePush, 9), m.Gate(FlagRealtimePush)(9))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off,=on,w= ")

	assert.Equal(t, []string{"realtime_push", "view_invalidation", "x", "y", "z"}, m.Names())

	snap := m.Snapshot(1)
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
	assert.Len(t, snap, 5)
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(FlagRealtimePush, 1))
	assert.False(t, m.EnabledGlobally(FlagViewInvalidation))
}
