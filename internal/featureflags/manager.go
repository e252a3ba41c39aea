// Package featureflags evaluates runtime switches configured through FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	// FlagRealtimePush gates websocket pushes of new notifications, per recipient.
	FlagRealtimePush = "realtime_push"
	// FlagViewInvalidation gates the cache invalidation consumer.
	FlagViewInvalidation = "view_invalidation"
)

// defaults apply to known flags that FEATURE_FLAGS leaves out.
var defaults = map[string]string{
	FlagRealtimePush:     "on",
	FlagViewInvalidation: "on",
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "realtime_push=25%,view_invalidation=off"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config
// string. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, ok := percentage(value)
	switch {
	case !ok || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	default:
		return rolloutBucket(name, userID) < pct
	}
}

// EnabledGlobally reports whether a flag is switched on for the whole
// process. Partial rollouts count as off.
func (m *Manager) EnabledGlobally(name string) bool {
	if m == nil {
		return false
	}
	switch v := m.flags[normalize(name)]; v {
	case "on", "true", "1":
		return true
	default:
		pct, ok := percentage(v)
		return ok && pct >= 100
	}
}

// Gate returns a per-user predicate for name.
func (m *Manager) Gate(name string) func(userID uint) bool {
	return func(userID uint) bool { return m.Enabled(name, userID) }
}

// Names returns the configured flag names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.flags))
	for k := range m.flags {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func percentage(value string) (int, bool) {
	raw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return pct, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
