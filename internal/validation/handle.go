package validation

import (
	"strconv"
	"strings"
)

const (
	// MaxHandleLength bounds a username including any numeric suffix.
	MaxHandleLength = 30
	// MaxHandleSuffix is the highest numeric suffix tried on a collision.
	MaxHandleSuffix = 50
	fallbackHandle  = "user"
)

// NormalizeHandle lower-cases raw, maps every character outside [a-z0-9_]
// to an underscore, collapses runs of underscores and trims them from both
// ends. It returns "" when nothing usable is left.
func NormalizeHandle(raw string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if len(out) > MaxHandleLength {
		out = strings.TrimRight(out[:MaxHandleLength], "_")
	}
	return out
}

// DeriveHandle picks the base handle for a new user: the provider username,
// else the local part of the email address, else "user".
func DeriveHandle(providerUsername, email string) string {
	if h := NormalizeHandle(providerUsername); h != "" {
		return h
	}
	local, _, _ := strings.Cut(email, "@")
	if h := NormalizeHandle(local); h != "" {
		return h
	}
	return fallbackHandle
}

// HandleCandidates returns base followed by base_2 ... base_N in the order
// they are tried. base is shortened so every candidate fits MaxHandleLength.
func HandleCandidates(base string) []string {
	maxBase := MaxHandleLength - len("_"+strconv.Itoa(MaxHandleSuffix))
	stem := base
	if len(stem) > maxBase {
		stem = strings.TrimRight(stem[:maxBase], "_")
	}

	out := make([]string, 0, MaxHandleSuffix)
	out = append(out, base)
	for i := 2; i <= MaxHandleSuffix; i++ {
		out = append(out, stem+"_"+strconv.Itoa(i))
	}
	return out
}
