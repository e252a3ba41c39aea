// Package validation normalises and checks user-supplied text.
package validation

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Limits on user-supplied fields, in characters.
const (
	MaxPostLength     = 5000
	MaxCommentLength  = 2000
	MaxNameLength     = 100
	MaxBioLength      = 500
	MaxLocationLength = 100
	MaxWebsiteLength  = 255
)

var policy = bluemonday.StrictPolicy()

// maxSanitizePasses bounds how many layers of entity escaping are peeled off.
const maxSanitizePasses = 5

// SanitizeText strips all markup from s and trims surrounding whitespace.
// The result is stored as plain text, so entities are decoded; decoding can
// reveal escaped markup, which is stripped on the next pass. Input still
// changing after maxSanitizePasses is returned entity-escaped.
func SanitizeText(s string) string {
	out := s
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(policy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	return strings.TrimSpace(policy.Sanitize(out))
}

// CheckLength fails when s has more than max characters.
func CheckLength(field, s string, max int) error {
	if n := utf8.RuneCountInString(s); n > max {
		return fmt.Errorf("%s must be at most %d characters (got %d)", field, max, n)
	}
	return nil
}

// ValidateHTTPURL accepts an empty string or an absolute http(s) URL.
func ValidateHTTPURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", field)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(field + " must use http or https")
	}
	return nil
}
