package utils

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 80 {
		out = strings.TrimSuffix(out[:80], "-")
	}
	return out
}

// SlugOrRandom falls back to a short random slug when s has no usable characters.
func SlugOrRandom(s string) string {
	if slug := Slugify(s); slug != "" {
		return slug
	}
	return uuid.NewString()[:8]
}

// UsernameFrom derives a username candidate from a login or email address.
func UsernameFrom(login, email string) string {
	base := login
	if base == "" {
		base, _, _ = strings.Cut(email, "@")
	}
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) > 24 {
		name = name[:24]
	}
	for len(name) < 3 {
		name += "0"
	}
	return name
}
