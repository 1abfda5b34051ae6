// Package slug derives unique, URL-safe identifiers from blog titles.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// ExistsFunc reports whether a candidate slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Normalize lowercases the title, strips punctuation, and joins the
// remaining words with hyphens.
func Normalize(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// Generate returns the normalized slug for title, disambiguated with a
// numeric suffix (-1, -2, ...) until exists reports the candidate free.
// Suffixes increase monotonically, so the loop terminates against any
// finite corpus.
func Generate(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base := Normalize(title)
	candidate := base
	for suffix := 1; ; suffix++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}
