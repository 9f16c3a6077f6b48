// Package slug builds and validates the URL-safe identifiers used for
// public profile and tenant addresses.
package slug

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	whitespace      = regexp.MustCompile(`\s+`)
	valid           = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,38}[a-z0-9])?$`)
)

// reserved slugs collide with top-level routes of the public site.
var reserved = map[string]bool{
	"admin": true, "api": true, "app": true, "login": true, "signup": true,
	"u": true, "v1": true, "static": true, "healthz": true, "readyz": true, "metrics": true,
}

// Generate creates a slug from free text.
// Example: "Café da Ana, Pinheiros" → "cafe-da-ana-pinheiros"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(stripAccents(s)))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > 40 {
		result = strings.Trim(result[:40], "-")
	}
	return result
}

// Valid reports whether s is an acceptable slug: lowercase letters, digits
// and inner hyphens, 1..40 characters, not reserved.
func Valid(s string) bool {
	if reserved[s] || strings.Contains(s, "--") {
		return false
	}
	return valid.MatchString(s)
}

func stripAccents(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if r >= 0x300 && r <= 0x36f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
