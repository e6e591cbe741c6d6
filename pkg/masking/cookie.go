package masking

import "strings"

const cookiePairMaskerName = "cookie_pairs"

// CookiePairMasker masks each name=value pair of a Cookie or Set-Cookie
// header individually, so "session=abcdef; theme=dark" becomes
// "session=[REDACTED]; theme=[REDACTED]" rather than collapsing the whole
// header to one opaque placeholder — every value is redacted, while the
// cookie names stay readable for correlation and debugging.
type CookiePairMasker struct{}

// Name returns the masker's registry key.
func (m *CookiePairMasker) Name() string { return cookiePairMaskerName }

// AppliesTo reports whether data looks like a semicolon-delimited cookie
// header rather than a single opaque token.
func (m *CookiePairMasker) AppliesTo(data string) bool {
	return strings.Contains(data, "=")
}

// Mask redacts the value half of every "name=value" pair. Pairs that don't
// parse (no "=") are left untouched rather than dropped.
func (m *CookiePairMasker) Mask(data string) string {
	pairs := strings.Split(data, ";")
	for i, pair := range pairs {
		trimmed := strings.TrimSpace(pair)
		name, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			continue
		}
		pairs[i] = " " + name + "=" + redactValue(value)
	}
	result := strings.Join(pairs, ";")
	return strings.TrimPrefix(result, " ")
}
