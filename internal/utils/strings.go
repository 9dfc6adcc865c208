package utils

import (
	"strings"
	"unicode"
)

// TrimOrEmpty normalizes user input without turning nil into "nil".
func TrimOrEmpty(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeSpace collapses repeated whitespace into a single space.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SnakeCase converts "tavtDealerPenaltyPercentage" into
// "tavt_dealer_penalty_percentage".
func SnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LookupKey returns the first value found under key, its snake_case form or
// its lowercase form.
func LookupKey(m map[string]any, key string) (any, bool) {
	for _, k := range []string{key, SnakeCase(key), strings.ToLower(key)} {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}
