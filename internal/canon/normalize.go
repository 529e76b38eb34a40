package canon

import "strings"

// Normalize reduces a raw label to a comparable token: lowercase with every
// non-alphanumeric character removed ("Los Angeles Lakers" -> "losangeleslakers").
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
