package textutil

import "strings"

// AssetToken converts a key into the lowercase file-name stem used for
// downloaded assets. ASCII letters and digits are kept and every other rune
// becomes an underscore. Returns "unknown" for blank input.
func AssetToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
