package pubsite

import (
	"strings"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SlugifyPath slugifies each slash separated segment of s, dropping empty
// ones: "2020/My Notes" becomes "2020/my-notes".
func SlugifyPath(s string) string {
	var parts []string
	for _, seg := range strings.Split(s, "/") {
		if seg = Slugify(seg); seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitTags parses a comma separated form value into trimmed tags.
func splitTags(s string) []string {
	return FilterEmpty(strings.Split(s, ","))
}
