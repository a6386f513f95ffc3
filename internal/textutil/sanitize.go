package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes name usable as a single path segment on every
// platform the output tree is shared with. Separators, colons and asterisks
// become dashes; quotes, wildcards, pipes and control characters are
// dropped; runs of whitespace collapse to one space. Names that reduce to
// "." or ".." yield "".
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	space := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			r = '-'
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if strings.Trim(out, ".") == "" {
		return ""
	}
	return out
}
