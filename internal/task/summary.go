package task

import (
	"regexp"
	"strings"
)

var idPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// IsValidID reports whether id is a slug of lowercase letters, digits and
// underscores.
func IsValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ParseSummary splits a list-style summary of the form "[Zone] Title".
// A summary without a bracketed prefix keeps defaultZone. Empty pieces fall
// back to the defaults, so "[] Sweep" yields (defaultZone, "Sweep") and
// "[Garage]" yields ("Garage", "[Garage]").
func ParseSummary(summary, defaultZone string) (zone, title string) {
	zone, title = defaultZone, summary
	if !strings.HasPrefix(summary, "[") {
		return zone, title
	}
	end := strings.Index(summary, "]")
	if end < 0 {
		return zone, title
	}
	if z := strings.TrimSpace(summary[1:end]); z != "" {
		zone = z
	}
	if rest := strings.TrimSpace(summary[end+1:]); rest != "" {
		title = rest
	}
	return zone, title
}

// DeriveID builds a slug id from free text: lowercased, spaces and hyphens
// become underscores, and anything other than [a-z0-9_] is dropped. The
// result may be empty.
func DeriveID(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
