package shared

import (
	"regexp"
	"strings"
)

// MaxTitleLength is the longest destination playlist title accepted.
const MaxTitleLength = 100

var (
	unsafeTitleChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-\(\)]`)
	titleSpaces      = regexp.MustCompile(`\s+`)
)

// SanitizeTitle strips characters unsafe for a display title, collapses whitespace
// and truncates the result to [MaxTitleLength] runes.
func SanitizeTitle(s string) string {
	s = unsafeTitleChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(titleSpaces.ReplaceAllString(s, " "))
	if r := []rune(s); len(r) > MaxTitleLength {
		s = strings.TrimSpace(string(r[:MaxTitleLength]))
	}
	return s
}
