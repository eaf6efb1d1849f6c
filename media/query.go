package media

import (
	"regexp"
	"strings"
)

var (
	parenPattern     = regexp.MustCompile(`\([^)]*\)`)
	yearRangePattern = regexp.MustCompile(`(\d{4})[-–](\d{4})`)
)

// simplifyQuery strips the parts of a subject that confuse image search —
// parenthesized generation codes, unicode dashes, hyphenated year ranges —
// while keeping the searchable brand/model/era words.
func simplifyQuery(query string) string {
	s := parenPattern.ReplaceAllString(query, "")
	s = strings.NewReplacer("–", " ", "—", " ").Replace(s)
	s = yearRangePattern.ReplaceAllString(s, "$1 $2")
	return strings.Join(strings.Fields(s), " ")
}
