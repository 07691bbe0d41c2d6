package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// lowercases and strips all whitespace so scraped names survive the
// inconsistent padding the stats pages put around tags
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func EqualNames(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// collapses runs of inner whitespace into a single space and trims the ends
func CollapseWhitespace(s string) string {
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}
