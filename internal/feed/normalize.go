package feed

import (
	"regexp"
	"strings"
)

// Some feed renderers echo a category breadcrumb before the headline,
// e.g. "< 경제 Market rallies". Matches the stray fragment including the
// surrounding single spaces.
var breadcrumbPattern = regexp.MustCompile(`\s?<\s?[\w가-힣]*\s?`)

// Normalize cleans a raw feed title: breadcrumb fragments are removed and
// the trailing " - {source}" publisher suffix is stripped when the source
// label is known. Idempotent.
func Normalize(title, source string) string {
	title = breadcrumbPattern.ReplaceAllString(title, "")

	if source != "" {
		suffix := " - " + source
		for strings.HasSuffix(title, suffix) {
			title = strings.TrimSuffix(title, suffix)
		}
	}

	return title
}
