package game

import (
	"regexp"
	"strings"
)

// Articles are matched anywhere in the string, not just at word starts, so
// "banana split" loses its trailing "a " and becomes one token. Lowercase
// forms only.
var articles = regexp.MustCompile(`the |a |an `)

// Normalize splits a raw utterance into candidate item words. Commas are
// stripped, articles followed by a space are removed, and the remainder is
// split on single spaces. Empty tokens are kept and nothing is deduplicated.
func Normalize(query string) []string {
	cleaned := strings.ReplaceAll(query, ",", "")
	cleaned = articles.ReplaceAllString(cleaned, "")
	return strings.Split(cleaned, " ")
}
