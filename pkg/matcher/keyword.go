package matcher

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeywordTokens splits a keyword phrase on single spaces and drops
// single-character tokens. An empty result means the rule is too noisy to
// search at all.
func KeywordTokens(keyword string) []string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}

	words := strings.Split(keyword, " ")
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) == 1 {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// SearchQuery returns the query sent to the marketplace for a keyword, and
// false when every token was dropped.
func SearchQuery(keyword string) (string, bool) {
	tokens := KeywordTokens(keyword)
	if len(tokens) == 0 {
		return "", false
	}
	return strings.Join(tokens, " "), true
}

// NegativeTokens splits a negative keyword phrase on any whitespace.
func NegativeTokens(phrase string) []string {
	return strings.Fields(phrase)
}

// lower applies Unicode full case mapping, which differs from
// strings.ToLower for a handful of runes (e.g. U+0130).
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
