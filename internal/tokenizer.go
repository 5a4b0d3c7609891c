package internal

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minTokenLength = 2

// stopwords are dropped by Tokenize. Besides common English words they contain
// terms that appear in nearly every query against this store.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a an and are as at be but by can do does for from has have how i if in into
		is it its me my no not of on or our so than that the their then there these
		this those to up was we were what when where which while who why will with
		you your
		flow test mm mcp`) {
		stopwords[w] = struct{}{}
	}
}

var (
	lowerUpperBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	acronymBoundary    = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
)

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Tokenize splits free text into unique lowercase tokens, dropping short
// tokens and stopwords. Tokens keep first-seen order.
func Tokenize(text string) []string {
	seen := make(map[string]struct{})
	tokens := []string{}
	for _, w := range splitWords(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) < minTokenLength {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}
	return tokens
}

// TokenizeIdentifier splits an identifier such as a data-testid into words.
// camelCase and acronym boundaries are split before the usual separators;
// stopwords are kept.
func TokenizeIdentifier(identifier string) []string {
	spaced := lowerUpperBoundary.ReplaceAllString(identifier, "$1 $2")
	spaced = acronymBoundary.ReplaceAllString(spaced, "$1 $2")

	tokens := []string{}
	for _, w := range splitWords(strings.ToLower(spaced)) {
		if utf8.RuneCountInString(w) >= minTokenLength {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
