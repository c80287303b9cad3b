// Package pattern decides whether a transaction description satisfies a
// human-authored keyword pattern. Matching is pure, deterministic, and
// case-insensitive.
package pattern

import (
	"regexp"
	"strings"
)

var (
	// Corporate suffixes stripped before the cleaned-text comparison.
	corporateSuffixRe = regexp.MustCompile(`\b(pty ltd|ltd|inc|group|store|shop)\b`)
	digitsRe          = regexp.MustCompile(`[0-9]+`)
	punctuationRe     = regexp.MustCompile(`[^a-z\s]`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// Matches reports whether description satisfies pattern. Strategies are
// evaluated in order: whole-word boundary match on the raw text, the same
// match on cleaned text, then an in-order multi-word match for cleaned
// patterns of two or more words. An empty pattern never matches.
func Matches(description, pattern string) bool {
	desc := strings.ToLower(strings.TrimSpace(description))
	pat := strings.ToLower(strings.TrimSpace(pattern))

	if pat == "" || desc == "" {
		return false
	}

	if boundaryMatch(desc, pat) {
		return true
	}

	cleanDesc := Clean(desc)
	cleanPat := Clean(pat)
	if cleanPat == "" || cleanDesc == "" {
		return false
	}

	if boundaryMatch(cleanDesc, cleanPat) {
		return true
	}

	words := strings.Fields(cleanPat)
	if len(words) >= 2 {
		return multiWordMatch(cleanDesc, words)
	}

	return false
}

// Clean normalizes text for fuzzy comparison: lowercases, strips corporate
// suffixes, digits and punctuation, and collapses whitespace.
func Clean(text string) string {
	text = strings.ToLower(text)
	text = corporateSuffixRe.ReplaceAllString(text, " ")
	text = digitsRe.ReplaceAllString(text, " ")
	text = punctuationRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// boundaryMatch requires the pattern to appear with word boundaries on both
// sides, so "interest" never matches inside "disinterest".
func boundaryMatch(text, pat string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(pat) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// multiWordMatch requires every pattern word to appear in the text in order,
// separated by arbitrary whitespace.
func multiWordMatch(text string, words []string) bool {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`\b` + strings.Join(quoted, `\s+`) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
