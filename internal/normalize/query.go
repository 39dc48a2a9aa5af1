package normalize

import (
	"regexp"
	"strings"
)

// pluralizable nouns get an optional plural suffix even without a trailing s.
var pluralizable = map[string]bool{
	"watch": true, "shoe": true, "bag": true, "glass": true, "sunglass": true,
}

// Tokenize splits a query into the effective name terms: lower-cased words
// longer than one character, each mapped through Brand. Generic product nouns
// are dropped only when the query has more than one word, so a bare "watch"
// still searches for watches.
func Tokenize(query string) []string {
	words := make([]string, 0, 4)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 1 {
			words = append(words, w)
		}
	}

	terms := make([]string, 0, len(words))
	for _, w := range words {
		term := Brand(w)
		if len(words) > 1 && IsGenericType(term) {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// TermPattern returns the regular expression source matching term in a
// product name, tolerating singular and plural forms. Matching is meant to be
// case-insensitive; the caller applies the flag.
func TermPattern(term string) string {
	lower := strings.ToLower(term)
	switch {
	case strings.HasSuffix(lower, "s"):
		base := term[:len(term)-1]
		if strings.HasSuffix(lower, "es") {
			base = base[:len(base)-1]
		}
		return regexp.QuoteMeta(base) + "e?s?"
	case pluralizable[lower]:
		return regexp.QuoteMeta(term) + "e?s?"
	default:
		return regexp.QuoteMeta(term)
	}
}

// CompileTerms compiles one case-insensitive matcher per term.
func CompileTerms(terms []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(terms))
	for _, t := range terms {
		re, err := regexp.Compile("(?i)" + TermPattern(t))
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}
