package rules

import (
	"regexp"
	"strings"
)

// stopWords are dropped during keyword extraction. Besides the usual
// articles and conjunctions this includes the verbs people reach for when
// writing trigger rules, which carry no signal of their own.
var stopWords = map[string]struct{}{
	"if": {}, "then": {}, "when": {}, "the": {}, "a": {}, "an": {},
	"and": {}, "or": {}, "but": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"to": {}, "from": {}, "in": {}, "on": {}, "at": {}, "for": {}, "with": {},
	"invoke": {}, "trigger": {}, "agent": {}, "rule": {},
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// ExtractKeywords tokenizes a natural-language rule into a deduplicated
// list of lowercase keywords. Tokens of length <= 2 and stop words are
// discarded. Order of first occurrence is preserved.
func ExtractKeywords(ruleNL string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(ruleNL), " ")

	seen := make(map[string]struct{})
	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}
