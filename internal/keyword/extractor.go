// File path: internal/keyword/extractor.go
package keyword

import (
	"regexp"
	"sort"
	"strings"
)

// tokenPattern keeps slash-joined tokens such as "a/b" intact so the domain
// expansion can recognise them.
var tokenPattern = regexp.MustCompile(`[a-z0-9]+(?:/[a-z0-9]+)?`)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "were": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {}, "them": {},
	"have": {}, "has": {}, "had": {}, "will": {}, "your": {}, "our": {},
	"did": {}, "does": {}, "done": {}, "can": {}, "could": {}, "would": {},
	"should": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "why": {}, "how": {}, "many": {}, "much": {}, "there": {},
	"here": {}, "show": {}, "give": {}, "get": {}, "all": {}, "any": {},
	"you": {}, "not": {}, "but": {}, "out": {}, "about": {}, "into": {},
	"last": {}, "next": {}, "year": {}, "month": {}, "week": {}, "day": {},
	"per": {}, "via": {}, "been": {}, "being": {}, "over": {}, "under": {},
}

// expansions maps trigger tokens to additional domain terms. Expansion is
// additive: original tokens are always retained.
var expansions = map[string][]string{
	"ab":      {"test", "experiment", "variant"},
	"a/b":     {"test", "experiment", "variant"},
	"test":    {"experiment", "variant", "winner", "ab"},
	"testing": {"experiment", "variant", "winner", "ab"},
	"winner":  {"success", "conversion", "result"},
	"winners": {"success", "conversion", "result"},
}

// Extract turns a raw question into a de-duplicated, stop-word-filtered,
// domain-expanded keyword set. The result is sorted so repeated extraction of
// the same question yields an identical slice.
func Extract(question string) []string {
	lowered := strings.ToLower(question)
	seen := make(map[string]struct{})
	for _, token := range tokenPattern.FindAllString(lowered, -1) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		seen[token] = struct{}{}
	}
	// "ab" and "a/b" are shorter than the length floor but are meaningful
	// domain triggers, so they are re-admitted before expansion.
	for _, trigger := range []string{"ab", "a/b"} {
		for _, token := range tokenPattern.FindAllString(lowered, -1) {
			if token == trigger {
				seen[token] = struct{}{}
			}
		}
	}
	// Expansion considers only the base tokens; expanded terms do not
	// trigger further expansion, which keeps the pass deterministic.
	expanded := make(map[string]struct{}, len(seen))
	for token := range seen {
		expanded[token] = struct{}{}
		for _, extra := range expansions[token] {
			expanded[extra] = struct{}{}
		}
	}
	out := make([]string, 0, len(expanded))
	for token := range expanded {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}
