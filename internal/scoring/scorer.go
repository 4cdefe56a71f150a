// File path: internal/scoring/scorer.go
package scoring

import (
	"strings"
)

// Config carries the tuned scoring constants. The defaults reproduce the
// behaviour the rest of the system is calibrated against; they are
// configuration, not law.
type Config struct {
	KeywordInName        float64
	WordOverlapInName    float64
	SharedCharacter      float64
	SharedCharacterFloor int

	KeywordInDescription float64
	PhraseInDescription  float64
	WordOverlapInDesc    float64
	BusinessTermBonus    float64

	ExperimentBoost   float64
	UserBehaviorBoost float64

	ComprehensiveMultiplier float64

	// Description weights by target class.
	ModelDescriptionWeight     float64
	DashboardDescriptionWeight float64
}

// DefaultConfig returns the calibrated constants.
func DefaultConfig() Config {
	return Config{
		KeywordInName:        10,
		WordOverlapInName:    8,
		SharedCharacter:      0.5,
		SharedCharacterFloor: 3,

		KeywordInDescription: 25,
		PhraseInDescription:  40,
		WordOverlapInDesc:    15,
		BusinessTermBonus:    10,

		ExperimentBoost:   20,
		UserBehaviorBoost: 15,

		ComprehensiveMultiplier: 1.2,

		ModelDescriptionWeight:     5.0,
		DashboardDescriptionWeight: 8.0,
	}
}

var businessTerms = []string{
	"analysis", "report", "dashboard", "kpi", "metric", "performance",
	"overview", "summary", "insights", "trends", "data", "analytics",
}

var experimentTerms = []string{"ab", "a/b", "test", "experiment", "variant", "winner", "gx"}

var userBehaviorTerms = []string{"user", "behavior", "session", "signup", "conversion"}

// Scorer computes relevance scores between a query and a named, described,
// tagged target. It is a pure function of its inputs: missing descriptions or
// keywords contribute zero rather than failing.
type Scorer struct {
	cfg Config
}

// New constructs a Scorer with the provided configuration.
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// NewDefault constructs a Scorer with the calibrated defaults.
func NewDefault() *Scorer {
	return New(DefaultConfig())
}

// Config returns the active constants.
func (s *Scorer) Config() Config { return s.cfg }

// Score computes the relevance of a target for the query. Keywords are the
// extracted query keywords; descriptionWeight scales the description
// contribution (models/explores use a lower weight than dashboards, whose
// curated business language is the highest-signal source).
func (s *Scorer) Score(query, targetName, targetDescription string, keywords []string, descriptionWeight float64) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	name := strings.ToLower(strings.TrimSpace(targetName))
	description := strings.ToLower(strings.TrimSpace(targetDescription))
	queryWords := splitWords(query)

	nameScore := s.nameScore(name, queryWords, keywords)
	descScore := s.descriptionScore(description, query, queryWords, keywords)
	boost := s.domainBoost(query, name+" "+description)

	total := nameScore + descScore*descriptionWeight + boost
	if nameScore > 0 && descScore > 0 {
		total *= s.cfg.ComprehensiveMultiplier
	}
	return total
}

func (s *Scorer) nameScore(name string, queryWords, keywords []string) float64 {
	if name == "" {
		return 0
	}
	var score float64
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			score += s.cfg.KeywordInName
		}
	}
	nameWords := splitNameWords(name)
	for _, qw := range queryWords {
		for _, nw := range nameWords {
			if qw == nw {
				score += s.cfg.WordOverlapInName
				break
			}
		}
	}
	if shared := sharedCharacters(strings.Join(queryWords, ""), name); shared >= s.cfg.SharedCharacterFloor {
		score += s.cfg.SharedCharacter * float64(shared)
	}
	return score
}

func (s *Scorer) descriptionScore(description, query string, queryWords, keywords []string) float64 {
	if description == "" {
		return 0
	}
	var score float64
	for _, kw := range keywords {
		if strings.Contains(description, kw) {
			score += s.cfg.KeywordInDescription
		}
	}
	for _, phrase := range queryPhrases(queryWords) {
		if strings.Contains(description, phrase) {
			score += s.cfg.PhraseInDescription
		}
	}
	descWords := wordSet(splitWords(description))
	for _, qw := range queryWords {
		if _, ok := descWords[qw]; ok {
			score += s.cfg.WordOverlapInDesc
		}
	}
	if matches := businessTermMatches(query, description); matches > 0 {
		score += s.cfg.BusinessTermBonus * float64(matches)
	}
	return score
}

func (s *Scorer) domainBoost(query, target string) float64 {
	var boost float64
	if qh, th := termHits(query, experimentTerms), termHits(target, experimentTerms); qh > 0 && th > 0 {
		boost += s.cfg.ExperimentBoost * float64(qh) * float64(th)
	}
	if qh, th := termHits(query, userBehaviorTerms), termHits(target, userBehaviorTerms); qh > 0 && th > 0 {
		boost += s.cfg.UserBehaviorBoost * float64(qh) * float64(th)
	}
	return boost
}

// businessTermMatches counts the business vocabulary shared by the query and
// the description.
func businessTermMatches(query, description string) int {
	count := 0
	for _, term := range businessTerms {
		if strings.Contains(query, term) && strings.Contains(description, term) {
			count++
		}
	}
	return count
}

func termHits(text string, terms []string) int {
	hits := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return hits
}

// queryPhrases yields the 2- and 3-word windows of the query that are long
// enough to be meaningful as verbatim description matches.
func queryPhrases(words []string) []string {
	var phrases []string
	for size := 2; size <= 3; size++ {
		for i := 0; i+size <= len(words); i++ {
			phrase := strings.Join(words[i:i+size], " ")
			if len(phrase) > 5 {
				phrases = append(phrases, phrase)
			}
		}
	}
	return phrases
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '/')
	})
}

// splitNameWords splits a target name on underscores and whitespace.
func splitNameWords(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == ' ' || r == '\t'
	})
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// sharedCharacters counts the distinct characters common to both strings.
func sharedCharacters(a, b string) int {
	inA := make(map[rune]struct{})
	for _, r := range a {
		inA[r] = struct{}{}
	}
	shared := 0
	for _, r := range b {
		if _, ok := inA[r]; ok {
			shared++
			delete(inA, r)
		}
	}
	return shared
}
