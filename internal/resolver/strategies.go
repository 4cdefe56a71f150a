// File path: internal/resolver/strategies.go
package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/catalens/catalens/internal/catalog"
	"github.com/catalens/catalens/internal/common"
)

// Field-level match weights used by the semantic strategy.
const (
	exploreNameMatch = 10
	exploreDescMatch = 5
	keywordSetMatch  = 15
	fieldNameMatch   = 20
	fieldDescMatch   = 8
)

// Dashboard provenance dominates: references collected from a top-scoring
// dashboard start above any field-level score.
const dashboardReferenceBoost = 100

// Basic-strategy domain boosts.
const (
	basicKeywordMatch      = 10
	basicExperimentBoost   = 50
	basicCostBoost         = 40
	basicUserBehaviorBoost = 30
)

var basicExperimentTerms = []string{"ab", "a/b", "test", "experiment", "variant", "winner"}
var basicCostTerms = []string{"cost", "billing", "spend", "budget", "price"}
var basicUserBehaviorTerms = []string{"user", "behavior", "session", "signup", "conversion"}

// candidate is one scored explore reference.
type candidate struct {
	ref           string
	score         float64
	matchedFields []string
}

// dashboardStrategy scores cached dashboards against the question and, for the
// top three, promotes their explore references above everything the field
// scoring produces. Explore keys are deduplicated keeping the highest score.
func (r *Resolver) dashboardStrategy(qc *queryContext) *Result {
	if len(qc.dashboards) == 0 {
		return nil
	}
	weight := r.scorer.Config().DashboardDescriptionWeight

	type scoredDashboard struct {
		record catalog.DashboardRecord
		score  float64
	}
	var scored []scoredDashboard
	for _, dash := range qc.dashboards {
		score := r.scorer.Score(qc.question, dash.Title, dash.Description, qc.keywords, weight)
		if score > 0 {
			scored = append(scored, scoredDashboard{record: dash, score: score})
		}
	}
	if len(scored) == 0 {
		return nil
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > 3 {
		scored = scored[:3]
	}

	businessScore := make(map[string]float64, len(qc.links))
	for _, link := range qc.links {
		key := link.DashboardID + "\x00" + link.Ref()
		businessScore[key] = link.BusinessContextScore
	}

	best := map[string]float64{}
	var order []string
	add := func(ref string, score float64) {
		if existing, seen := best[ref]; !seen {
			best[ref] = score
			order = append(order, ref)
		} else if score > existing {
			best[ref] = score
		}
	}

	dashboardDerived := 0
	var titles []string
	for _, entry := range scored {
		titles = append(titles, entry.record.Title)
		for _, ref := range entry.record.ExploreReferences {
			add(ref, dashboardReferenceBoost+businessScore[entry.record.DashboardID+"\x00"+ref])
			dashboardDerived++
		}
	}
	for _, fieldCandidate := range r.fieldCandidates(qc) {
		if fieldCandidate.score > 0 {
			add(fieldCandidate.ref, fieldCandidate.score)
		}
	}
	if dashboardDerived == 0 && len(order) == 0 {
		return nil
	}

	refs := append([]string(nil), order...)
	sort.SliceStable(refs, func(i, j int) bool { return best[refs[i]] > best[refs[j]] })
	if len(refs) > 5 {
		refs = refs[:5]
	}
	return &Result{
		SuggestedModels:   modelsFor(qc, refs),
		SuggestedExplores: refs,
		Reasoning: fmt.Sprintf("Matched business dashboard context: %s. Explores referenced by these dashboards are ranked first.",
			strings.Join(titles, "; ")),
		Strategy: StrategyDashboard,
	}
}

// semanticStrategy scores every cached explore via field-level matches and
// optionally asks the LLM collaborator to re-rank the top candidates. A failed
// or unparseable re-rank keeps the unranked order.
func (r *Resolver) semanticStrategy(ctx context.Context) func(*queryContext) *Result {
	return func(qc *queryContext) *Result {
		candidates := r.fieldCandidates(qc)
		var matched []candidate
		for _, c := range candidates {
			if c.score > 0 {
				matched = append(matched, c)
			}
		}
		if len(matched) == 0 {
			return nil
		}
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].score > matched[j].score })
		if len(matched) > 5 {
			matched = matched[:5]
		}

		refs := make([]string, 0, len(matched))
		for _, c := range matched {
			refs = append(refs, c.ref)
		}
		reasoning := fmt.Sprintf("Matched %d explore(s) by field-level similarity to the question keywords.", len(matched))

		if r.completer != nil {
			if reranked, llmReasoning, ok := r.rerank(ctx, qc, matched); ok {
				refs = reranked
				if llmReasoning != "" {
					reasoning = llmReasoning
				}
			}
		}
		return &Result{
			SuggestedModels:   modelsFor(qc, refs),
			SuggestedExplores: refs,
			Reasoning:         reasoning,
			Strategy:          StrategySemantic,
		}
	}
}

// fieldCandidates computes the field-level score for every cached explore,
// preserving store enumeration order.
func (r *Resolver) fieldCandidates(qc *queryContext) []candidate {
	candidates := make([]candidate, 0, len(qc.explores))
	for _, explore := range qc.explores {
		c := candidate{ref: explore.Ref()}
		name := strings.ToLower(explore.ExploreName)
		description := strings.ToLower(explore.Description)
		for _, kw := range qc.keywords {
			if strings.Contains(name, kw) {
				c.score += exploreNameMatch
			}
			if description != "" && strings.Contains(description, kw) {
				c.score += exploreDescMatch
			}
			for _, cached := range explore.Keywords {
				if strings.Contains(cached, kw) {
					c.score += keywordSetMatch
					break
				}
			}
			for _, field := range explore.Dimensions {
				c.scoreField(field, kw)
			}
			for _, field := range explore.Measures {
				c.scoreField(field, kw)
			}
		}
		candidates = append(candidates, c)
	}
	return candidates
}

func (c *candidate) scoreField(field catalog.FieldRecord, kw string) {
	if strings.Contains(strings.ToLower(field.Name), kw) {
		c.score += fieldNameMatch
		c.matchedFields = append(c.matchedFields, field.Name)
	}
	if field.Description != "" && strings.Contains(strings.ToLower(field.Description), kw) {
		c.score += fieldDescMatch
	}
}

// basicStrategy is plain keyword matching over the first ten models' explores,
// with coarse domain boosts. It fires when dashboards and field metadata gave
// nothing.
func (r *Resolver) basicStrategy(qc *queryContext) *Result {
	models := qc.models
	if len(models) > 10 {
		models = models[:10]
	}
	allowed := make(map[string]struct{}, len(models))
	for _, model := range models {
		allowed[model.Name] = struct{}{}
	}
	question := strings.ToLower(qc.question)

	var matched []candidate
	for _, explore := range qc.explores {
		if _, ok := allowed[explore.ModelName]; !ok {
			continue
		}
		c := candidate{ref: explore.Ref()}
		target := strings.ToLower(explore.Ref())
		for _, kw := range qc.keywords {
			if strings.Contains(target, kw) {
				c.score += basicKeywordMatch
			}
		}
		if containsAny(question, basicExperimentTerms) && containsAny(target, basicExperimentTerms) {
			c.score += basicExperimentBoost
		}
		if containsAny(question, basicCostTerms) && containsAny(target, basicCostTerms) {
			c.score += basicCostBoost
		}
		if containsAny(question, basicUserBehaviorTerms) && containsAny(target, basicUserBehaviorTerms) {
			c.score += basicUserBehaviorBoost
		}
		if c.score > 0 {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].score > matched[j].score })
	if len(matched) > 5 {
		matched = matched[:5]
	}
	refs := make([]string, 0, len(matched))
	for _, c := range matched {
		refs = append(refs, c.ref)
	}
	common.Logger().Debug("resolver: basic keyword matching fired", "matches", len(refs))
	return &Result{
		SuggestedModels:   modelsFor(qc, refs),
		SuggestedExplores: refs,
		Reasoning:         fmt.Sprintf("Matched %d explore(s) by name and keyword overlap with the question.", len(refs)),
		Strategy:          StrategyBasic,
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
