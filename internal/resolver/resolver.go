// File path: internal/resolver/resolver.go
package resolver

import (
	"context"
	"fmt"

	"github.com/catalens/catalens/internal/catalog"
	"github.com/catalens/catalens/internal/common"
	"github.com/catalens/catalens/internal/keyword"
	"github.com/catalens/catalens/internal/scoring"
)

// Strategy tags which matching strategy produced a result so callers can
// phrase confidence appropriately.
type Strategy string

const (
	StrategyDashboard Strategy = "dashboard"
	StrategySemantic  Strategy = "semantic"
	StrategyBasic     Strategy = "basic"
	StrategyFallback  Strategy = "fallback"
)

// Result is the ranked outcome of one resolution. SuggestedExplores carries
// "model.explore" references, best first.
type Result struct {
	SuggestedModels   []catalog.ModelRecord `json:"suggested_models"`
	SuggestedExplores []string              `json:"suggested_explores"`
	Reasoning         string                `json:"reasoning"`
	Strategy          Strategy              `json:"strategy"`
}

// Completer is the optional LLM collaborator used to re-rank semantic
// candidates. A single text-in, text-out call; no structure guaranteed.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Resolver turns a free-text analytical question into a ranked set of catalog
// objects. Its contract is "always returns a result, never errors": strategy
// failures and panics are converted into the safe fallback.
type Resolver struct {
	refresher *catalog.Refresher
	scorer    *scoring.Scorer
	completer Completer
}

// New constructs a Resolver. completer may be nil; re-ranking is then skipped.
func New(refresher *catalog.Refresher, scorer *scoring.Scorer, completer Completer) *Resolver {
	if scorer == nil {
		scorer = scoring.NewDefault()
	}
	return &Resolver{refresher: refresher, scorer: scorer, completer: completer}
}

// queryContext is the loaded catalog snapshot one resolution works over.
// Slices keep store enumeration order; stable sorts preserve it on ties.
type queryContext struct {
	question   string
	keywords   []string
	models     []catalog.ModelRecord
	explores   []catalog.ExploreRecord
	dashboards []catalog.DashboardRecord
	links      []catalog.DashboardExploreLink
}

// Resolve runs the strategy chain in strict order: dashboard context, field
// semantics, basic keyword matching, safe fallback. The first strategy that
// produces a result wins.
func (r *Resolver) Resolve(ctx context.Context, question string) *Result {
	logger := common.Logger()
	qc := r.loadCatalog(ctx, question)

	type namedStrategy struct {
		name Strategy
		run  func(*queryContext) *Result
	}
	strategies := []namedStrategy{
		{StrategyDashboard, r.dashboardStrategy},
		{StrategySemantic, r.semanticStrategy(ctx)},
		{StrategyBasic, r.basicStrategy},
	}
	for _, strategy := range strategies {
		result := runSafely(strategy.name, strategy.run, qc)
		if result != nil {
			logger.Info("resolver: strategy matched", "strategy", result.Strategy, "explores", len(result.SuggestedExplores))
			return result
		}
	}
	return r.fallback(qc)
}

// runSafely shields the chain from a misbehaving strategy: a panic is logged
// and treated as "no result".
func runSafely(name Strategy, run func(*queryContext) *Result, qc *queryContext) (result *Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			common.Logger().Error("resolver: strategy panicked", "strategy", name, "panic", fmt.Sprint(recovered))
			result = nil
		}
	}()
	return run(qc)
}

// loadCatalog reads the fresh catalog, refreshing stale kinds on the way. Load
// failures are tolerated: the affected slice stays empty and the chain degrades
// toward the fallback.
func (r *Resolver) loadCatalog(ctx context.Context, question string) *queryContext {
	logger := common.Logger()
	qc := &queryContext{question: question, keywords: keyword.Extract(question)}

	models, err := r.refresher.EnsureModels(ctx, false)
	if err != nil {
		logger.Warn("resolver: model load failed", "error", err)
	}
	qc.models = models

	explores, err := r.refresher.EnsureExplores(ctx, "", false)
	if err != nil {
		logger.Warn("resolver: explore load failed", "error", err)
	}
	if len(explores) == 0 && len(models) > 0 {
		if _, err := r.refresher.RefreshAllExplores(ctx, false); err != nil {
			logger.Warn("resolver: explore refresh failed", "error", err)
		}
		if explores, err = r.refresher.EnsureExplores(ctx, "", false); err != nil {
			logger.Warn("resolver: explore reload failed", "error", err)
		}
	}
	qc.explores = explores

	dashboards, links, err := r.refresher.EnsureDashboards(ctx, false)
	if err != nil {
		logger.Warn("resolver: dashboard load failed", "error", err)
	}
	qc.dashboards = dashboards
	qc.links = links
	return qc
}

// fallback returns the first known models and explores verbatim. It never
// fails and always terminates the resolution with an explainable result.
func (r *Resolver) fallback(qc *queryContext) *Result {
	result := &Result{
		Strategy:  StrategyFallback,
		Reasoning: "No strategy matched the question against the cached catalog; returning the first known models and explores as a best-effort starting point.",
	}
	for _, model := range qc.models {
		result.SuggestedModels = append(result.SuggestedModels, model)
		if len(result.SuggestedModels) == 3 {
			break
		}
	}
	for _, explore := range qc.explores {
		result.SuggestedExplores = append(result.SuggestedExplores, explore.Ref())
		if len(result.SuggestedExplores) == 5 {
			break
		}
	}
	return result
}

// modelsFor maps suggested explore references back to their ModelRecords,
// deduplicated, preserving the suggestion order.
func modelsFor(qc *queryContext, refs []string) []catalog.ModelRecord {
	byName := make(map[string]catalog.ModelRecord, len(qc.models))
	for _, model := range qc.models {
		byName[model.Name] = model
	}
	seen := map[string]struct{}{}
	var out []catalog.ModelRecord
	for _, ref := range refs {
		modelName, _, ok := catalog.SplitRef(ref)
		if !ok {
			continue
		}
		if _, dup := seen[modelName]; dup {
			continue
		}
		seen[modelName] = struct{}{}
		if record, ok := byName[modelName]; ok {
			out = append(out, record)
		} else {
			out = append(out, catalog.ModelRecord{Name: modelName})
		}
	}
	return out
}
