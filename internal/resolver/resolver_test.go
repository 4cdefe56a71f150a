// File path: internal/resolver/resolver_test.go
package resolver

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/catalens/catalens/internal/catalog"
	"github.com/catalens/catalens/internal/looker"
	"github.com/catalens/catalens/internal/scoring"
)

type fakeStore struct {
	models     []catalog.ModelRecord
	explores   []catalog.ExploreRecord
	dashboards []catalog.DashboardRecord
	links      []catalog.DashboardExploreLink
}

func (f *fakeStore) FreshModels(ctx context.Context, instanceID string) ([]catalog.ModelRecord, error) {
	return f.models, nil
}

func (f *fakeStore) FreshExplores(ctx context.Context, instanceID, modelName string) ([]catalog.ExploreRecord, error) {
	if modelName == "" {
		return f.explores, nil
	}
	var out []catalog.ExploreRecord
	for _, record := range f.explores {
		if record.ModelName == modelName {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeStore) FreshDashboards(ctx context.Context, instanceID string) ([]catalog.DashboardRecord, error) {
	return f.dashboards, nil
}

func (f *fakeStore) FreshDashboardLinks(ctx context.Context, instanceID string) ([]catalog.DashboardExploreLink, error) {
	return f.links, nil
}

func (f *fakeStore) ReplaceModels(ctx context.Context, instanceID string, records []catalog.ModelRecord) error {
	f.models = records
	return nil
}

func (f *fakeStore) ReplaceExplores(ctx context.Context, instanceID, modelName string, records []catalog.ExploreRecord) error {
	f.explores = append(f.explores, records...)
	return nil
}

func (f *fakeStore) ReplaceDashboards(ctx context.Context, instanceID string, records []catalog.DashboardRecord, links []catalog.DashboardExploreLink) error {
	f.dashboards = records
	f.links = links
	return nil
}

func (f *fakeStore) UpsertExplore(ctx context.Context, record catalog.ExploreRecord) error {
	return nil
}

// unreachableClient fails every call: the fixtures keep the cache fresh, so a
// provider hit means the freshness logic regressed.
type unreachableClient struct{}

func (unreachableClient) ListModels(ctx context.Context) ([]looker.Model, error) {
	return nil, &looker.FetchError{Op: "list models", Cause: looker.CauseOther, Message: "unreachable"}
}

func (unreachableClient) DescribeModel(ctx context.Context, name string) (looker.ModelDetail, error) {
	return looker.ModelDetail{}, &looker.FetchError{Op: "describe model", Cause: looker.CauseOther, Message: "unreachable"}
}

func (unreachableClient) DescribeExplore(ctx context.Context, model, explore string) (looker.ExploreDetail, error) {
	return looker.ExploreDetail{}, &looker.FetchError{Op: "describe explore", Cause: looker.CauseOther, Message: "unreachable"}
}

func (unreachableClient) ListDashboards(ctx context.Context) ([]looker.Dashboard, error) {
	return nil, &looker.FetchError{Op: "list dashboards", Cause: looker.CauseOther, Message: "unreachable"}
}

func (unreachableClient) DescribeDashboard(ctx context.Context, id string) (looker.DashboardDetail, error) {
	return looker.DashboardDetail{}, &looker.FetchError{Op: "describe dashboard", Cause: looker.CauseOther, Message: "unreachable"}
}

func (unreachableClient) ResolveQuery(ctx context.Context, queryID string) (looker.QueryRef, error) {
	return looker.QueryRef{}, &looker.FetchError{Op: "resolve query", Cause: looker.CauseOther, Message: "unreachable"}
}

type stubCompleter struct {
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func newResolver(store catalog.Store, completer Completer) *Resolver {
	refresher := catalog.NewRefresher(unreachableClient{}, store, "inst")
	return New(refresher, scoring.NewDefault(), completer)
}

func experimentFixture() *fakeStore {
	return &fakeStore{
		models: []catalog.ModelRecord{
			{InstanceID: "inst", Name: "saga_experiments", Description: "Experimentation and A/B test data"},
			{InstanceID: "inst", Name: "saga_users", Description: "User behavior and sessions"},
		},
		explores: []catalog.ExploreRecord{
			{InstanceID: "inst", ModelName: "saga_experiments", ExploreName: "abtest", Description: "experiment assignments and winners"},
			{InstanceID: "inst", ModelName: "saga_users", ExploreName: "sessions", Description: "user sessions"},
		},
		dashboards: []catalog.DashboardRecord{
			{
				InstanceID:        "inst",
				DashboardID:       "42",
				Title:             "GX A/B Test Performance Dashboard",
				Description:       "Experiment winners by variant",
				ExploreReferences: []string{"saga_experiments.abtest"},
				ViewCount:         250,
			},
		},
		links: []catalog.DashboardExploreLink{
			{InstanceID: "inst", DashboardID: "42", ModelName: "saga_experiments", ExploreName: "abtest", UsageCount: 3, BusinessContextScore: 2.0},
		},
	}
}

func TestResolveDashboardPriority(t *testing.T) {
	res := newResolver(experimentFixture(), nil)
	result := res.Resolve(context.Background(), "How many GX ab test winners did we have last year?")
	if result.Strategy != StrategyDashboard {
		t.Fatalf("expected dashboard strategy, got %s (%s)", result.Strategy, result.Reasoning)
	}
	if len(result.SuggestedExplores) == 0 || result.SuggestedExplores[0] != "saga_experiments.abtest" {
		t.Fatalf("expected saga_experiments.abtest first, got %v", result.SuggestedExplores)
	}
	if len(result.SuggestedModels) == 0 || result.SuggestedModels[0].Name != "saga_experiments" {
		t.Fatalf("expected saga_experiments model first, got %+v", result.SuggestedModels)
	}
}

func TestResolveFallbackNeverErrors(t *testing.T) {
	store := &fakeStore{
		models: []catalog.ModelRecord{
			{Name: "finance"}, {Name: "logistics"}, {Name: "inventory"}, {Name: "crm"},
		},
		explores: []catalog.ExploreRecord{
			{ModelName: "finance", ExploreName: "ledger"},
			{ModelName: "finance", ExploreName: "invoices"},
			{ModelName: "logistics", ExploreName: "routing"},
			{ModelName: "inventory", ExploreName: "lots"},
			{ModelName: "crm", ExploreName: "contacts"},
			{ModelName: "crm", ExploreName: "deals"},
		},
	}
	res := newResolver(store, nil)
	result := res.Resolve(context.Background(), "qzqzqzqzqz")
	if result.Strategy != StrategyFallback {
		t.Fatalf("expected fallback strategy, got %s", result.Strategy)
	}
	if len(result.SuggestedModels) != 3 {
		t.Fatalf("fallback returns first 3 models, got %d", len(result.SuggestedModels))
	}
	if result.SuggestedModels[0].Name != "finance" {
		t.Fatalf("fallback must keep catalog order, got %+v", result.SuggestedModels)
	}
	if len(result.SuggestedExplores) != 5 {
		t.Fatalf("fallback returns first 5 explores, got %d", len(result.SuggestedExplores))
	}
	if result.SuggestedExplores[0] != "finance.ledger" {
		t.Fatalf("fallback must keep catalog order, got %v", result.SuggestedExplores)
	}
	if result.Reasoning == "" {
		t.Fatalf("fallback must carry reasoning")
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	res := newResolver(experimentFixture(), nil)
	question := "How many GX ab test winners did we have last year?"
	first := res.Resolve(context.Background(), question)
	for i := 0; i < 3; i++ {
		again := res.Resolve(context.Background(), question)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("resolution not deterministic:\nfirst: %+v\nagain: %+v", first, again)
		}
	}
}

func semanticFixture() *fakeStore {
	return &fakeStore{
		models: []catalog.ModelRecord{{Name: "saga_users"}},
		explores: []catalog.ExploreRecord{
			{ModelName: "saga_users", ExploreName: "orders", Dimensions: []catalog.FieldRecord{{Name: "signup_date"}}},
			{ModelName: "saga_users", ExploreName: "signups", Description: "signup funnel", Dimensions: []catalog.FieldRecord{{Name: "signup_channel", Description: "acquisition channel of the signup"}}},
		},
	}
}

func TestResolveSemanticWithoutCompleter(t *testing.T) {
	res := newResolver(semanticFixture(), nil)
	result := res.Resolve(context.Background(), "signup breakdown by channel")
	if result.Strategy != StrategySemantic {
		t.Fatalf("expected semantic strategy, got %s", result.Strategy)
	}
	if result.SuggestedExplores[0] != "saga_users.signups" {
		t.Fatalf("expected signups first, got %v", result.SuggestedExplores)
	}
}

func TestResolveSemanticRerank(t *testing.T) {
	completer := &stubCompleter{response: "EXPLORES: saga_users.orders, saga_users.signups\nREASONING: orders carries the signup date."}
	res := newResolver(semanticFixture(), completer)
	result := res.Resolve(context.Background(), "signup breakdown by channel")
	if result.Strategy != StrategySemantic {
		t.Fatalf("expected semantic strategy, got %s", result.Strategy)
	}
	want := []string{"saga_users.orders", "saga_users.signups"}
	if !reflect.DeepEqual(result.SuggestedExplores, want) {
		t.Fatalf("rerank order not applied: got %v want %v", result.SuggestedExplores, want)
	}
	if result.Reasoning != "orders carries the signup date." {
		t.Fatalf("expected LLM reasoning, got %q", result.Reasoning)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("expected one completion call, got %d", len(completer.prompts))
	}
}

func TestResolveSemanticRerankFailureKeepsOrder(t *testing.T) {
	cases := []struct {
		name      string
		completer *stubCompleter
	}{
		{"call fails", &stubCompleter{err: errors.New("model offline")}},
		{"no explores line", &stubCompleter{response: "I think signups is best."}},
		{"unknown references only", &stubCompleter{response: "EXPLORES: made_up.explore\nREASONING: nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := newResolver(semanticFixture(), tc.completer)
			result := res.Resolve(context.Background(), "signup breakdown by channel")
			if result.Strategy != StrategySemantic {
				t.Fatalf("expected semantic strategy, got %s", result.Strategy)
			}
			if result.SuggestedExplores[0] != "saga_users.signups" {
				t.Fatalf("failed rerank must keep the scored order, got %v", result.SuggestedExplores)
			}
		})
	}
}

func TestResolveBasicStrategy(t *testing.T) {
	store := &fakeStore{
		models: []catalog.ModelRecord{{Name: "billing"}, {Name: "crm"}},
		explores: []catalog.ExploreRecord{
			{ModelName: "billing", ExploreName: "charges"},
			{ModelName: "crm", ExploreName: "contacts"},
		},
	}
	res := newResolver(store, nil)
	result := res.Resolve(context.Background(), "billing overview")
	if result.Strategy != StrategyBasic {
		t.Fatalf("expected basic strategy, got %s (%v)", result.Strategy, result.SuggestedExplores)
	}
	if result.SuggestedExplores[0] != "billing.charges" {
		t.Fatalf("expected billing.charges first, got %v", result.SuggestedExplores)
	}
}

func TestParseRerankResponse(t *testing.T) {
	candidates := []candidate{{ref: "a.one"}, {ref: "b.two"}}
	refs, reasoning := parseRerankResponse("noise\nexplores: b.two, a.one, b.two, c.three\nreasoning: two first\nmore noise", candidates)
	want := []string{"b.two", "a.one"}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("unexpected refs: got %v want %v", refs, want)
	}
	if reasoning != "two first" {
		t.Fatalf("unexpected reasoning: %q", reasoning)
	}
	if refs, _ := parseRerankResponse("no structure at all", candidates); refs != nil {
		t.Fatalf("expected no refs, got %v", refs)
	}
}
