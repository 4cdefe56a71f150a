// File path: internal/catalog/sync_test.go
package catalog

import (
	"context"
	"reflect"
	"testing"

	"github.com/catalens/catalens/internal/looker"
)

type fakeStore struct {
	models     map[string][]ModelRecord
	explores   map[string][]ExploreRecord
	dashboards map[string][]DashboardRecord
	links      map[string][]DashboardExploreLink

	replaceModelCalls int
	upserts           []ExploreRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		models:     map[string][]ModelRecord{},
		explores:   map[string][]ExploreRecord{},
		dashboards: map[string][]DashboardRecord{},
		links:      map[string][]DashboardExploreLink{},
	}
}

func (f *fakeStore) FreshModels(ctx context.Context, instanceID string) ([]ModelRecord, error) {
	return f.models[instanceID], nil
}

func (f *fakeStore) FreshExplores(ctx context.Context, instanceID, modelName string) ([]ExploreRecord, error) {
	if modelName == "" {
		return f.explores[instanceID], nil
	}
	var out []ExploreRecord
	for _, record := range f.explores[instanceID] {
		if record.ModelName == modelName {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeStore) FreshDashboards(ctx context.Context, instanceID string) ([]DashboardRecord, error) {
	return f.dashboards[instanceID], nil
}

func (f *fakeStore) FreshDashboardLinks(ctx context.Context, instanceID string) ([]DashboardExploreLink, error) {
	return f.links[instanceID], nil
}

func (f *fakeStore) ReplaceModels(ctx context.Context, instanceID string, records []ModelRecord) error {
	f.replaceModelCalls++
	f.models[instanceID] = append([]ModelRecord(nil), records...)
	return nil
}

func (f *fakeStore) ReplaceExplores(ctx context.Context, instanceID, modelName string, records []ExploreRecord) error {
	var kept []ExploreRecord
	for _, record := range f.explores[instanceID] {
		if record.ModelName != modelName {
			kept = append(kept, record)
		}
	}
	f.explores[instanceID] = append(kept, records...)
	return nil
}

func (f *fakeStore) ReplaceDashboards(ctx context.Context, instanceID string, records []DashboardRecord, links []DashboardExploreLink) error {
	f.dashboards[instanceID] = append([]DashboardRecord(nil), records...)
	f.links[instanceID] = append([]DashboardExploreLink(nil), links...)
	return nil
}

func (f *fakeStore) UpsertExplore(ctx context.Context, record ExploreRecord) error {
	f.upserts = append(f.upserts, record)
	for i, existing := range f.explores[record.InstanceID] {
		if existing.ModelName == record.ModelName && existing.ExploreName == record.ExploreName {
			f.explores[record.InstanceID][i] = record
			return nil
		}
	}
	f.explores[record.InstanceID] = append(f.explores[record.InstanceID], record)
	return nil
}

type fakeClient struct {
	models         []looker.Model
	modelDetails   map[string]looker.ModelDetail
	exploreDetails map[string]looker.ExploreDetail
	exploreErrs    map[string]error
	dashboards     []looker.Dashboard
	dashDetails    map[string]looker.DashboardDetail
	queries        map[string]looker.QueryRef

	listModelCalls int
}

func (f *fakeClient) ListModels(ctx context.Context) ([]looker.Model, error) {
	f.listModelCalls++
	return f.models, nil
}

func (f *fakeClient) DescribeModel(ctx context.Context, name string) (looker.ModelDetail, error) {
	detail, ok := f.modelDetails[name]
	if !ok {
		return looker.ModelDetail{}, &looker.FetchError{Op: "describe model", Cause: looker.CauseNotFound, Message: name}
	}
	return detail, nil
}

func (f *fakeClient) DescribeExplore(ctx context.Context, model, explore string) (looker.ExploreDetail, error) {
	key := model + "." + explore
	if err := f.exploreErrs[key]; err != nil {
		return looker.ExploreDetail{}, err
	}
	detail, ok := f.exploreDetails[key]
	if !ok {
		return looker.ExploreDetail{}, &looker.FetchError{Op: "describe explore", Cause: looker.CauseNotFound, Message: key}
	}
	return detail, nil
}

func (f *fakeClient) ListDashboards(ctx context.Context) ([]looker.Dashboard, error) {
	return f.dashboards, nil
}

func (f *fakeClient) DescribeDashboard(ctx context.Context, id string) (looker.DashboardDetail, error) {
	detail, ok := f.dashDetails[id]
	if !ok {
		return looker.DashboardDetail{}, &looker.FetchError{Op: "describe dashboard", Cause: looker.CauseNotFound, Message: id}
	}
	return detail, nil
}

func (f *fakeClient) ResolveQuery(ctx context.Context, queryID string) (looker.QueryRef, error) {
	ref, ok := f.queries[queryID]
	if !ok {
		return looker.QueryRef{}, &looker.FetchError{Op: "resolve query", Cause: looker.CauseNotFound, Message: queryID}
	}
	return ref, nil
}

func inlineQuery(model, view string) *struct {
	Model string `json:"model"`
	View  string `json:"view"`
} {
	return &struct {
		Model string `json:"model"`
		View  string `json:"view"`
	}{Model: model, View: view}
}

func TestEnsureModelsTreatsEmptyAsCacheMiss(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &fakeClient{models: []looker.Model{{Name: "saga_experiments"}}}
	refresher := NewRefresher(client, store, "inst")

	records, err := refresher.EnsureModels(ctx, false)
	if err != nil {
		t.Fatalf("ensure models: %v", err)
	}
	if len(records) != 1 || client.listModelCalls != 1 {
		t.Fatalf("expected refresh on empty cache, got %d records, %d calls", len(records), client.listModelCalls)
	}

	// Fresh records short-circuit the provider.
	if _, err := refresher.EnsureModels(ctx, false); err != nil {
		t.Fatalf("ensure models second call: %v", err)
	}
	if client.listModelCalls != 1 {
		t.Fatalf("fresh cache must not hit the provider, got %d calls", client.listModelCalls)
	}

	// Force always refetches.
	if _, err := refresher.EnsureModels(ctx, true); err != nil {
		t.Fatalf("ensure models forced: %v", err)
	}
	if client.listModelCalls != 2 {
		t.Fatalf("force must refetch, got %d calls", client.listModelCalls)
	}
}

func TestRefreshExploresTwoPhase(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	detail := looker.ExploreDetail{Name: "abtest", ModelName: "saga_experiments", Description: "experiment results"}
	detail.Fields.Dimensions = []looker.Field{{Name: "variant_name", Description: "assigned experiment variant for the session"}}
	detail.Fields.Measures = []looker.Field{{Name: "winnerCount"}}
	client := &fakeClient{
		modelDetails: map[string]looker.ModelDetail{
			"saga_experiments": {Name: "saga_experiments", Explores: []looker.ExploreStub{
				{Name: "abtest"},
				{Name: "flaky"},
			}},
		},
		exploreDetails: map[string]looker.ExploreDetail{"saga_experiments.abtest": detail},
		exploreErrs: map[string]error{
			"saga_experiments.flaky": &looker.FetchError{Op: "describe explore", Cause: looker.CauseTimeout, Message: "slow"},
		},
	}
	refresher := NewRefresher(client, store, "inst")

	records, err := refresher.RefreshExplores(ctx, "saga_experiments")
	if err != nil {
		t.Fatalf("refresh explores: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected both explores kept, got %d", len(records))
	}
	enriched := records[0]
	if enriched.ExploreName != "abtest" || enriched.ModelName != "saga_experiments" {
		t.Fatalf("enrichment must not change the key: %+v", enriched)
	}
	if len(enriched.Dimensions) != 1 || len(enriched.Measures) != 1 {
		t.Fatalf("expected field detail, got %+v", enriched)
	}
	for _, want := range []string{"variant", "name", "winner", "count"} {
		found := false
		for _, kw := range enriched.Keywords {
			if kw == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected keyword %q in %v", want, enriched.Keywords)
		}
	}
	bare := records[1]
	if bare.ExploreName != "flaky" || len(bare.Dimensions) != 0 || len(bare.Keywords) != 0 {
		t.Fatalf("failed detail fetch must keep the name-only record: %+v", bare)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("expected one enrichment upsert, got %d", len(store.upserts))
	}
}

func TestRefreshDashboardsDerivesReferences(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &fakeClient{
		dashboards: []looker.Dashboard{{
			ID:          "42",
			Title:       "GX A/B Test Performance Dashboard",
			Description: "Experiment winners by variant",
			ViewCount:   250,
		}},
		dashDetails: map[string]looker.DashboardDetail{
			"42": {ID: "42", Elements: []looker.DashboardElement{
				{Title: "inline", Query: inlineQuery("saga_experiments", "abtest")},
				{Title: "by id", QueryID: "q-1"},
				{Title: "unmappable", Type: "text"},
				{Title: "resolved dup", QueryID: "q-2"},
			}},
		},
		queries: map[string]looker.QueryRef{
			"q-1": {Model: "saga_users", View: "sessions"},
			"q-2": {Model: "saga_experiments", View: "abtest"},
		},
	}
	refresher := NewRefresher(client, store, "inst")

	records, links, err := refresher.RefreshDashboards(ctx)
	if err != nil {
		t.Fatalf("refresh dashboards: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one dashboard, got %d", len(records))
	}
	wantRefs := []string{"saga_experiments.abtest", "saga_users.sessions"}
	if !reflect.DeepEqual(records[0].ExploreReferences, wantRefs) {
		t.Fatalf("unexpected references: got %v want %v", records[0].ExploreReferences, wantRefs)
	}
	if len(links) != 2 {
		t.Fatalf("expected two links, got %d", len(links))
	}
	byRef := map[string]DashboardExploreLink{}
	for _, link := range links {
		byRef[link.Ref()] = link
	}
	if got := byRef["saga_experiments.abtest"].UsageCount; got != 2 {
		t.Fatalf("abtest usage count: got %d want 2", got)
	}
	if got := byRef["saga_users.sessions"].UsageCount; got != 1 {
		t.Fatalf("sessions usage count: got %d want 1", got)
	}
	for ref, link := range byRef {
		if link.BusinessContextScore < 0 || link.BusinessContextScore > 3.0 {
			t.Fatalf("business context score out of range for %s: %v", ref, link.BusinessContextScore)
		}
	}
}

func TestBusinessContextScore(t *testing.T) {
	record := DashboardRecord{
		Title:       "saga experiments abtest overview",
		Description: "experiment winners by variant",
		ViewCount:   250,
	}
	// Three overlapping reference tokens (0.5 each) plus the view-count
	// signal (0.5).
	if got := businessContextScore(record, "saga_experiments.abtest"); got != 2.0 {
		t.Fatalf("expected 2.0, got %v", got)
	}
	if businessContextScore(DashboardRecord{Title: "unrelated"}, "saga_experiments.abtest") != 0 {
		t.Fatalf("no overlap must score zero")
	}
}

func TestBusinessContextScoreCapped(t *testing.T) {
	record := DashboardRecord{
		Title:       "saga user behavior experiments testing abtest variant winner",
		Description: "everything overlaps here",
		ViewCount:   10000,
	}
	score := businessContextScore(record, "saga_user_behavior_experiments_testing.abtest_variant_winner")
	if score != 3.0 {
		t.Fatalf("expected cap at 3.0, got %v", score)
	}
}

func TestSplitIdentifier(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"variant_name", []string{"variant", "name"}},
		{"winnerCount", []string{"winner", "count"}},
		{"saga_experiments.abtest", []string{"saga", "experiments", "abtest"}},
		{"ab", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := splitIdentifier(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitIdentifier(%q): got %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestKeywordSetCapsDescriptionTokens(t *testing.T) {
	fields := []looker.Field{{
		Name:        "revenue",
		Description: "alpha1 bravo2 charlie3 deltax echoes foxtrot golfers",
	}}
	keywords := keywordSet(fields)
	descCount := 0
	for _, kw := range keywords {
		switch kw {
		case "alpha1", "bravo2", "charlie3", "deltax", "echoes", "foxtrot", "golfers":
			descCount++
		}
	}
	if descCount != 5 {
		t.Fatalf("expected 5 description tokens, got %d in %v", descCount, keywords)
	}
}

func TestSplitRef(t *testing.T) {
	model, explore, ok := SplitRef("saga_experiments.abtest")
	if !ok || model != "saga_experiments" || explore != "abtest" {
		t.Fatalf("unexpected split: %q %q %v", model, explore, ok)
	}
	if _, _, ok := SplitRef("noseparator"); ok {
		t.Fatalf("missing separator must not split")
	}
	if _, _, ok := SplitRef(".leading"); ok {
		t.Fatalf("leading separator must not split")
	}
}
