// File path: internal/catalog/sync.go
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/catalens/catalens/internal/common"
	"github.com/catalens/catalens/internal/looker"
)

// Refresher pulls records from the metadata provider when the cache is stale
// or empty and hands the normalized shapes to the store. It holds no state of
// its own; refreshes are always triggered synchronously by a caller finding
// the cache stale.
type Refresher struct {
	client     looker.Client
	store      Store
	instanceID string
}

func NewRefresher(client looker.Client, store Store, instanceID string) *Refresher {
	return &Refresher{client: client, store: store, instanceID: instanceID}
}

// InstanceID reports the catalog instance this refresher serves.
func (r *Refresher) InstanceID() string { return r.instanceID }

// RefreshModels pulls the full model list and replaces the cached set.
func (r *Refresher) RefreshModels(ctx context.Context) ([]ModelRecord, error) {
	models, err := r.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh models: %w", err)
	}
	records := make([]ModelRecord, 0, len(models))
	for _, model := range models {
		if strings.TrimSpace(model.Name) == "" {
			continue
		}
		records = append(records, ModelRecord{
			InstanceID:  r.instanceID,
			Name:        model.Name,
			ProjectName: model.ProjectName,
			Label:       model.Label,
			Description: model.Description,
		})
	}
	if err := r.store.ReplaceModels(ctx, r.instanceID, records); err != nil {
		return nil, err
	}
	common.Logger().Info("catalog: models refreshed", "instance", r.instanceID, "count", len(records))
	return records, nil
}

// RefreshExplores pulls the explores for one model in two phases: the bare
// names land first via a full replace, then each explore is enriched with
// field detail via upsert. A failed detail fetch leaves the bare record in
// place rather than aborting the refresh.
func (r *Refresher) RefreshExplores(ctx context.Context, modelName string) ([]ExploreRecord, error) {
	logger := common.Logger()
	detail, err := r.client.DescribeModel(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("refresh explores %s: %w", modelName, err)
	}
	records := make([]ExploreRecord, 0, len(detail.Explores))
	for _, stub := range detail.Explores {
		if strings.TrimSpace(stub.Name) == "" {
			continue
		}
		records = append(records, ExploreRecord{
			InstanceID:  r.instanceID,
			ModelName:   modelName,
			ExploreName: stub.Name,
			Label:       stub.Label,
			Description: stub.Description,
		})
	}
	if err := r.store.ReplaceExplores(ctx, r.instanceID, modelName, records); err != nil {
		return nil, err
	}
	for i, record := range records {
		exploreDetail, err := r.client.DescribeExplore(ctx, modelName, record.ExploreName)
		if err != nil {
			logger.Warn("catalog: explore detail fetch failed, keeping name-only record",
				"explore", record.Ref(), "error", err)
			continue
		}
		enriched := enrichExplore(record, exploreDetail)
		if err := r.store.UpsertExplore(ctx, enriched); err != nil {
			return nil, err
		}
		records[i] = enriched
	}
	logger.Info("catalog: explores refreshed", "instance", r.instanceID, "model", modelName, "count", len(records))
	return records, nil
}

// RefreshAllExplores refreshes the explores of every fresh model, refreshing
// the model list first when it is stale.
func (r *Refresher) RefreshAllExplores(ctx context.Context, force bool) (int, error) {
	models, err := r.EnsureModels(ctx, force)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, model := range models {
		records, err := r.RefreshExplores(ctx, model.Name)
		if err != nil {
			return total, err
		}
		total += len(records)
	}
	return total, nil
}

// RefreshDashboards pulls every dashboard, derives its explore references from
// the tile queries, and replaces the cached dashboard set together with the
// dashboard-to-explore links.
func (r *Refresher) RefreshDashboards(ctx context.Context) ([]DashboardRecord, []DashboardExploreLink, error) {
	logger := common.Logger()
	dashboards, err := r.client.ListDashboards(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("refresh dashboards: %w", err)
	}
	records := make([]DashboardRecord, 0, len(dashboards))
	var links []DashboardExploreLink
	for _, dash := range dashboards {
		if strings.TrimSpace(dash.ID) == "" {
			continue
		}
		record := DashboardRecord{
			InstanceID:  r.instanceID,
			DashboardID: dash.ID,
			Title:       dash.Title,
			Description: dash.Description,
			FolderName:  dash.Folder.Name,
			Tags:        dash.Tags,
			ViewCount:   dash.ViewCount,
		}
		detail, err := r.client.DescribeDashboard(ctx, dash.ID)
		if err != nil {
			logger.Warn("catalog: dashboard detail fetch failed, keeping summary record",
				"dashboard", dash.ID, "error", err)
			records = append(records, record)
			continue
		}
		usage := map[string]int{}
		var order []string
		for _, element := range detail.Elements {
			record.Elements = append(record.Elements, DashboardElement{
				Title:       element.Title,
				ElementType: element.Type,
				QueryID:     element.QueryID,
				LookID:      lookID(element),
			})
			ref, ok := r.elementRef(ctx, element)
			if !ok {
				continue
			}
			if _, seen := usage[ref]; !seen {
				order = append(order, ref)
			}
			usage[ref]++
		}
		record.ExploreReferences = order
		records = append(records, record)
		for _, ref := range order {
			model, explore, ok := SplitRef(ref)
			if !ok {
				continue
			}
			links = append(links, DashboardExploreLink{
				InstanceID:           r.instanceID,
				DashboardID:          dash.ID,
				ModelName:            model,
				ExploreName:          explore,
				UsageCount:           usage[ref],
				BusinessContextScore: businessContextScore(record, ref),
			})
		}
	}
	if err := r.store.ReplaceDashboards(ctx, r.instanceID, records, links); err != nil {
		return nil, nil, err
	}
	logger.Info("catalog: dashboards refreshed", "instance", r.instanceID,
		"dashboards", len(records), "links", len(links))
	return records, links, nil
}

// EnsureModels returns fresh cached models, refreshing first when the fresh
// set is empty (cache miss, never "empty catalog") or force is set.
func (r *Refresher) EnsureModels(ctx context.Context, force bool) ([]ModelRecord, error) {
	if !force {
		cached, err := r.store.FreshModels(ctx, r.instanceID)
		if err != nil {
			return nil, err
		}
		if len(cached) > 0 {
			return cached, nil
		}
	}
	return r.RefreshModels(ctx)
}

// EnsureExplores returns fresh cached explores for a model, refreshing on a
// cache miss or when force is set. An empty modelName returns every fresh
// explore without triggering a refresh.
func (r *Refresher) EnsureExplores(ctx context.Context, modelName string, force bool) ([]ExploreRecord, error) {
	if modelName == "" {
		return r.store.FreshExplores(ctx, r.instanceID, "")
	}
	if !force {
		cached, err := r.store.FreshExplores(ctx, r.instanceID, modelName)
		if err != nil {
			return nil, err
		}
		if len(cached) > 0 {
			return cached, nil
		}
	}
	return r.RefreshExplores(ctx, modelName)
}

// EnsureDashboards returns fresh cached dashboards and their explore links,
// refreshing on a cache miss or when force is set.
func (r *Refresher) EnsureDashboards(ctx context.Context, force bool) ([]DashboardRecord, []DashboardExploreLink, error) {
	if !force {
		cached, err := r.store.FreshDashboards(ctx, r.instanceID)
		if err != nil {
			return nil, nil, err
		}
		if len(cached) > 0 {
			links, err := r.store.FreshDashboardLinks(ctx, r.instanceID)
			if err != nil {
				return nil, nil, err
			}
			return cached, links, nil
		}
	}
	return r.RefreshDashboards(ctx)
}

// elementRef maps one tile to its "model.explore" reference. Query-backed
// tiles carry an inline query, a stored query id, or a look; a tile that
// cannot be mapped is skipped, never an error.
func (r *Refresher) elementRef(ctx context.Context, element looker.DashboardElement) (string, bool) {
	if element.Query != nil && element.Query.Model != "" && element.Query.View != "" {
		return element.Query.Model + "." + element.Query.View, true
	}
	if element.Look != nil && element.Look.Query != nil &&
		element.Look.Query.Model != "" && element.Look.Query.View != "" {
		return element.Look.Query.Model + "." + element.Look.Query.View, true
	}
	if element.QueryID != "" {
		ref, err := r.client.ResolveQuery(ctx, element.QueryID)
		if err != nil {
			common.Logger().Warn("catalog: query resolution failed for tile",
				"query_id", element.QueryID, "error", err)
			return "", false
		}
		if ref.Model != "" && ref.View != "" {
			return ref.Model + "." + ref.View, true
		}
	}
	return "", false
}

func lookID(element looker.DashboardElement) string {
	if element.Look == nil {
		return ""
	}
	return element.Look.ID
}

// enrichExplore folds field detail into a name-only record, deriving the
// keyword set from field names, labels and descriptions.
func enrichExplore(record ExploreRecord, detail looker.ExploreDetail) ExploreRecord {
	if detail.Label != "" {
		record.Label = detail.Label
	}
	if detail.Description != "" {
		record.Description = detail.Description
	}
	record.Dimensions = fieldRecords(detail.Fields.Dimensions)
	record.Measures = fieldRecords(detail.Fields.Measures)
	record.Keywords = keywordSet(detail.Fields.Dimensions, detail.Fields.Measures)
	return record
}

func fieldRecords(fields []looker.Field) []FieldRecord {
	if len(fields) == 0 {
		return nil
	}
	records := make([]FieldRecord, 0, len(fields))
	for _, field := range fields {
		records = append(records, FieldRecord{
			Name:        field.Name,
			Label:       field.Label,
			Description: field.Description,
			Type:        field.Type,
			Tags:        field.Tags,
		})
	}
	return records
}

// keywordSet mines search tokens from field metadata: name and label tokens
// split on camelCase and snake_case boundaries, plus description tokens longer
// than 3 characters capped at 5 per field to bound noise.
func keywordSet(fieldGroups ...[]looker.Field) []string {
	seen := map[string]struct{}{}
	for _, fields := range fieldGroups {
		for _, field := range fields {
			for _, token := range splitIdentifier(field.Name) {
				seen[token] = struct{}{}
			}
			for _, token := range splitIdentifier(field.Label) {
				seen[token] = struct{}{}
			}
			descTokens := 0
			for _, token := range strings.Fields(strings.ToLower(field.Description)) {
				token = strings.Trim(token, ".,;:!?()\"'")
				if len(token) <= 3 {
					continue
				}
				if _, dup := seen[token]; !dup {
					seen[token] = struct{}{}
				}
				descTokens++
				if descTokens >= 5 {
					break
				}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	keywords := make([]string, 0, len(seen))
	for token := range seen {
		keywords = append(keywords, token)
	}
	sort.Strings(keywords)
	return keywords
}

// splitIdentifier lower-cases an identifier and splits it on snake_case, dots
// and camelCase boundaries, dropping fragments of length ≤2.
func splitIdentifier(identifier string) []string {
	if identifier == "" {
		return nil
	}
	var parts []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 2 {
			parts = append(parts, strings.ToLower(current.String()))
		}
		current.Reset()
	}
	runes := []rune(identifier)
	for i, r := range runes {
		switch {
		case r == '_' || r == '.' || r == ' ' || r == '-':
			flush()
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return parts
}

// businessContextScore rates how strongly a dashboard's business language
// implies one of its explore references is relevant: token overlap between the
// dashboard text and the reference, plus a small view-count signal, capped at
// 3.0.
func businessContextScore(record DashboardRecord, ref string) float64 {
	refTokens := map[string]struct{}{}
	for _, token := range splitIdentifier(ref) {
		refTokens[token] = struct{}{}
	}
	text := strings.ToLower(record.Title + " " + record.Description + " " + record.FolderName + " " + strings.Join(record.Tags, " "))
	score := 0.0
	for token := range refTokens {
		if strings.Contains(text, token) {
			score += 0.5
		}
	}
	switch {
	case record.ViewCount >= 100:
		score += 0.5
	case record.ViewCount >= 10:
		score += 0.25
	}
	if score > 3.0 {
		score = 3.0
	}
	return score
}
