// File path: internal/sqlite/catalog.go
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/catalens/catalens/internal/catalog"
)

var _ catalog.Store = (*Store)(nil)

func storeErr(op string, err error) error {
	return &catalog.StoreError{Op: op, Err: err}
}

// FreshModels returns cached models still inside the refresh window. An empty
// slice signals a cache miss, not an empty catalog.
func (s *Store) FreshModels(ctx context.Context, instanceID string) ([]catalog.ModelRecord, error) {
	if err := s.ensureReady(); err != nil {
		return nil, storeErr("fresh models", err)
	}
	cutoff := s.now().UTC().Add(-s.window)
	var rows []modelRow
	err := s.db.SelectContext(ctx, &rows, `
                SELECT instance_id, name, project_name, label, description, metadata, last_refreshed_at
                FROM models
                WHERE instance_id = ? AND last_refreshed_at > ?
                ORDER BY name`, instanceID, cutoff)
	if err != nil {
		return nil, storeErr("fresh models", err)
	}
	records := make([]catalog.ModelRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, storeErr("fresh models", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// FreshExplores returns cached explores for a model still inside the refresh
// window. When modelName is empty all fresh explores for the instance are
// returned.
func (s *Store) FreshExplores(ctx context.Context, instanceID, modelName string) ([]catalog.ExploreRecord, error) {
	if err := s.ensureReady(); err != nil {
		return nil, storeErr("fresh explores", err)
	}
	cutoff := s.now().UTC().Add(-s.window)
	query := `
                SELECT instance_id, model_name, explore_name, label, description,
                       dimensions, measures, keywords, metadata, last_refreshed_at
                FROM explores
                WHERE instance_id = ? AND last_refreshed_at > ?`
	args := []any{instanceID, cutoff}
	if modelName != "" {
		query += ` AND model_name = ?`
		args = append(args, modelName)
	}
	query += ` ORDER BY model_name, explore_name`
	var rows []exploreRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr("fresh explores", err)
	}
	records := make([]catalog.ExploreRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, storeErr("fresh explores", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// FreshDashboards returns cached dashboards still inside the refresh window.
func (s *Store) FreshDashboards(ctx context.Context, instanceID string) ([]catalog.DashboardRecord, error) {
	if err := s.ensureReady(); err != nil {
		return nil, storeErr("fresh dashboards", err)
	}
	cutoff := s.now().UTC().Add(-s.window)
	var rows []dashboardRow
	err := s.db.SelectContext(ctx, &rows, `
                SELECT instance_id, dashboard_id, title, description, folder_name,
                       tags, elements, explore_references, view_count, last_refreshed_at
                FROM dashboards
                WHERE instance_id = ? AND last_refreshed_at > ?
                ORDER BY dashboard_id`, instanceID, cutoff)
	if err != nil {
		return nil, storeErr("fresh dashboards", err)
	}
	records := make([]catalog.DashboardRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, storeErr("fresh dashboards", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// FreshDashboardLinks returns the dashboard-to-explore relation for dashboards
// still inside the refresh window. Links ride on their dashboard's freshness.
func (s *Store) FreshDashboardLinks(ctx context.Context, instanceID string) ([]catalog.DashboardExploreLink, error) {
	if err := s.ensureReady(); err != nil {
		return nil, storeErr("fresh dashboard links", err)
	}
	cutoff := s.now().UTC().Add(-s.window)
	var rows []dashboardLinkRow
	err := s.db.SelectContext(ctx, &rows, `
                SELECT l.instance_id, l.dashboard_id, l.model_name, l.explore_name,
                       l.usage_count, l.business_context_score
                FROM dashboard_explores l
                JOIN dashboards d
                  ON d.instance_id = l.instance_id AND d.dashboard_id = l.dashboard_id
                WHERE l.instance_id = ? AND d.last_refreshed_at > ?
                ORDER BY l.dashboard_id, l.model_name, l.explore_name`, instanceID, cutoff)
	if err != nil {
		return nil, storeErr("fresh dashboard links", err)
	}
	links := make([]catalog.DashboardExploreLink, 0, len(rows))
	for _, row := range rows {
		links = append(links, row.toRecord())
	}
	return links, nil
}

// ReplaceModels swaps the full model set for an instance in one transaction.
func (s *Store) ReplaceModels(ctx context.Context, instanceID string, records []catalog.ModelRecord) error {
	if err := s.ensureReady(); err != nil {
		return storeErr("replace models", err)
	}
	stamp := s.now().UTC()
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return storeErr("replace models", fmt.Errorf("begin: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM models WHERE instance_id = ?`, instanceID); err != nil {
		return storeErr("replace models", fmt.Errorf("clear: %w", err))
	}
	for _, record := range records {
		record.InstanceID = instanceID
		record.LastRefreshedAt = stamp
		row, err := modelToRow(record)
		if err != nil {
			return storeErr("replace models", err)
		}
		_, err = tx.NamedExecContext(ctx, `
                        INSERT INTO models (instance_id, name, project_name, label, description, metadata, last_refreshed_at)
                        VALUES (:instance_id, :name, :project_name, :label, :description, :metadata, :last_refreshed_at)`, row)
		if err != nil {
			return storeErr("replace models", fmt.Errorf("insert %s: %w", record.Name, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("replace models", fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}

// ReplaceExplores swaps the explore set for one model in one transaction.
func (s *Store) ReplaceExplores(ctx context.Context, instanceID, modelName string, records []catalog.ExploreRecord) error {
	if err := s.ensureReady(); err != nil {
		return storeErr("replace explores", err)
	}
	stamp := s.now().UTC()
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return storeErr("replace explores", fmt.Errorf("begin: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM explores WHERE instance_id = ? AND model_name = ?`, instanceID, modelName); err != nil {
		return storeErr("replace explores", fmt.Errorf("clear: %w", err))
	}
	for _, record := range records {
		record.InstanceID = instanceID
		record.ModelName = modelName
		record.LastRefreshedAt = stamp
		row, err := exploreToRow(record)
		if err != nil {
			return storeErr("replace explores", err)
		}
		_, err = tx.NamedExecContext(ctx, `
                        INSERT INTO explores (instance_id, model_name, explore_name, label, description,
                                              dimensions, measures, keywords, metadata, last_refreshed_at)
                        VALUES (:instance_id, :model_name, :explore_name, :label, :description,
                                :dimensions, :measures, :keywords, :metadata, :last_refreshed_at)`, row)
		if err != nil {
			return storeErr("replace explores", fmt.Errorf("insert %s: %w", record.Ref(), err))
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("replace explores", fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}

// ReplaceDashboards swaps the dashboard set and its derived explore links for
// an instance in one transaction.
func (s *Store) ReplaceDashboards(ctx context.Context, instanceID string, records []catalog.DashboardRecord, links []catalog.DashboardExploreLink) error {
	if err := s.ensureReady(); err != nil {
		return storeErr("replace dashboards", err)
	}
	stamp := s.now().UTC()
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return storeErr("replace dashboards", fmt.Errorf("begin: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM dashboard_explores WHERE instance_id = ?`, instanceID); err != nil {
		return storeErr("replace dashboards", fmt.Errorf("clear links: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM dashboards WHERE instance_id = ?`, instanceID); err != nil {
		return storeErr("replace dashboards", fmt.Errorf("clear: %w", err))
	}
	for _, record := range records {
		record.InstanceID = instanceID
		record.LastRefreshedAt = stamp
		row, err := dashboardToRow(record)
		if err != nil {
			return storeErr("replace dashboards", err)
		}
		_, err = tx.NamedExecContext(ctx, `
                        INSERT INTO dashboards (instance_id, dashboard_id, title, description, folder_name,
                                                tags, elements, explore_references, view_count, last_refreshed_at)
                        VALUES (:instance_id, :dashboard_id, :title, :description, :folder_name,
                                :tags, :elements, :explore_references, :view_count, :last_refreshed_at)`, row)
		if err != nil {
			return storeErr("replace dashboards", fmt.Errorf("insert %s: %w", record.DashboardID, err))
		}
	}
	for _, link := range links {
		link.InstanceID = instanceID
		row := dashboardLinkRow{
			InstanceID:           link.InstanceID,
			DashboardID:          link.DashboardID,
			ModelName:            link.ModelName,
			ExploreName:          link.ExploreName,
			UsageCount:           link.UsageCount,
			BusinessContextScore: link.BusinessContextScore,
		}
		_, err := tx.NamedExecContext(ctx, `
                        INSERT INTO dashboard_explores (instance_id, dashboard_id, model_name, explore_name,
                                                        usage_count, business_context_score)
                        VALUES (:instance_id, :dashboard_id, :model_name, :explore_name,
                                :usage_count, :business_context_score)`, row)
		if err != nil {
			return storeErr("replace dashboards", fmt.Errorf("insert link %s/%s: %w", link.DashboardID, link.Ref(), err))
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("replace dashboards", fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}

// UpsertExplore writes or enriches a single explore without disturbing its
// siblings. Used for two-phase population: the bare name lands first, field
// detail follows.
func (s *Store) UpsertExplore(ctx context.Context, record catalog.ExploreRecord) error {
	if err := s.ensureReady(); err != nil {
		return storeErr("upsert explore", err)
	}
	if record.LastRefreshedAt.IsZero() {
		record.LastRefreshedAt = s.now().UTC()
	}
	row, err := exploreToRow(record)
	if err != nil {
		return storeErr("upsert explore", err)
	}
	_, err = s.db.NamedExecContext(ctx, `
                INSERT INTO explores (instance_id, model_name, explore_name, label, description,
                                      dimensions, measures, keywords, metadata, last_refreshed_at)
                VALUES (:instance_id, :model_name, :explore_name, :label, :description,
                        :dimensions, :measures, :keywords, :metadata, :last_refreshed_at)
                ON CONFLICT(instance_id, model_name, explore_name) DO UPDATE SET
                        label = excluded.label,
                        description = excluded.description,
                        dimensions = excluded.dimensions,
                        measures = excluded.measures,
                        keywords = excluded.keywords,
                        metadata = excluded.metadata,
                        last_refreshed_at = excluded.last_refreshed_at`, row)
	if err != nil {
		return storeErr("upsert explore", fmt.Errorf("upsert %s: %w", record.Ref(), err))
	}
	return nil
}
