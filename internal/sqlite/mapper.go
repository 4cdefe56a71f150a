// File path: internal/sqlite/mapper.go
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/catalens/catalens/internal/catalog"
)

type modelRow struct {
	InstanceID      string         `db:"instance_id"`
	Name            string         `db:"name"`
	ProjectName     sql.NullString `db:"project_name"`
	Label           sql.NullString `db:"label"`
	Description     sql.NullString `db:"description"`
	Metadata        sql.NullString `db:"metadata"`
	LastRefreshedAt time.Time      `db:"last_refreshed_at"`
}

type exploreRow struct {
	InstanceID      string         `db:"instance_id"`
	ModelName       string         `db:"model_name"`
	ExploreName     string         `db:"explore_name"`
	Label           sql.NullString `db:"label"`
	Description     sql.NullString `db:"description"`
	Dimensions      sql.NullString `db:"dimensions"`
	Measures        sql.NullString `db:"measures"`
	Keywords        sql.NullString `db:"keywords"`
	Metadata        sql.NullString `db:"metadata"`
	LastRefreshedAt time.Time      `db:"last_refreshed_at"`
}

type dashboardRow struct {
	InstanceID        string         `db:"instance_id"`
	DashboardID       string         `db:"dashboard_id"`
	Title             string         `db:"title"`
	Description       sql.NullString `db:"description"`
	FolderName        sql.NullString `db:"folder_name"`
	Tags              sql.NullString `db:"tags"`
	Elements          sql.NullString `db:"elements"`
	ExploreReferences sql.NullString `db:"explore_references"`
	ViewCount         int            `db:"view_count"`
	LastRefreshedAt   time.Time      `db:"last_refreshed_at"`
}

type dashboardLinkRow struct {
	InstanceID           string  `db:"instance_id"`
	DashboardID          string  `db:"dashboard_id"`
	ModelName            string  `db:"model_name"`
	ExploreName          string  `db:"explore_name"`
	UsageCount           int     `db:"usage_count"`
	BusinessContextScore float64 `db:"business_context_score"`
}

func marshalJSON(value any) (sql.NullString, error) {
	if value == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal column: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalJSON(column sql.NullString, target any) error {
	if !column.Valid || column.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(column.String), target); err != nil {
		return fmt.Errorf("unmarshal column: %w", err)
	}
	return nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func (r modelRow) toRecord() (catalog.ModelRecord, error) {
	record := catalog.ModelRecord{
		InstanceID:      r.InstanceID,
		Name:            r.Name,
		ProjectName:     r.ProjectName.String,
		Label:           r.Label.String,
		Description:     r.Description.String,
		LastRefreshedAt: r.LastRefreshedAt,
	}
	if err := unmarshalJSON(r.Metadata, &record.Metadata); err != nil {
		return catalog.ModelRecord{}, err
	}
	return record, nil
}

func modelToRow(record catalog.ModelRecord) (modelRow, error) {
	row := modelRow{
		InstanceID:      record.InstanceID,
		Name:            record.Name,
		ProjectName:     nullString(record.ProjectName),
		Label:           nullString(record.Label),
		Description:     nullString(record.Description),
		LastRefreshedAt: record.LastRefreshedAt,
	}
	if len(record.Metadata) > 0 {
		metadata, err := marshalJSON(record.Metadata)
		if err != nil {
			return modelRow{}, err
		}
		row.Metadata = metadata
	}
	return row, nil
}

func (r exploreRow) toRecord() (catalog.ExploreRecord, error) {
	record := catalog.ExploreRecord{
		InstanceID:      r.InstanceID,
		ModelName:       r.ModelName,
		ExploreName:     r.ExploreName,
		Label:           r.Label.String,
		Description:     r.Description.String,
		LastRefreshedAt: r.LastRefreshedAt,
	}
	if err := unmarshalJSON(r.Dimensions, &record.Dimensions); err != nil {
		return catalog.ExploreRecord{}, err
	}
	if err := unmarshalJSON(r.Measures, &record.Measures); err != nil {
		return catalog.ExploreRecord{}, err
	}
	if err := unmarshalJSON(r.Keywords, &record.Keywords); err != nil {
		return catalog.ExploreRecord{}, err
	}
	if err := unmarshalJSON(r.Metadata, &record.Metadata); err != nil {
		return catalog.ExploreRecord{}, err
	}
	return record, nil
}

func exploreToRow(record catalog.ExploreRecord) (exploreRow, error) {
	row := exploreRow{
		InstanceID:      record.InstanceID,
		ModelName:       record.ModelName,
		ExploreName:     record.ExploreName,
		Label:           nullString(record.Label),
		Description:     nullString(record.Description),
		LastRefreshedAt: record.LastRefreshedAt,
	}
	var err error
	if len(record.Dimensions) > 0 {
		if row.Dimensions, err = marshalJSON(record.Dimensions); err != nil {
			return exploreRow{}, err
		}
	}
	if len(record.Measures) > 0 {
		if row.Measures, err = marshalJSON(record.Measures); err != nil {
			return exploreRow{}, err
		}
	}
	if len(record.Keywords) > 0 {
		if row.Keywords, err = marshalJSON(record.Keywords); err != nil {
			return exploreRow{}, err
		}
	}
	if len(record.Metadata) > 0 {
		if row.Metadata, err = marshalJSON(record.Metadata); err != nil {
			return exploreRow{}, err
		}
	}
	return row, nil
}

func (r dashboardRow) toRecord() (catalog.DashboardRecord, error) {
	record := catalog.DashboardRecord{
		InstanceID:      r.InstanceID,
		DashboardID:     r.DashboardID,
		Title:           r.Title,
		Description:     r.Description.String,
		FolderName:      r.FolderName.String,
		ViewCount:       r.ViewCount,
		LastRefreshedAt: r.LastRefreshedAt,
	}
	if err := unmarshalJSON(r.Tags, &record.Tags); err != nil {
		return catalog.DashboardRecord{}, err
	}
	if err := unmarshalJSON(r.Elements, &record.Elements); err != nil {
		return catalog.DashboardRecord{}, err
	}
	if err := unmarshalJSON(r.ExploreReferences, &record.ExploreReferences); err != nil {
		return catalog.DashboardRecord{}, err
	}
	return record, nil
}

func dashboardToRow(record catalog.DashboardRecord) (dashboardRow, error) {
	row := dashboardRow{
		InstanceID:      record.InstanceID,
		DashboardID:     record.DashboardID,
		Title:           record.Title,
		Description:     nullString(record.Description),
		FolderName:      nullString(record.FolderName),
		ViewCount:       record.ViewCount,
		LastRefreshedAt: record.LastRefreshedAt,
	}
	var err error
	if len(record.Tags) > 0 {
		if row.Tags, err = marshalJSON(record.Tags); err != nil {
			return dashboardRow{}, err
		}
	}
	if len(record.Elements) > 0 {
		if row.Elements, err = marshalJSON(record.Elements); err != nil {
			return dashboardRow{}, err
		}
	}
	if len(record.ExploreReferences) > 0 {
		if row.ExploreReferences, err = marshalJSON(record.ExploreReferences); err != nil {
			return dashboardRow{}, err
		}
	}
	return row, nil
}

func (r dashboardLinkRow) toRecord() catalog.DashboardExploreLink {
	return catalog.DashboardExploreLink{
		InstanceID:           r.InstanceID,
		DashboardID:          r.DashboardID,
		ModelName:            r.ModelName,
		ExploreName:          r.ExploreName,
		UsageCount:           r.UsageCount,
		BusinessContextScore: r.BusinessContextScore,
	}
}
