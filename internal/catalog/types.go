// File path: internal/catalog/types.go
package catalog

import (
	"strings"
	"time"
)

// Kind identifies the class of cached catalog records.
type Kind string

const (
	KindModel     Kind = "model"
	KindExplore   Kind = "explore"
	KindDashboard Kind = "dashboard"
)

// DefaultRefreshWindow bounds how long a cached record is considered fresh.
const DefaultRefreshWindow = 24 * time.Hour

// ModelRecord is a cached LookML model. Records are replaced wholesale on each
// full fetch and are read-only between refreshes.
type ModelRecord struct {
	InstanceID      string            `json:"instance_id"`
	Name            string            `json:"name"`
	ProjectName     string            `json:"project_name,omitempty"`
	Label           string            `json:"label,omitempty"`
	Description     string            `json:"description,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	LastRefreshedAt time.Time         `json:"last_refreshed_at"`
}

// FieldRecord describes a single dimension or measure on an explore.
type FieldRecord struct {
	Name        string   `json:"name"`
	Label       string   `json:"label,omitempty"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ExploreRecord is a cached explore. Field detail may arrive after the bare
// explore name: records are first written name-only and later enriched via
// UpsertExplore without disturbing siblings.
type ExploreRecord struct {
	InstanceID      string            `json:"instance_id"`
	ModelName       string            `json:"model_name"`
	ExploreName     string            `json:"explore_name"`
	Label           string            `json:"label,omitempty"`
	Description     string            `json:"description,omitempty"`
	Dimensions      []FieldRecord     `json:"dimensions,omitempty"`
	Measures        []FieldRecord     `json:"measures,omitempty"`
	Keywords        []string          `json:"keywords,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	LastRefreshedAt time.Time         `json:"last_refreshed_at"`
}

// Ref returns the canonical "model.explore" reference for the record.
func (e ExploreRecord) Ref() string {
	return e.ModelName + "." + e.ExploreName
}

// DashboardElement is a tile descriptor kept for provenance.
type DashboardElement struct {
	Title       string `json:"title,omitempty"`
	ElementType string `json:"element_type,omitempty"`
	QueryID     string `json:"query_id,omitempty"`
	LookID      string `json:"look_id,omitempty"`
}

// DashboardRecord is a cached dashboard together with the explore references
// derived from its tiles. References may point at explores that are not yet
// cached; that is tolerated, never an error.
type DashboardRecord struct {
	InstanceID        string             `json:"instance_id"`
	DashboardID       string             `json:"dashboard_id"`
	Title             string             `json:"title"`
	Description       string             `json:"description,omitempty"`
	FolderName        string             `json:"folder_name,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	Elements          []DashboardElement `json:"elements,omitempty"`
	ExploreReferences []string           `json:"explore_references,omitempty"`
	ViewCount         int                `json:"view_count"`
	LastRefreshedAt   time.Time          `json:"last_refreshed_at"`
}

// DashboardExploreLink is the derived relation between a dashboard and one
// explore it references. UsageCount counts tiles referencing the explore;
// BusinessContextScore captures how strongly the dashboard's business language
// implies the explore is relevant (capped at 3.0 at derivation time).
type DashboardExploreLink struct {
	InstanceID           string  `json:"instance_id"`
	DashboardID          string  `json:"dashboard_id"`
	ModelName            string  `json:"model_name"`
	ExploreName          string  `json:"explore_name"`
	UsageCount           int     `json:"usage_count"`
	BusinessContextScore float64 `json:"business_context_score"`
}

// Ref returns the "model.explore" reference for the link.
func (l DashboardExploreLink) Ref() string {
	return l.ModelName + "." + l.ExploreName
}

// SplitRef splits a "model.explore" reference. The explore portion may itself
// contain dots; only the first separator is significant.
func SplitRef(ref string) (model, explore string, ok bool) {
	idx := strings.Index(ref, ".")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", false
	}
	return ref[:idx], ref[idx+1:], true
}
