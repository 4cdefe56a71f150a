// File path: internal/catalog/store.go
package catalog

import (
	"context"
	"fmt"
)

// Store persists fetched catalog records keyed by (instance, kind, record
// key). The store exclusively owns persisted records; resolvers only read
// them. Fresh* methods return only records inside the refresh window: an
// empty result means "cache miss", never "empty catalog", and callers must
// refresh before concluding the catalog is empty. Replace* methods have
// full-replace semantics and must be transactional: a failure mid-insert
// rolls back to the pre-replace state.
type Store interface {
	FreshModels(ctx context.Context, instanceID string) ([]ModelRecord, error)
	FreshExplores(ctx context.Context, instanceID, modelName string) ([]ExploreRecord, error)
	FreshDashboards(ctx context.Context, instanceID string) ([]DashboardRecord, error)
	FreshDashboardLinks(ctx context.Context, instanceID string) ([]DashboardExploreLink, error)

	ReplaceModels(ctx context.Context, instanceID string, records []ModelRecord) error
	ReplaceExplores(ctx context.Context, instanceID, modelName string, records []ExploreRecord) error
	ReplaceDashboards(ctx context.Context, instanceID string, records []DashboardRecord, links []DashboardExploreLink) error

	// UpsertExplore updates a single explore in place without disturbing
	// siblings; used for two-phase field enrichment.
	UpsertExplore(ctx context.Context, record ExploreRecord) error
}

// StoreError reports a persistence-layer failure. Callers must not treat it
// as "not found": a store error aborts the lookup instead of falling through
// to a refetch.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("catalog store: %s failed", e.Op)
	}
	return fmt.Sprintf("catalog store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
