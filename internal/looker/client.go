// File path: internal/looker/client.go
package looker

import (
	"context"
	"fmt"
)

// Client is the abstract contract against the upstream metadata provider. The
// REST implementation talks to the Looker 4.0 API; tests substitute fakes.
// Every method returns a typed *FetchError on failure and never silently
// returns an empty success.
type Client interface {
	ListModels(ctx context.Context) ([]Model, error)
	DescribeModel(ctx context.Context, name string) (ModelDetail, error)
	DescribeExplore(ctx context.Context, model, explore string) (ExploreDetail, error)
	ListDashboards(ctx context.Context) ([]Dashboard, error)
	DescribeDashboard(ctx context.Context, id string) (DashboardDetail, error)
	ResolveQuery(ctx context.Context, queryID string) (QueryRef, error)
}

// Model is the provider's model summary shape.
type Model struct {
	Name        string `json:"name"`
	ProjectName string `json:"project_name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ModelDetail carries the explores declared by a model.
type ModelDetail struct {
	Name     string        `json:"name"`
	Explores []ExploreStub `json:"explores"`
}

// ExploreStub is the name-only explore shape returned by DescribeModel.
type ExploreStub struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Field is a dimension or measure as reported by the provider.
type Field struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags"`
}

// ExploreDetail is the enriched explore shape returned by DescribeExplore.
type ExploreDetail struct {
	Name        string `json:"name"`
	ModelName   string `json:"model_name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Fields      struct {
		Dimensions []Field `json:"dimensions"`
		Measures   []Field `json:"measures"`
	} `json:"fields"`
}

// Dashboard is the provider's dashboard summary shape.
type Dashboard struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ViewCount   int      `json:"view_count"`
	Folder      struct {
		Name string `json:"name"`
	} `json:"folder"`
}

// DashboardElement is a tile on a dashboard; query-backed tiles carry either
// an inline query, a query id, or a look reference.
type DashboardElement struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	QueryID string `json:"query_id"`
	Query   *struct {
		Model string `json:"model"`
		View  string `json:"view"`
	} `json:"query"`
	Look *struct {
		ID    string `json:"id"`
		Query *struct {
			Model string `json:"model"`
			View  string `json:"view"`
		} `json:"query"`
	} `json:"look"`
}

// DashboardDetail carries a dashboard's tiles.
type DashboardDetail struct {
	ID       string             `json:"id"`
	Elements []DashboardElement `json:"dashboard_elements"`
}

// QueryRef maps a stored query id to its model and explore.
type QueryRef struct {
	Model string `json:"model"`
	View  string `json:"view"`
}

// Cause classifies why a fetch failed so callers can render a targeted
// message.
type Cause string

const (
	CauseAuthentication Cause = "authentication"
	CauseTimeout        Cause = "timeout"
	CauseNotFound       Cause = "not_found"
	CauseOther          Cause = "other"
)

// FetchError reports an upstream metadata provider failure. The core never
// retries automatically; the error is surfaced with its cause class.
type FetchError struct {
	Op      string
	Cause   Cause
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("looker %s: %s (%s)", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("looker %s failed (%s)", e.Op, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Err }
