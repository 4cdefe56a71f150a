// File path: internal/looker/rest.go
package looker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/catalens/catalens/internal/common"
)

const apiPrefix = "/api/4.0"

const dashboardListFields = "id,title,description,folder,tags,view_count"

// RESTClient implements Client against the Looker 4.0 REST API. It logs in
// with client credentials and reuses the bearer token until it expires. The
// client itself is stateless with respect to catalog data.
type RESTClient struct {
	cfg  Config
	http *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewRESTClient constructs a REST client for the configured instance.
func NewRESTClient(cfg Config) *RESTClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTClient{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

// BaseURL reports the configured endpoint.
func (c *RESTClient) BaseURL() string { return c.cfg.BaseURL }

func (c *RESTClient) ListModels(ctx context.Context) ([]Model, error) {
	var models []Model
	query := url.Values{"fields": {"name,project_name,label,description"}}
	if err := c.get(ctx, "list models", "/lookml_models", query, &models); err != nil {
		return nil, err
	}
	return models, nil
}

func (c *RESTClient) DescribeModel(ctx context.Context, name string) (ModelDetail, error) {
	var detail ModelDetail
	if strings.TrimSpace(name) == "" {
		return detail, &FetchError{Op: "describe model", Cause: CauseOther, Message: "model name required"}
	}
	path := "/lookml_models/" + url.PathEscape(name)
	if err := c.get(ctx, "describe model", path, nil, &detail); err != nil {
		return ModelDetail{}, err
	}
	return detail, nil
}

func (c *RESTClient) DescribeExplore(ctx context.Context, model, explore string) (ExploreDetail, error) {
	var detail ExploreDetail
	if strings.TrimSpace(model) == "" || strings.TrimSpace(explore) == "" {
		return detail, &FetchError{Op: "describe explore", Cause: CauseOther, Message: "model and explore names required"}
	}
	path := "/lookml_models/" + url.PathEscape(model) + "/explores/" + url.PathEscape(explore)
	if err := c.get(ctx, "describe explore", path, nil, &detail); err != nil {
		return ExploreDetail{}, err
	}
	return detail, nil
}

func (c *RESTClient) ListDashboards(ctx context.Context) ([]Dashboard, error) {
	var dashboards []Dashboard
	query := url.Values{"fields": {dashboardListFields}}
	if err := c.get(ctx, "list dashboards", "/dashboards", query, &dashboards); err != nil {
		return nil, err
	}
	return dashboards, nil
}

func (c *RESTClient) DescribeDashboard(ctx context.Context, id string) (DashboardDetail, error) {
	var detail DashboardDetail
	if strings.TrimSpace(id) == "" {
		return detail, &FetchError{Op: "describe dashboard", Cause: CauseOther, Message: "dashboard id required"}
	}
	path := "/dashboards/" + url.PathEscape(id)
	if err := c.get(ctx, "describe dashboard", path, nil, &detail); err != nil {
		return DashboardDetail{}, err
	}
	return detail, nil
}

func (c *RESTClient) ResolveQuery(ctx context.Context, queryID string) (QueryRef, error) {
	var ref QueryRef
	if strings.TrimSpace(queryID) == "" {
		return ref, &FetchError{Op: "resolve query", Cause: CauseOther, Message: "query id required"}
	}
	path := "/queries/" + url.PathEscape(queryID)
	if err := c.get(ctx, "resolve query", path, url.Values{"fields": {"model,view"}}, &ref); err != nil {
		return QueryRef{}, err
	}
	return ref, nil
}

func (c *RESTClient) get(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	token, err := c.ensureToken(ctx, op)
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Op: op, Cause: CauseOther, Message: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return classifyStatus(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Op: op, Cause: CauseOther, Message: "decode response: " + err.Error(), Err: err}
	}
	return nil
}

func (c *RESTClient) ensureToken(ctx context.Context, op string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}
	logger := common.Logger()
	logger.Debug("looker: logging in", "base_url", c.cfg.BaseURL)
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + apiPrefix + "/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &FetchError{Op: op, Cause: CauseOther, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", classifyTransportError(op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fetchErr := classifyStatus(op, resp)
		var fe *FetchError
		if errors.As(fetchErr, &fe) && fe.Cause == CauseOther {
			// A rejected login is an authentication problem even when the
			// instance answers with a generic status.
			fe.Cause = CauseAuthentication
		}
		return "", fetchErr
	}
	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &FetchError{Op: op, Cause: CauseAuthentication, Message: "decode login response: " + err.Error(), Err: err}
	}
	if payload.AccessToken == "" {
		return "", &FetchError{Op: op, Cause: CauseAuthentication, Message: "login returned no access token"}
	}
	expires := time.Duration(payload.ExpiresIn) * time.Second
	if expires <= 0 {
		expires = 30 * time.Minute
	}
	c.token = payload.AccessToken
	c.tokenExpiry = time.Now().Add(expires - time.Minute)
	logger.Info("looker: authenticated", "expires_in", expires)
	return c.token, nil
}

func classifyStatus(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = resp.Status
	}
	cause := CauseOther
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		cause = CauseAuthentication
	case http.StatusNotFound:
		cause = CauseNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		cause = CauseTimeout
	}
	return &FetchError{Op: op, Cause: cause, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, message)}
}

func classifyTransportError(op string, err error) error {
	cause := CauseOther
	if errors.Is(err, context.DeadlineExceeded) {
		cause = CauseTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		cause = CauseTimeout
	}
	return &FetchError{Op: op, Cause: cause, Message: err.Error(), Err: err}
}
