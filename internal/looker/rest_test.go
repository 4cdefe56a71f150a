// File path: internal/looker/rest_test.go
package looker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *RESTClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == apiPrefix+"/login" {
			if r.Method != http.MethodPost {
				t.Errorf("login must POST, got %s", r.Method)
			}
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse login form: %v", err)
			}
			if r.PostFormValue("client_id") != "id" || r.PostFormValue("client_secret") != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "token-1",
				"expires_in":   3600,
			})
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("missing bearer token, got %q", got)
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewRESTClient(Config{
		BaseURL:      server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		HTTPTimeout:  5 * time.Second,
	})
}

func TestListModels(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPrefix+"/lookml_models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]Model{
			{Name: "saga_experiments", ProjectName: "saga", Label: "Experiments"},
		})
	})
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(models) != 1 || models[0].Name != "saga_experiments" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestDescribeExploreParsesFields(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPrefix+"/lookml_models/saga_experiments/explores/abtest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
                        "name": "abtest",
                        "model_name": "saga_experiments",
                        "fields": {
                                "dimensions": [{"name": "variant_name", "type": "string"}],
                                "measures": [{"name": "winner_count", "type": "number"}]
                        }
                }`))
	})
	detail, err := client.DescribeExplore(context.Background(), "saga_experiments", "abtest")
	if err != nil {
		t.Fatalf("describe explore: %v", err)
	}
	if len(detail.Fields.Dimensions) != 1 || detail.Fields.Dimensions[0].Name != "variant_name" {
		t.Fatalf("dimensions not parsed: %+v", detail.Fields)
	}
	if len(detail.Fields.Measures) != 1 || detail.Fields.Measures[0].Name != "winner_count" {
		t.Fatalf("measures not parsed: %+v", detail.Fields)
	}
}

func TestResolveQuery(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPrefix+"/queries/q-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(QueryRef{Model: "saga_experiments", View: "abtest"})
	})
	ref, err := client.ResolveQuery(context.Background(), "q-1")
	if err != nil {
		t.Fatalf("resolve query: %v", err)
	}
	if ref.Model != "saga_experiments" || ref.View != "abtest" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestFetchErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   Cause
	}{
		{"unauthorized", http.StatusUnauthorized, CauseAuthentication},
		{"forbidden", http.StatusForbidden, CauseAuthentication},
		{"not found", http.StatusNotFound, CauseNotFound},
		{"gateway timeout", http.StatusGatewayTimeout, CauseTimeout},
		{"server error", http.StatusInternalServerError, CauseOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := client.ListModels(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected FetchError, got %T: %v", err, err)
			}
			if fetchErr.Cause != tc.want {
				t.Fatalf("cause: got %s want %s", fetchErr.Cause, tc.want)
			}
		})
	}
}

func TestLoginRejectionIsAuthentication(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)
	client := NewRESTClient(Config{BaseURL: server.URL, ClientID: "bad", ClientSecret: "creds"})
	_, err := client.ListModels(context.Background())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Cause != CauseAuthentication {
		t.Fatalf("expected authentication cause, got %v", err)
	}
}

func TestTokenReuse(t *testing.T) {
	logins := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == apiPrefix+"/login" {
			logins++
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "token-1", "expires_in": 3600})
			return
		}
		_ = json.NewEncoder(w).Encode([]Model{})
	}))
	t.Cleanup(server.Close)
	client := NewRESTClient(Config{BaseURL: server.URL, ClientID: "id", ClientSecret: "secret"})
	for i := 0; i < 3; i++ {
		if _, err := client.ListModels(context.Background()); err != nil {
			t.Fatalf("list models: %v", err)
		}
	}
	if logins != 1 {
		t.Fatalf("token must be reused until expiry, got %d logins", logins)
	}
}

func TestInstanceIDStable(t *testing.T) {
	a := InstanceID("https://example.looker.com/")
	b := InstanceID("https://EXAMPLE.looker.com")
	if a != b {
		t.Fatalf("instance id must normalise the endpoint: %s vs %s", a, b)
	}
	if a == InstanceID("https://other.looker.com") {
		t.Fatalf("different endpoints must not collide")
	}
}
