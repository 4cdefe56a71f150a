// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/catalens/catalens/internal/catalog"
	"github.com/catalens/catalens/internal/common"
	"github.com/catalens/catalens/internal/history"
	"github.com/catalens/catalens/internal/llm"
	"github.com/catalens/catalens/internal/looker"
	"github.com/catalens/catalens/internal/resolver"
)

type Server struct {
	router    chi.Router
	resolver  *resolver.Resolver
	refresher *catalog.Refresher
	store     catalog.Store
	recorder  history.Recorder
	provider  llm.Provider
}

func NewServer(res *resolver.Resolver, refresher *catalog.Refresher, store catalog.Store, recorder history.Recorder, provider llm.Provider) (*Server, error) {
	logger := common.Logger()
	if res == nil {
		return nil, fmt.Errorf("resolver required")
	}
	if refresher == nil {
		return nil, fmt.Errorf("refresher required")
	}
	if store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	providerName := "none"
	if provider != nil {
		providerName = provider.Name()
	}
	srv := &Server{
		router:    chi.NewRouter(),
		resolver:  res,
		refresher: refresher,
		store:     store,
		recorder:  recorder,
		provider:  provider,
	}
	srv.routes()
	logger.Info("api: server ready", "provider", providerName, "instance", refresher.InstanceID())
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/resolve", s.handleResolve)
	s.router.Post("/v1/chat", s.handleChat)
	s.router.Post("/v1/refresh/models", s.handleRefreshModels)
	s.router.Post("/v1/refresh/explores", s.handleRefreshExplores)
	s.router.Post("/v1/refresh/dashboards", s.handleRefreshDashboards)
	s.router.Get("/v1/catalog/models", s.handleCatalogModels)
	s.router.Get("/v1/catalog/explores", s.handleCatalogExplores)
	s.router.Get("/v1/catalog/dashboards", s.handleCatalogDashboards)
	s.router.Get("/v1/history", s.handleHistory)
	s.router.Post("/v1/history/clear", s.handleHistoryClear)
	s.router.Get("/v1/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeFetchAware renders fetch failures with a cause-targeted message and
// status so the caller can distinguish credential problems from slow or
// missing upstream data.
func writeFetchAware(w http.ResponseWriter, err error) {
	var fetchErr *looker.FetchError
	if !errors.As(err, &fetchErr) {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	switch fetchErr.Cause {
	case looker.CauseAuthentication:
		writeError(w, http.StatusBadGateway, fmt.Errorf("the catalog provider rejected our credentials; check LOOKER_CLIENT_ID and LOOKER_CLIENT_SECRET: %w", err))
	case looker.CauseTimeout:
		writeError(w, http.StatusGatewayTimeout, fmt.Errorf("the catalog provider timed out; try again or raise LOOKER_HTTP_TIMEOUT: %w", err))
	case looker.CauseNotFound:
		writeError(w, http.StatusNotFound, fmt.Errorf("the catalog provider has no such object: %w", err))
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}
