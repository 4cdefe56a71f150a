// File path: internal/api/refresh_handler.go
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/catalens/catalens/internal/common"
)

func decodeRefresh(r *http.Request) (refreshRequest, error) {
	var req refreshRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err == io.EOF {
		return refreshRequest{}, nil
	}
	return req, err
}

func (s *Server) handleRefreshModels(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRefresh(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records, err := s.refresher.EnsureModels(r.Context(), req.Force)
	if err != nil {
		writeFetchAware(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Kind: "models", Count: len(records), Refresh: true})
}

func (s *Server) handleRefreshExplores(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRefresh(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	modelName := strings.TrimSpace(req.Model)
	if modelName != "" {
		records, err := s.refresher.EnsureExplores(r.Context(), modelName, req.Force)
		if err != nil {
			writeFetchAware(w, err)
			return
		}
		writeJSON(w, http.StatusOK, refreshResponse{Kind: "explores", Count: len(records), Refresh: true})
		return
	}
	count, err := s.refresher.RefreshAllExplores(r.Context(), req.Force)
	if err != nil {
		writeFetchAware(w, err)
		return
	}
	common.Logger().Info("api: explores refreshed", "count", count)
	writeJSON(w, http.StatusOK, refreshResponse{Kind: "explores", Count: count, Refresh: true})
}

func (s *Server) handleRefreshDashboards(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRefresh(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records, links, err := s.refresher.EnsureDashboards(r.Context(), req.Force)
	if err != nil {
		writeFetchAware(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Kind: "dashboards", Count: len(records), Links: len(links), Refresh: true})
}
