// File path: internal/api/catalog_handler.go
package api

import (
	"net/http"
	"strings"
)

func (s *Server) handleCatalogModels(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.FreshModels(r.Context(), s.refresher.InstanceID())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": records, "count": len(records)})
}

func (s *Server) handleCatalogExplores(w http.ResponseWriter, r *http.Request) {
	modelName := strings.TrimSpace(r.URL.Query().Get("model"))
	records, err := s.store.FreshExplores(r.Context(), s.refresher.InstanceID(), modelName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"explores": records, "count": len(records)})
}

func (s *Server) handleCatalogDashboards(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.FreshDashboards(r.Context(), s.refresher.InstanceID())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"dashboards": records, "count": len(records)})
}
