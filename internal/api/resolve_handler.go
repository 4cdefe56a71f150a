// File path: internal/api/resolve_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/catalens/catalens/internal/common"
)

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: resolve decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("question required"))
		return
	}
	result := s.resolver.Resolve(r.Context(), question)
	logger.Info("api: question resolved", "strategy", result.Strategy, "explores", len(result.SuggestedExplores))
	writeJSON(w, http.StatusOK, result)
}
