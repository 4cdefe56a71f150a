// File path: internal/api/history_handler.go
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("history recording disabled"))
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("parse limit: %w", err))
			return
		}
		limit = parsed
	}
	entries, err := s.recorder.ListEntries(r.Context(), sessionID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	failures, err := s.recorder.ListErrors(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "errors": failures})
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("history recording disabled"))
		return
	}
	if err := s.recorder.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
