// File path: internal/api/chat_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/catalens/catalens/internal/common"
	"github.com/catalens/catalens/internal/history"
	"github.com/catalens/catalens/internal/llm"
	"github.com/catalens/catalens/internal/resolver"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	ctx := r.Context()
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: chat decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("message required"))
		return
	}
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("no language model configured"))
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	start := time.Now()

	result := s.resolver.Resolve(ctx, message)
	logger.Info("api: chat question resolved", "session", sessionID, "strategy", result.Strategy)

	messages := []llm.Message{
		{Role: "system", Content: groundedSystemPrompt(result)},
		{Role: "user", Content: message},
	}
	answer, err := s.provider.Chat(ctx, messages)
	if err != nil {
		logger.Error("api: chat completion failed", "session", sessionID, "error", err)
		s.recordChatError(r, sessionID, message, err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("the assistant could not answer right now: %w", err))
		return
	}
	elapsed := time.Since(start)
	if s.recorder != nil {
		entry := history.Entry{
			SessionID:      sessionID,
			UserMessage:    message,
			Assistant:      answer,
			Strategy:       string(result.Strategy),
			ResponseTimeMS: elapsed.Milliseconds(),
		}
		if err := s.recorder.RecordExchange(ctx, entry); err != nil {
			logger.Warn("api: chat history write failed", "session", sessionID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:   answer,
		SessionID:  sessionID,
		Provider:   s.provider.Name(),
		Resolution: result,
	})
}

func (s *Server) recordChatError(r *http.Request, sessionID, message string, cause error) {
	if s.recorder == nil {
		return
	}
	entry := history.ErrorEntry{
		SessionID:    sessionID,
		ErrorMessage: cause.Error(),
		UserMessage:  message,
	}
	if err := s.recorder.RecordError(r.Context(), entry); err != nil {
		common.Logger().Warn("api: chat error write failed", "session", sessionID, "error", err)
	}
}

// groundedSystemPrompt turns the resolution into the grounding context for the
// answer: the assistant must speak about the suggested catalog objects, not
// invent schema.
func groundedSystemPrompt(result *resolver.Result) string {
	var b strings.Builder
	b.WriteString("You are Catalens, an analytics assistant for a Looker-style data catalog. ")
	b.WriteString("Answer the user's analytical question by pointing at the catalog objects below. ")
	b.WriteString("Never invent models or explores that are not listed.\n\n")
	if len(result.SuggestedModels) > 0 {
		b.WriteString("Relevant models:\n")
		for _, model := range result.SuggestedModels {
			b.WriteString("- " + model.Name)
			if model.Description != "" {
				b.WriteString(": " + model.Description)
			}
			b.WriteString("\n")
		}
	}
	if len(result.SuggestedExplores) > 0 {
		b.WriteString("Relevant explores (model.explore):\n")
		for _, ref := range result.SuggestedExplores {
			b.WriteString("- " + ref + "\n")
		}
	}
	fmt.Fprintf(&b, "\nHow these were found (%s strategy): %s\n", result.Strategy, result.Reasoning)
	return b.String()
}
