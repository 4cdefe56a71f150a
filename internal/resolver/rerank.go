// File path: internal/resolver/rerank.go
package resolver

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/catalens/catalens/internal/common"
)

// rerankPrompt lists the known models and the top scored explores with their
// matched fields and asks for a strict two-line answer. The response is free
// text; parsing is defensive.
var rerankPrompt = prompts.NewPromptTemplate(
	`You help analysts pick the data explorations most relevant to a question.

Question: {{.question}}

Known models:
{{.models}}

Candidate explores (best match first, with the fields that matched):
{{.candidates}}

Reply with exactly two lines and nothing else:
EXPLORES: <comma-separated model.explore references from the candidates, most relevant first>
REASONING: <one sentence explaining the choice>`,
	[]string{"question", "models", "candidates"},
)

// rerank asks the LLM collaborator to reorder the semantic candidates. Any
// failure (the call itself, a missing EXPLORES line, references outside the
// candidate set) keeps the unranked order (ok=false).
func (r *Resolver) rerank(ctx context.Context, qc *queryContext, candidates []candidate) ([]string, string, bool) {
	logger := common.Logger()

	var modelLines []string
	for i, model := range qc.models {
		if i == 10 {
			break
		}
		line := "- " + model.Name
		if model.Description != "" {
			line += ": " + model.Description
		}
		modelLines = append(modelLines, line)
	}
	var candidateLines []string
	for _, c := range candidates {
		line := "- " + c.ref
		if len(c.matchedFields) > 0 {
			line += " (matched fields: " + strings.Join(c.matchedFields, ", ") + ")"
		}
		candidateLines = append(candidateLines, line)
	}
	prompt, err := rerankPrompt.Format(map[string]any{
		"question":   qc.question,
		"models":     strings.Join(modelLines, "\n"),
		"candidates": strings.Join(candidateLines, "\n"),
	})
	if err != nil {
		logger.Warn("resolver: rerank prompt render failed", "error", err)
		return nil, "", false
	}
	response, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		logger.Warn("resolver: rerank call failed, keeping semantic order", "error", err)
		return nil, "", false
	}
	refs, reasoning := parseRerankResponse(response, candidates)
	if len(refs) == 0 {
		logger.Warn("resolver: rerank response unparseable, keeping semantic order")
		return nil, "", false
	}
	return refs, reasoning, true
}

// parseRerankResponse scans the free-text answer for EXPLORES and REASONING
// lines. Only references present in the candidate set are accepted, in the
// order the model listed them; duplicates are dropped.
func parseRerankResponse(response string, candidates []candidate) ([]string, string) {
	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.ref] = struct{}{}
	}
	var refs []string
	var reasoning string
	seen := map[string]struct{}{}
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		switch {
		case strings.HasPrefix(upper, "EXPLORES:"):
			rest := strings.TrimSpace(trimmed[len("EXPLORES:"):])
			for _, part := range strings.Split(rest, ",") {
				ref := strings.TrimSpace(part)
				if ref == "" {
					continue
				}
				if _, ok := known[ref]; !ok {
					continue
				}
				if _, dup := seen[ref]; dup {
					continue
				}
				seen[ref] = struct{}{}
				refs = append(refs, ref)
			}
		case strings.HasPrefix(upper, "REASONING:"):
			reasoning = strings.TrimSpace(trimmed[len("REASONING:"):])
		}
	}
	return refs, reasoning
}
