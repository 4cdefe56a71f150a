// File path: internal/api/types.go
package api

import "github.com/catalens/catalens/internal/resolver"

type resolveRequest struct {
	Question string `json:"question"`
}

type refreshRequest struct {
	Force bool   `json:"force"`
	Model string `json:"model,omitempty"`
}

type refreshResponse struct {
	Kind    string `json:"kind"`
	Count   int    `json:"count"`
	Links   int    `json:"links,omitempty"`
	Refresh bool   `json:"refreshed"`
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response   string           `json:"response"`
	SessionID  string           `json:"session_id"`
	Provider   string           `json:"provider"`
	Resolution *resolver.Result `json:"resolution"`
}
