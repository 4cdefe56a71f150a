// File path: internal/history/history.go
package history

import (
	"context"
	"time"
)

// Entry is one recorded chat exchange.
type Entry struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	UserMessage    string    `json:"user_message"`
	Assistant      string    `json:"assistant_response"`
	Strategy       string    `json:"strategy,omitempty"`
	ResponseTimeMS int64     `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// ErrorEntry is one recorded chat failure.
type ErrorEntry struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	ErrorMessage string    `json:"error_message"`
	UserMessage  string    `json:"user_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Recorder persists chat exchanges and failures for later inspection.
type Recorder interface {
	RecordExchange(ctx context.Context, entry Entry) error
	RecordError(ctx context.Context, entry ErrorEntry) error
	ListEntries(ctx context.Context, sessionID string, limit int) ([]Entry, error)
	ListErrors(ctx context.Context, limit int) ([]ErrorEntry, error)
	Clear(ctx context.Context) error
}
