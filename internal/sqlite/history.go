// File path: internal/sqlite/history.go
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/catalens/catalens/internal/history"
)

var _ history.Recorder = (*Store)(nil)

type chatSessionRow struct {
	ID             int64          `db:"id"`
	SessionID      string         `db:"session_id"`
	UserMessage    string         `db:"user_message"`
	Assistant      string         `db:"assistant_response"`
	Strategy       sql.NullString `db:"strategy"`
	ResponseTimeMS sql.NullInt64  `db:"response_time_ms"`
	CreatedAt      time.Time      `db:"created_at"`
}

type chatErrorRow struct {
	ID           int64          `db:"id"`
	SessionID    string         `db:"session_id"`
	ErrorMessage string         `db:"error_message"`
	UserMessage  sql.NullString `db:"user_message"`
	CreatedAt    time.Time      `db:"created_at"`
}

// RecordExchange appends one chat exchange to the session log.
func (s *Store) RecordExchange(ctx context.Context, entry history.Entry) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO chat_sessions (session_id, user_message, assistant_response, strategy, response_time_ms, created_at)
                VALUES (?, ?, ?, ?, ?, ?)`,
		entry.SessionID, entry.UserMessage, entry.Assistant,
		nullString(entry.Strategy), entry.ResponseTimeMS, s.now().UTC())
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// RecordError appends one chat failure to the error log.
func (s *Store) RecordError(ctx context.Context, entry history.ErrorEntry) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
                INSERT INTO chat_errors (session_id, error_message, user_message, created_at)
                VALUES (?, ?, ?, ?)`,
		entry.SessionID, entry.ErrorMessage, nullString(entry.UserMessage), s.now().UTC())
	if err != nil {
		return fmt.Errorf("record error: %w", err)
	}
	return nil
}

// ListEntries returns the most recent exchanges, optionally filtered by
// session. A non-positive limit defaults to 50.
func (s *Store) ListEntries(ctx context.Context, sessionID string, limit int) ([]history.Entry, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	query := `
                SELECT id, session_id, user_message, assistant_response, strategy, response_time_ms, created_at
                FROM chat_sessions`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)
	var rows []chatSessionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	entries := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, history.Entry{
			ID:             row.ID,
			SessionID:      row.SessionID,
			UserMessage:    row.UserMessage,
			Assistant:      row.Assistant,
			Strategy:       row.Strategy.String,
			ResponseTimeMS: row.ResponseTimeMS.Int64,
			CreatedAt:      row.CreatedAt,
		})
	}
	return entries, nil
}

// ListErrors returns the most recent chat failures.
func (s *Store) ListErrors(ctx context.Context, limit int) ([]history.ErrorEntry, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []chatErrorRow
	err := s.db.SelectContext(ctx, &rows, `
                SELECT id, session_id, error_message, user_message, created_at
                FROM chat_errors
                ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list errors: %w", err)
	}
	entries := make([]history.ErrorEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, history.ErrorEntry{
			ID:           row.ID,
			SessionID:    row.SessionID,
			ErrorMessage: row.ErrorMessage,
			UserMessage:  row.UserMessage.String,
			CreatedAt:    row.CreatedAt,
		})
	}
	return entries, nil
}

// Clear drops all recorded exchanges and errors.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("clear history: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions`); err != nil {
		return fmt.Errorf("clear history: sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_errors`); err != nil {
		return fmt.Errorf("clear history: errors: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear history: commit: %w", err)
	}
	committed = true
	return nil
}
