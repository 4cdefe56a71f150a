// File path: internal/sqlite/store.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store wraps a pooled sqlx.DB connection to the SQLite catalog cache.
type Store struct {
	db     *sqlx.DB
	window time.Duration
	now    func() time.Time
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The schema is migrated on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	window := cfg.RefreshWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	store := &Store{db: db, window: window, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RefreshWindow reports the configured freshness window.
func (s *Store) RefreshWindow() time.Duration {
	if s == nil {
		return 0
	}
	return s.window
}

func (s *Store) ensureReady() error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`PRAGMA journal_mode = WAL;`,
	`PRAGMA foreign_keys = ON;`,
	`CREATE TABLE IF NOT EXISTS models (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                instance_id TEXT NOT NULL,
                name TEXT NOT NULL,
                project_name TEXT,
                label TEXT,
                description TEXT,
                metadata TEXT,
                last_refreshed_at DATETIME NOT NULL,
                UNIQUE(instance_id, name)
        );`,
	`CREATE TABLE IF NOT EXISTS explores (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                instance_id TEXT NOT NULL,
                model_name TEXT NOT NULL,
                explore_name TEXT NOT NULL,
                label TEXT,
                description TEXT,
                dimensions TEXT,
                measures TEXT,
                keywords TEXT,
                metadata TEXT,
                last_refreshed_at DATETIME NOT NULL,
                UNIQUE(instance_id, model_name, explore_name)
        );`,
	`CREATE TABLE IF NOT EXISTS dashboards (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                instance_id TEXT NOT NULL,
                dashboard_id TEXT NOT NULL,
                title TEXT NOT NULL,
                description TEXT,
                folder_name TEXT,
                tags TEXT,
                elements TEXT,
                explore_references TEXT,
                view_count INTEGER NOT NULL DEFAULT 0,
                last_refreshed_at DATETIME NOT NULL,
                UNIQUE(instance_id, dashboard_id)
        );`,
	`CREATE TABLE IF NOT EXISTS dashboard_explores (
                instance_id TEXT NOT NULL,
                dashboard_id TEXT NOT NULL,
                model_name TEXT NOT NULL,
                explore_name TEXT NOT NULL,
                usage_count INTEGER NOT NULL DEFAULT 1,
                business_context_score REAL NOT NULL DEFAULT 0,
                PRIMARY KEY (instance_id, dashboard_id, model_name, explore_name)
        );`,
	`CREATE TABLE IF NOT EXISTS chat_sessions (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                session_id TEXT NOT NULL,
                user_message TEXT NOT NULL,
                assistant_response TEXT NOT NULL,
                strategy TEXT,
                response_time_ms INTEGER,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS chat_errors (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                session_id TEXT NOT NULL,
                error_message TEXT NOT NULL,
                user_message TEXT,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_models_instance_refreshed ON models(instance_id, last_refreshed_at);`,
	`CREATE INDEX IF NOT EXISTS idx_explores_instance_model ON explores(instance_id, model_name);`,
	`CREATE INDEX IF NOT EXISTS idx_explores_instance_refreshed ON explores(instance_id, last_refreshed_at);`,
	`CREATE INDEX IF NOT EXISTS idx_dashboards_instance_refreshed ON dashboards(instance_id, last_refreshed_at);`,
	`CREATE INDEX IF NOT EXISTS idx_dashboard_explores_ref ON dashboard_explores(instance_id, model_name, explore_name);`,
	`CREATE INDEX IF NOT EXISTS idx_chat_sessions_session ON chat_sessions(session_id, created_at);`,
}
