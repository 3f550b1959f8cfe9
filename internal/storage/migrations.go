package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS messages (
					id TEXT PRIMARY KEY,
					account_id TEXT NOT NULL,
					from_address TEXT NOT NULL DEFAULT '',
					from_name TEXT NOT NULL DEFAULT '',
					to_addresses TEXT NOT NULL DEFAULT '[]',
					cc_addresses TEXT NOT NULL DEFAULT '[]',
					subject TEXT NOT NULL DEFAULT '',
					snippet TEXT NOT NULL DEFAULT '',
					body TEXT NOT NULL DEFAULT '',
					date DATETIME NOT NULL,
					category TEXT NOT NULL DEFAULT 'uncategorized',
					importance REAL NOT NULL DEFAULT 0.5,
					labels TEXT NOT NULL DEFAULT '[]',
					attachments TEXT NOT NULL DEFAULT '[]',
					unsubscribe_url TEXT NOT NULL DEFAULT '',
					size INTEGER NOT NULL DEFAULT 0,
					is_read INTEGER NOT NULL DEFAULT 0,
					is_starred INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_messages_date ON messages(date DESC)`,
				`CREATE INDEX idx_messages_category ON messages(category)`,
				`CREATE INDEX idx_messages_account ON messages(account_id)`,

				`CREATE TABLE IF NOT EXISTS rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					conditions TEXT NOT NULL DEFAULT '[]',
					actions TEXT NOT NULL DEFAULT '[]',
					priority INTEGER NOT NULL DEFAULT 0,
					hit_count INTEGER NOT NULL DEFAULT 0,
					last_hit DATETIME,
					enabled INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_rules_enabled ON rules(enabled, priority DESC)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute %q: %w", query[:40], err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Track sender domain for grouped scans",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE messages ADD COLUMN sender_domain TEXT NOT NULL DEFAULT ''`,
				`CREATE INDEX idx_messages_sender_domain ON messages(sender_domain)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute %q: %w", query[:40], err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *Store) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version) VALUES (?)`, migration.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
