package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version string
	sql     string
}

// migrations are applied in order and recorded in schema_migrations.
var migrations = []migration{
	{
		version: "0001_ledger_state",
		sql: `CREATE TABLE IF NOT EXISTS ledger_state (
			id         SMALLINT PRIMARY KEY CHECK (id = 1),
			owner      TEXT NOT NULL,
			balance    NUMERIC(78, 18) NOT NULL CHECK (balance >= 0),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
	},
	{
		version: "0002_ledger_allowances",
		sql: `CREATE TABLE IF NOT EXISTS ledger_allowances (
			identity   TEXT PRIMARY KEY,
			amount     NUMERIC(78, 18) NOT NULL CHECK (amount >= 0),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
	},
	{
		version: "0003_ledger_entries",
		sql: `CREATE TABLE IF NOT EXISTS ledger_entries (
			seq           BIGSERIAL UNIQUE,
			id            UUID PRIMARY KEY,
			kind          TEXT NOT NULL,
			caller        TEXT NOT NULL,
			counterparty  TEXT NOT NULL,
			amount        NUMERIC(78, 18) NOT NULL CHECK (amount >= 0),
			balance_after NUMERIC(78, 18) NOT NULL CHECK (balance_after >= 0),
			created_at    TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
	},
}

// Migrate creates the ledger tables. Already applied versions are skipped.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRowContext(ctx, "SELECT 1 FROM schema_migrations WHERE version = $1", m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("failed to check migration %s: %w", m.version, err)
		}

		if err := apply(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute migration %s: %w", m.version, err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.version, err)
	}
	return nil
}
