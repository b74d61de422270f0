package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all database migrations for a dialect
func GetMigrations(dialect string) []Migration {
	if dialect == DialectPostgres {
		return postgresMigrations
	}
	return sqliteMigrations
}

var postgresMigrations = []Migration{
	{
		Version:     1,
		Description: "Create users table",
		SQL: `CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Version:     2,
		Description: "Create sessions table",
		SQL: `CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			token_digest VARCHAR(64) NOT NULL UNIQUE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Version:     3,
		Description: "Create transactions table",
		SQL: `CREATE TABLE IF NOT EXISTS transactions (
			seq BIGSERIAL PRIMARY KEY,
			id VARCHAR(36) NOT NULL UNIQUE,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount NUMERIC NOT NULL,
			description TEXT NOT NULL,
			day VARCHAR(10) NOT NULL,
			is_deposit BOOLEAN NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Version:     4,
		Description: "Create indexes",
		SQL: `CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
			CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id, seq);`,
	},
}

var sqliteMigrations = []Migration{
	{
		Version:     1,
		Description: "Create users table",
		SQL: `CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		Version:     2,
		Description: "Create sessions table",
		SQL: `CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			token_digest TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		Version:     3,
		Description: "Create transactions table",
		// amount stays TEXT so decimals round-trip exactly
		SQL: `CREATE TABLE IF NOT EXISTS transactions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount TEXT NOT NULL,
			description TEXT NOT NULL,
			day TEXT NOT NULL,
			is_deposit BOOLEAN NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		Version:     4,
		Description: "Create indexes",
		SQL: `CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
			CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id, seq);`,
	},
}

// createMigrationsTable creates the migrations tracking table
func createMigrationsTable(ctx context.Context, db *sqlx.DB, dialect string) error {
	query := `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if dialect == DialectPostgres {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`
	}

	_, err := db.ExecContext(ctx, query)
	return err
}

// getAppliedMigrations returns the set of applied migration versions
func getAppliedMigrations(ctx context.Context, db *sqlx.DB) (map[int]bool, error) {
	var versions []int
	if err := db.SelectContext(ctx, &versions, "SELECT version FROM schema_migrations"); err != nil {
		return nil, err
	}

	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// RunMigrations runs all pending migrations for the dialect
func RunMigrations(ctx context.Context, db *sqlx.DB, dialect string, log logrus.FieldLogger) error {
	return applyMigrations(ctx, db, dialect, GetMigrations(dialect), log)
}

func applyMigrations(ctx context.Context, db *sqlx.DB, dialect string, migrations []Migration, log logrus.FieldLogger) error {
	if err := createMigrationsTable(ctx, db, dialect); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := getAppliedMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}

		entry := log.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		})
		entry.Info("applying migration")

		// Split SQL by semicolon and execute each statement
		for _, stmt := range strings.Split(migration.SQL, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
			}
		}

		if _, err := db.ExecContext(ctx, db.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version, or 0 on a
// fresh database.
func SchemaVersion(ctx context.Context, db *sqlx.DB) (int, error) {
	var version sql.NullInt64
	if err := db.GetContext(ctx, &version, "SELECT MAX(version) FROM schema_migrations"); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}
