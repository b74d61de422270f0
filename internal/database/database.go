package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/mywallet-io/mywallet/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Open connects to the configured database, retrying the initial ping, and
// applies pending migrations. The returned handle is ready for use.
func Open(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Type {
	case DialectPostgres:
		db, err = openPostgres(cfg)
	case DialectSQLite, "":
		db, err = openSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := ping(ctx, db, cfg, log); err != nil {
		db.Close()
		return nil, err
	}

	dialect := cfg.Type
	if dialect == "" {
		dialect = DialectSQLite
	}
	if err := RunMigrations(ctx, db, dialect, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.WithField("dialect", dialect).Info("database ready")
	return db, nil
}

func openPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

func openSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	if !isMemory(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite only supports one writer, and an in-memory database lives as
	// long as its single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func ping(ctx context.Context, db *sqlx.DB, cfg config.DatabaseConfig, log logrus.FieldLogger) error {
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		lastErr = db.PingContext(ctx)
		if lastErr == nil {
			return nil
		}

		log.WithError(lastErr).WithFields(logrus.Fields{
			"attempt": i,
			"of":      attempts,
		}).Warn("database ping failed")

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	return fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, lastErr)
}
