package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mywallet-io/mywallet/internal/config"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// DatabaseTestSuite runs against a fresh in-memory SQLite database per test
type DatabaseTestSuite struct {
	suite.Suite
	db *sqlx.DB
}

func (s *DatabaseTestSuite) SetupTest() {
	logger, _ := test.NewNullLogger()
	db, err := Open(context.Background(), config.DatabaseConfig{
		Type:       DialectSQLite,
		Path:       ":memory:",
		MaxRetries: 1,
	}, logger)
	require.NoError(s.T(), err, "Database initialization should succeed")
	s.db = db
}

func (s *DatabaseTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}

func (s *DatabaseTestSuite) TestTablesCreated() {
	for _, table := range []string{"users", "sessions", "transactions", "schema_migrations"} {
		var name string
		err := s.db.Get(&name, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		assert.NoError(s.T(), err, "table %s should exist", table)
		assert.Equal(s.T(), table, name)
	}
}

func (s *DatabaseTestSuite) TestMigrationsRecorded() {
	var versions []int
	require.NoError(s.T(), s.db.Select(&versions, "SELECT version FROM schema_migrations ORDER BY version"))
	assert.Equal(s.T(), []int{1, 2, 3, 4}, versions)

	version, err := SchemaVersion(context.Background(), s.db)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 4, version)
}

func (s *DatabaseTestSuite) TestMigrationsIdempotent() {
	logger, _ := test.NewNullLogger()
	require.NoError(s.T(), RunMigrations(context.Background(), s.db, DialectSQLite, logger))

	var count int
	require.NoError(s.T(), s.db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(s.T(), len(GetMigrations(DialectSQLite)), count)
}

func (s *DatabaseTestSuite) TestSessionPerUserIsUnique() {
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, password_hash) VALUES ('u1', 'Ana', 'ana@x.com', 'h')`)
	require.NoError(s.T(), err)

	_, err = s.db.Exec(`INSERT INTO sessions (id, user_id, token_digest) VALUES ('s1', 'u1', 'd1')`)
	require.NoError(s.T(), err)

	_, err = s.db.Exec(`INSERT INTO sessions (id, user_id, token_digest) VALUES ('s2', 'u1', 'd2')`)
	assert.Error(s.T(), err)
}

func TestOpenFileDatabase(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "nested", "wallet.db")

	db, err := Open(context.Background(), config.DatabaseConfig{Type: DialectSQLite, Path: path}, logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)
}

func TestOpenUnsupportedType(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := Open(context.Background(), config.DatabaseConfig{Type: "mongo"}, logger)
	assert.Error(t, err)
}

func TestOpenPostgresUnreachable(t *testing.T) {
	logger, hook := test.NewNullLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Open(ctx, config.DatabaseConfig{
		Type:       DialectPostgres,
		URL:        "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	}, logger)
	assert.Error(t, err)
	assert.Len(t, hook.AllEntries(), 2, "each failed ping is logged")
}
