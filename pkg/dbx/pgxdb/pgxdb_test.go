package pgxdb_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcodd23/go-stmt-cache/pkg/dbx"
	"github.com/marcodd23/go-stmt-cache/pkg/dbx/pgxdb"
	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
	"github.com/stretchr/testify/require"
)

func TestStatementName(t *testing.T) {
	key := stmtcache.Key{SQL: "SELECT * FROM EVENT_LOG WHERE entity_name = $1"}

	name := pgxdb.StatementName(key)
	require.True(t, strings.HasPrefix(name, "stmtcache_"))
	require.Len(t, name, len("stmtcache_")+48)
	require.Equal(t, name, pgxdb.StatementName(key), "names must be stable")

	withSchema := pgxdb.StatementName(stmtcache.Key{SQL: key.SQL, Discriminator: "tenant_a"})
	require.NotEqual(t, name, withSchema)

	// the separator keeps (sql, discriminator) pairs from colliding by concatenation
	require.NotEqual(t,
		pgxdb.StatementName(stmtcache.Key{SQL: "ab", Discriminator: "c"}),
		pgxdb.StatementName(stmtcache.Key{SQL: "a", Discriminator: "bc"}))
}

func TestNewConnConfig_DisablesPgxCaches(t *testing.T) {
	cfg, err := pgxdb.NewConnConfig(dbx.ConnConfig{
		IsLocalEnv: true,
		Host:       "localhost",
		Port:       5433,
		DBName:     "main-db",
		User:       "postgres",
		Password:   "password",
	})
	require.NoError(t, err)

	require.Equal(t, "main-db", cfg.Database)
	require.Equal(t, "localhost", cfg.Host)
	require.Equal(t, uint16(5433), cfg.Port)
	require.Equal(t, 0, cfg.StatementCacheCapacity)
	require.Equal(t, 0, cfg.DescriptionCacheCapacity)
	require.Equal(t, pgx.QueryExecModeDescribeExec, cfg.DefaultQueryExecMode)
}

func TestNewConnConfig_CloudSQLSocket(t *testing.T) {
	cfg, err := pgxdb.NewConnConfig(dbx.ConnConfig{
		Host:     "project:region:instance",
		DBName:   "main-db",
		User:     "postgres",
		Password: "password",
	})
	require.NoError(t, err)
	require.Equal(t, "/cloudsql/project:region:instance", cfg.Host)
}

func TestNewConnConfig_MissingFields(t *testing.T) {
	tests := []struct {
		conf    dbx.ConnConfig
		message string
	}{
		{dbx.ConnConfig{User: "u", Password: "p"}, "DB_Name is EMPTY"},
		{dbx.ConnConfig{DBName: "d", Password: "p"}, "DB_User is EMPTY"},
		{dbx.ConnConfig{DBName: "d", User: "u"}, "DB_Password is EMPTY"},
	}

	for _, tt := range tests {
		_, err := pgxdb.NewConnConfig(tt.conf)
		require.Error(t, err)
		require.Contains(t, err.Error(), tt.message)
	}
}

func TestIsStatementInvalid(t *testing.T) {
	invalidPlan := &pgconn.PgError{Code: "0A000", Message: "cached plan must not change result type"}

	require.True(t, pgxdb.IsStatementInvalid(invalidPlan))
	require.True(t, pgxdb.IsStatementInvalid(fmt.Errorf("exec: %w", invalidPlan)))
	require.False(t, pgxdb.IsStatementInvalid(&pgconn.PgError{Code: "23505"}))
	require.False(t, pgxdb.IsStatementInvalid(errors.New("plain")))
}
