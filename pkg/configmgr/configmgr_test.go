package configmgr_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcodd23/go-stmt-cache/pkg/configmgr"
	"github.com/marcodd23/go-stmt-cache/pkg/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Shared configuration content
var configContent = `
name: "TestApp"
environment: "development"
version: "latest"
logging:
  level: "debug"
server:
  port: "8080"
  concurrency: 10
  disableStartupMsg: false
database:
  host: localhost
  port: 5432
  name: main-db
  user: postgres
  password: password
  maxConn: 2
  preparedStatements: true
  statementLimit: 250
`

var configWithoutLimit = `
name: "TestApp"
environment: "prod"
database:
  host: localhost
  port: 5432
  name: main-db
  user: postgres
  password: password
`

type TestConfiguration struct {
	configmgr.BaseConfig `mapstructure:",squash"`
}

func createTestConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	configFilePath := createTestConfigFile(t, configContent)

	var cfg TestConfiguration
	err := configmgr.ReadConfiguration(configFilePath, &cfg)
	assert.NoError(t, err)
	assert.Equal(t, "TestApp", cfg.GetServiceName())
	assert.Equal(t, "development", cfg.GetEnvironment())
	assert.True(t, cfg.IsLocalEnvironment())
	assert.NotNil(t, cfg.Logging)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NotNil(t, cfg.Server)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.Concurrency)
	assert.Equal(t, false, cfg.Server.DisableStartupMessage)

	db := cfg.GetDatabaseConfig()
	require.NotNil(t, db)
	assert.Equal(t, "localhost", db.Host)
	assert.Equal(t, int32(5432), db.Port)
	assert.Equal(t, "main-db", db.Name)
	assert.Equal(t, int32(2), db.MaxConn)
	require.NotNil(t, db.PreparedStatements)
	assert.True(t, *db.PreparedStatements)
	require.NotNil(t, db.StatementLimit)
	assert.Equal(t, 250, *db.StatementLimit)
}

func TestEnvVariableOverridesConfig(t *testing.T) {
	configFilePath := createTestConfigFile(t, configContent)

	// Set environment variable to override server port and statement limit
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_STATEMENTLIMIT", "0")

	var cfg TestConfiguration
	err := configmgr.ReadConfiguration(configFilePath, &cfg)
	assert.NoError(t, err)
	assert.NotNil(t, cfg.Server)
	assert.Equal(t, "9090", cfg.Server.Port) // Expecting overridden value
	assert.Equal(t, 10, cfg.Server.Concurrency)

	require.NotNil(t, cfg.Database.StatementLimit)
	assert.Equal(t, 0, *cfg.Database.StatementLimit)

	capacity, err := cfg.Database.ToConnConfig(cfg.IsLocalEnvironment()).StatementCapacity()
	require.NoError(t, err)
	assert.Equal(t, 0, capacity)
}

func TestMissingStatementLimitUsesDefault(t *testing.T) {
	configFilePath := createTestConfigFile(t, configWithoutLimit)

	var cfg TestConfiguration
	require.NoError(t, configmgr.ReadConfiguration(configFilePath, &cfg))
	assert.False(t, cfg.IsLocalEnvironment())
	assert.Nil(t, cfg.Database.StatementLimit)
	assert.Nil(t, cfg.Database.PreparedStatements)

	connConfig := cfg.Database.ToConnConfig(cfg.IsLocalEnvironment())
	assert.False(t, connConfig.IsLocalEnv)
	assert.Equal(t, "main-db", connConfig.DBName)

	capacity, err := connConfig.StatementCapacity()
	require.NoError(t, err)
	assert.Equal(t, dbx.DefaultStatementLimit, capacity)
}

func TestLoadConfigFromPathForEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "property-stage.yaml"), []byte(configWithoutLimit), 0o600))
	t.Setenv("ENVIRONMENT", "STAGE")

	var cfg TestConfiguration
	require.NoError(t, configmgr.LoadConfigFromPathForEnv(dir+"/", &cfg))
	assert.Equal(t, "TestApp", cfg.GetServiceName())
}
