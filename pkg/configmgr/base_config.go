package configmgr

import (
	"github.com/marcodd23/go-stmt-cache/pkg/dbx"
)

// Config - config interface.
type Config interface {
	GetServiceName() string
	GetVersion() string
	GetEnvironment() string
	GetServerConfig() *ServerConfig
	GetLoggingConfig() *LoggingConfig
	GetLogLevel() string
	GetDatabaseConfig() *DatabaseConfig
	IsLocalEnvironment() bool
}

// BaseConfig - app config struct.
// This struct represents the base configuration for the application and is expected to be in the following YAML format:
/*
name: "TestApp"
environment: "development"
version: "1.0"
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
  maxConn: 1
  preparedStatements: true
  statementLimit: 500
*/
type BaseConfig struct {
	Name        string          `mapstructure:"name"`
	Environment string          `mapstructure:"environment"`
	Version     string          `mapstructure:"version"`
	Logging     *LoggingConfig  `mapstructure:"logging"`
	Server      *ServerConfig   `mapstructure:"server"`
	Database    *DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	Port                  string `mapstructure:"port"`
	Concurrency           int    `mapstructure:"concurrency"`
	DisableStartupMessage bool   `mapstructure:"disableStartupMsg"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig - connection and statement cache properties.
//
// PreparedStatements and StatementLimit are pointers so that an absent key can be told apart from an explicit
// false/0: an absent statementLimit falls back to dbx.DefaultStatementLimit.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int32  `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	MaxConn            int32  `mapstructure:"maxConn"`
	PreparedStatements *bool  `mapstructure:"preparedStatements"`
	StatementLimit     *int   `mapstructure:"statementLimit"`
}

// ToConnConfig maps the database section onto the connection configuration consumed by the dbx layers.
func (dc *DatabaseConfig) ToConnConfig(isLocalEnv bool) dbx.ConnConfig {
	if dc == nil {
		return dbx.ConnConfig{IsLocalEnv: isLocalEnv}
	}

	return dbx.ConnConfig{
		Host:               dc.Host,
		Port:               dc.Port,
		DBName:             dc.Name,
		User:               dc.User,
		Password:           dc.Password,
		MaxConn:            dc.MaxConn,
		IsLocalEnv:         isLocalEnv,
		PreparedStatements: dc.PreparedStatements,
		StatementLimit:     dc.StatementLimit,
	}
}

func (cfg BaseConfig) GetServiceName() string {
	return cfg.Name
}

func (cfg BaseConfig) GetVersion() string {
	return cfg.Version
}

func (cfg BaseConfig) GetEnvironment() string {
	return cfg.Environment
}

func (cfg BaseConfig) IsLocalEnvironment() bool {
	return checkIfLocalEnv(cfg.Environment)
}

func (cfg BaseConfig) GetServerConfig() *ServerConfig {
	return cfg.Server
}

func (cfg BaseConfig) GetLoggingConfig() *LoggingConfig {
	return cfg.Logging
}

func (cfg BaseConfig) GetDatabaseConfig() *DatabaseConfig {
	return cfg.Database
}

// GetLogLevel returns the configured log level, empty when the logging section is missing.
func (cfg BaseConfig) GetLogLevel() string {
	if cfg.Logging == nil {
		return ""
	}

	return cfg.Logging.Level
}
