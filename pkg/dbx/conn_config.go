package dbx

import (
	"github.com/marcodd23/go-stmt-cache/pkg/errorx"
	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
)

// DefaultStatementLimit is the statement cache capacity used when statement_limit is not configured.
const DefaultStatementLimit = 1000

// ConnConfig represents the configuration required for database connection.
//
// PreparedStatements defaults to true when nil. StatementLimit defaults to DefaultStatementLimit when nil.
type ConnConfig struct {
	VpcDirectConnection bool
	Host                string `validate:"required_if=IsLocalEnv true"`
	Port                int32  `validate:"gte=0,lte=65535"`
	DBName              string `validate:"required"`
	User                string `validate:"required"`
	Password            string `validate:"required"`
	MaxConn             int32  `validate:"gte=0"`
	IsLocalEnv          bool
	PreparedStatements  *bool
	StatementLimit      *int `validate:"omitempty,gte=0"`
}

// StatementCapacity resolves the statement cache capacity of a connection.
//
// Disabled prepared statements and an explicit limit of 0 both give 0, which turns the cache off.
// A negative limit is rejected.
func (c ConnConfig) StatementCapacity() (int, error) {
	if c.PreparedStatements != nil && !*c.PreparedStatements {
		return 0, nil
	}

	if c.StatementLimit == nil {
		return DefaultStatementLimit, nil
	}

	if *c.StatementLimit < 0 {
		return 0, errorx.NewDatabaseErrorWrapper(stmtcache.ErrNegativeCapacity, "invalid statement limit %d", *c.StatementLimit)
	}

	return *c.StatementLimit, nil
}
