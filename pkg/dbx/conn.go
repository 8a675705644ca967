package dbx

import (
	"context"

	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
)

// Conn defines the contract of a single database connection that caches its prepared statements.
//
// Implementations serialize every method behind one lock scoped to the whole connection, so a Conn may be
// shared between goroutines even though the statement cache itself is single-owner.
//
// Implementations include:
//   - pgxdb.PostgresConn, on a native pgx connection.
//   - sqldb.SQLConn, on a database/sql connection.
type Conn interface {
	// ID returns a unique id of the connection, used as log field and metrics label.
	ID() string
	// Exec executes SQL that returns no rows through a cached prepared statement and returns the rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	// ClearStatementCache releases every cached statement. Release failures are aggregated in the error.
	ClearStatementCache(ctx context.Context) error
	// StatementCacheSize returns the number of cached statements.
	StatementCacheSize() int
	// StatementCacheStats returns the statement cache counters.
	StatementCacheStats() stmtcache.Stats
	// Close releases every cached statement and closes the connection.
	Close(ctx context.Context) error
}
