package dbx

import (
	"context"

	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
)

// Transaction defines the operations available inside a transaction opened on a Conn.
//
// Statements executed through a Transaction share the prepared statement cache of the owning connection:
// prepared statements are session scoped, so a statement prepared inside a transaction stays cached after
// commit or rollback.
//
// A Transaction is only valid inside the callback that received it.
type Transaction interface {
	// Exec executes SQL that returns no rows through a cached prepared statement and returns the rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	// StatementCacheStats returns the counters of the owning connection's statement cache.
	StatementCacheStats() stmtcache.Stats
}
