package dbx

import (
	"context"

	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
)

// StatementPreparer is the execution layer contract a connection hands to its StatementManager.
//
// Prepare turns the SQL of key into a server or engine side prepared statement and returns its handle, or
// fails with a preparation error. Key is passed whole so that drivers naming their statements can derive
// distinct names for textually identical SQL with different discriminators.
//
// Release frees the resources behind a handle. It is invoked by the cache on eviction and clear, and by the
// manager for handles the cache declined to hold.
type StatementPreparer[H any] interface {
	Prepare(ctx context.Context, key stmtcache.Key) (H, error)
	stmtcache.Releaser[H]
}

// ReleaseErrorHandler receives release failures that happen in the middle of an SQL operation,
// which are reported without failing that operation.
type ReleaseErrorHandler func(ctx context.Context, err error)
