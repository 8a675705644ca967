package pgxdb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
)

const statementNamePrefix = "stmtcache_"

// StatementName returns the server side name of the prepared statement for key.
// It is stable across connections and program executions, and differs for keys that only differ in their
// discriminator.
func StatementName(key stmtcache.Key) string {
	h := sha256.New()
	h.Write([]byte(key.SQL))
	h.Write([]byte{0})
	h.Write([]byte(key.Discriminator))
	digest := h.Sum(nil)
	return statementNamePrefix + hex.EncodeToString(digest[0:24])
}

// pgxPreparer prepares named statements on a single pgx connection and deallocates them on release.
type pgxPreparer struct {
	conn *pgx.Conn
}

func (p *pgxPreparer) Prepare(ctx context.Context, key stmtcache.Key) (*pgconn.StatementDescription, error) {
	return p.conn.Prepare(ctx, StatementName(key), key.SQL)
}

func (p *pgxPreparer) Release(ctx context.Context, sd *pgconn.StatementDescription) error {
	return p.conn.Deallocate(ctx, sd.Name)
}

// isStatementInvalid reports whether err means the server discarded the plan of a cached statement,
// e.g. "cached plan must not change result type" after a schema change.
//
// Error code "0A000" (feature not supported) is shared with other errors; dropping a statement
// unnecessarily only costs one extra prepare.
func isStatementInvalid(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == "0A000"
}
