package pgxdb

import "github.com/jackc/pgx/v5"

// RawConn exposes the underlying session so tests can inspect pg_prepared_statements.
func (pc *PostgresConn) RawConn() *pgx.Conn {
	return pc.conn
}

var IsStatementInvalid = isStatementInvalid
