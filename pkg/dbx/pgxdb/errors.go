package pgxdb

import "github.com/marcodd23/go-stmt-cache/pkg/errorx"

// ErrConnClosed is returned by operations on a closed PostgresConn.
var ErrConnClosed = errorx.NewDatabaseError("connection is closed")
