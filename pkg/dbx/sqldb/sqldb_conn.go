package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/marcodd23/go-stmt-cache/pkg/dbx"
	"github.com/marcodd23/go-stmt-cache/pkg/dbx/pgxdb"
	"github.com/marcodd23/go-stmt-cache/pkg/errorx"
	"github.com/marcodd23/go-stmt-cache/pkg/logx"
	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
	"github.com/marcodd23/go-stmt-cache/pkg/validator"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrConnClosed is returned by operations on a closed SQLConn.
var ErrConnClosed = errorx.NewDatabaseError("connection is closed")

// SQLConn - database/sql connection with a bounded cache of prepared *sql.Stmt.
// It Implements dbx.Conn.
//
// The statements are prepared on one pinned *sql.Conn, so they are bound to a single driver session
// and never re-prepared behind the cache's back by the database/sql pool.
type SQLConn struct {
	mu         sync.Mutex
	id         string
	db         *sql.DB
	ownsDB     bool
	conn       *sql.Conn
	statements *dbx.StatementManager[*sql.Stmt]
	logger     logx.Logger
	closed     bool
}

var _ dbx.Conn = (*SQLConn)(nil)

// New pins one connection of db and caches its prepared statements.
//
// The capacity of the cache is resolved with dbx.ConnConfig.StatementCapacity. db stays owned by the
// caller: Close returns the pinned connection to db but does not close db.
func New(ctx context.Context, db *sql.DB, dbConf dbx.ConnConfig, opts ...dbx.ManagerOption) (*SQLConn, error) {
	capacity, err := dbConf.StatementCapacity()
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "error acquiring connection to DB %s", dbConf.DBName)
	}

	sc := &SQLConn{
		id:   uuid.NewString(),
		db:   db,
		conn: conn,
	}
	sc.logger = logx.GetLogger().With("conn", sc.id)

	managerOpts := append([]dbx.ManagerOption{dbx.WithConnID(sc.id)}, opts...)

	sc.statements, err = dbx.NewStatementManager[*sql.Stmt](capacity, &sqlPreparer{conn: conn}, managerOpts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	sc.logger.LogInfo(ctx, fmt.Sprintf("Created new SQLConn: DB=%s, STATEMENT_LIMIT=%d", dbConf.DBName, capacity))

	return sc, nil
}

// OpenPostgres opens a database/sql handle on the pgx stdlib driver and pins one connection of it.
// The returned SQLConn owns the handle and closes it on Close.
func OpenPostgres(ctx context.Context, dbConf dbx.ConnConfig, opts ...dbx.ManagerOption) (*SQLConn, error) {
	if err := validator.NewValidator().Validate(dbConf); err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "invalid connection configuration")
	}

	connConfig, err := pgxdb.NewConnConfig(dbConf)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*connConfig)

	sc, err := New(ctx, db, dbConf, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	sc.ownsDB = true

	return sc, nil
}

// ID - connection id.
func (sc *SQLConn) ID() string {
	return sc.id
}

// Exec executes SQL that returns no rows through a cached prepared statement and returns the rows affected.
func (sc *SQLConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkOpen(); err != nil {
		return 0, err
	}

	var affected int64
	err := sc.statements.WithStatement(ctx, query, func(stmt *sql.Stmt) error {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		sc.logger.LogError(ctx, fmt.Sprintf("Error executing query '%s'", query), err)
		return 0, err
	}

	return affected, nil
}

// Query runs query through a cached prepared statement and hands the rows to process.
// The rows are closed once process returns and must not be retained.
//
// Example Usage:
//
//	var names []string
//	err := conn.Query(ctx, "SELECT name FROM users WHERE active = $1", func(rows *sql.Rows) error {
//	    for rows.Next() {
//	        var name string
//	        if err := rows.Scan(&name); err != nil {
//	            return err
//	        }
//	        names = append(names, name)
//	    }
//	    return nil
//	}, true)
func (sc *SQLConn) Query(ctx context.Context, query string, process func(rows *sql.Rows) error, args ...any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkOpen(); err != nil {
		return err
	}

	return sc.statements.WithStatement(ctx, query, func(stmt *sql.Stmt) error {
		rows, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		if err := process(rows); err != nil {
			return err
		}

		return multierr.Append(rows.Err(), rows.Close())
	})
}

// ClearStatementCache closes every cached statement of the connection.
func (sc *SQLConn) ClearStatementCache(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.closed {
		return nil
	}

	return sc.statements.Clear(ctx)
}

// StatementCacheSize - number of cached statements.
func (sc *SQLConn) StatementCacheSize() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.statements.Size()
}

// StatementCacheStats - statement cache counters.
func (sc *SQLConn) StatementCacheStats() stmtcache.Stats {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.statements.Stats()
}

// Close closes every cached statement, returns the pinned connection to its pool and, for connections
// created with OpenPostgres, closes the pool.
func (sc *SQLConn) Close(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.closed {
		return nil
	}
	sc.closed = true

	err := sc.statements.Clear(ctx)
	if closeErr := sc.conn.Close(); closeErr != nil {
		err = multierr.Append(err, errorx.NewDatabaseErrorWrapper(closeErr, "error closing connection"))
	}
	if sc.ownsDB {
		if closeErr := sc.db.Close(); closeErr != nil {
			err = multierr.Append(err, errorx.NewDatabaseErrorWrapper(closeErr, "error closing DB"))
		}
	}

	if err != nil {
		sc.logger.LogWarning(ctx, "DB Connection closed with errors", err)
		return err
	}

	sc.logger.LogInfo(ctx, "DB Connection Successfully Closed!")
	return nil
}

func (sc *SQLConn) checkOpen() error {
	if sc.closed {
		return errors.WithStack(ErrConnClosed)
	}

	return nil
}

// sqlPreparer prepares statements on the pinned connection; release closes the statement.
type sqlPreparer struct {
	conn *sql.Conn
}

func (p *sqlPreparer) Prepare(ctx context.Context, key stmtcache.Key) (*sql.Stmt, error) {
	return p.conn.PrepareContext(ctx, key.SQL)
}

func (p *sqlPreparer) Release(_ context.Context, stmt *sql.Stmt) error {
	return stmt.Close()
}
