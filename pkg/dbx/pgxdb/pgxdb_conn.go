package pgxdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcodd23/go-stmt-cache/pkg/dbx"
	"github.com/marcodd23/go-stmt-cache/pkg/errorx"
	"github.com/marcodd23/go-stmt-cache/pkg/logx"
	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
	"github.com/marcodd23/go-stmt-cache/pkg/validator"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

//###################################
//#    PostgresConn - single conn.   #
//###################################

// PostgresConn - single PostgreSQL connection with a bounded cache of server side prepared statements.
// It Implements dbx.Conn.
//
// Every method holds the connection lock for its whole duration, preparation and execution included,
// so the statement cache only ever sees one operation at a time.
type PostgresConn struct {
	mu         sync.Mutex
	id         string
	conn       *pgx.Conn
	dbConf     dbx.ConnConfig
	searchPath string
	statements *dbx.StatementManager[*pgconn.StatementDescription]
	logger     logx.Logger
	closed     bool
}

var _ dbx.Conn = (*PostgresConn)(nil)

// Connect opens a PostgreSQL connection whose prepared statements are cached by key (SQL, search_path).
//
// The capacity of the cache is resolved from dbConf with dbx.ConnConfig.StatementCapacity. pgx's own
// statement and description caches are turned off, so every named prepared statement on the session is
// owned by this connection's cache.
//
// Arguments:
//   - ctx: The context for connection establishment.
//   - dbConf: The connection configuration, validated before use.
//   - opts: Options forwarded to the dbx.StatementManager (recorder, logger, release error handler).
//
// Returns:
//   - *PostgresConn: the open connection.
//   - error: a validation error, a *errorx.DatabaseError on connection failure.
func Connect(ctx context.Context, dbConf dbx.ConnConfig, opts ...dbx.ManagerOption) (*PostgresConn, error) {
	if err := validator.NewValidator().Validate(dbConf); err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "invalid connection configuration")
	}

	capacity, err := dbConf.StatementCapacity()
	if err != nil {
		return nil, err
	}

	connConfig, err := NewConnConfig(dbConf)
	if err != nil {
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "error connecting to DB %s", dbConf.DBName)
	}

	pc := &PostgresConn{
		id:     uuid.NewString(),
		conn:   conn,
		dbConf: dbConf,
	}
	pc.logger = logx.GetLogger().With("conn", pc.id)

	if err := conn.QueryRow(ctx, "SHOW search_path").Scan(&pc.searchPath); err != nil {
		_ = conn.Close(ctx)
		return nil, errorx.NewDatabaseErrorWrapper(err, "error reading search_path")
	}

	managerOpts := append([]dbx.ManagerOption{
		dbx.WithConnID(pc.id),
		dbx.WithKeyFunc(stmtcache.DiscriminatedKey(pc.currentSearchPath)),
	}, opts...)

	pc.statements, err = dbx.NewStatementManager[*pgconn.StatementDescription](capacity, &pgxPreparer{conn: conn}, managerOpts...)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	pc.logger.LogInfo(ctx, fmt.Sprintf("Created new PostgresConn: DB=%s, HOST=%s, PORT=%d, STATEMENT_LIMIT=%d",
		connConfig.Database, connConfig.Host, connConfig.Port, capacity))

	return pc, nil
}

// NewConnConfig builds the pgx connection configuration of dbConf.
func NewConnConfig(dbConf dbx.ConnConfig) (*pgx.ConnConfig, error) {
	connConfig, err := pgx.ParseConfig("")
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error creating ConnConfig")
	}

	if dbConf.DBName == "" {
		return nil, errorx.NewDatabaseError("Error creating ConnConfig: DB_Name is EMPTY")
	}

	if dbConf.User == "" {
		return nil, errorx.NewDatabaseError("Error creating ConnConfig: DB_User is EMPTY")
	}

	if dbConf.Password == "" {
		return nil, errorx.NewDatabaseError("Error creating ConnConfig: DB_Password is EMPTY")
	}

	connConfig.Database = dbConf.DBName
	connConfig.User = dbConf.User
	connConfig.Password = dbConf.Password

	// Statements are cached by the statement cache of the connection, not by pgx.
	connConfig.StatementCacheCapacity = 0
	connConfig.DescriptionCacheCapacity = 0
	connConfig.DefaultQueryExecMode = pgx.QueryExecModeDescribeExec

	if dbConf.IsLocalEnv || dbConf.VpcDirectConnection {
		// If local we need to specify the port, if not local
		// the port is defined in the Unix Socket configuration
		// mounted in the container at runtime (5432)
		logx.
			GetLogger().
			LogInfo(context.TODO(), fmt.Sprintf("Connecting to DB on HOST:%s and PORT:%d",
				dbConf.Host,
				uint16(dbConf.Port)))
		connConfig.Port = uint16(dbConf.Port)
		connConfig.Host = dbConf.Host
	} else {
		logx.GetLogger().LogInfo(context.TODO(), "Connecting to DB trough CLOUD SQL PROXY")
		connConfig.Host = fmt.Sprintf("/cloudsql/%s", dbConf.Host)
	}

	return connConfig, nil
}

// ID - connection id.
func (pc *PostgresConn) ID() string {
	return pc.id
}

// GetConnectionConfig - get Db Connection config.
func (pc *PostgresConn) GetConnectionConfig() dbx.ConnConfig {
	return pc.dbConf
}

// currentSearchPath is the key discriminator; it is only read while pc.mu is held.
func (pc *PostgresConn) currentSearchPath() string {
	return pc.searchPath
}

// SearchPath returns the search_path the connection currently prepares statements under.
func (pc *PostgresConn) SearchPath() string {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.searchPath
}

// SetSearchPath changes the session search_path.
//
// Cached statements stay valid, since PostgreSQL resolves names at prepare time, but SQL executed afterwards
// is keyed under the new search_path and prepared again against it.
func (pc *PostgresConn) SetSearchPath(ctx context.Context, searchPath string) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if err := pc.checkOpen(); err != nil {
		return err
	}

	if _, err := pc.conn.Exec(ctx, "SELECT set_config('search_path', $1, false)", searchPath); err != nil {
		return errorx.NewDatabaseErrorWrapper(err, "error setting search_path to '%s'", searchPath)
	}

	if err := pc.conn.QueryRow(ctx, "SHOW search_path").Scan(&pc.searchPath); err != nil {
		return errorx.NewDatabaseErrorWrapper(err, "error reading search_path")
	}

	return nil
}

// Exec executes a SQL command that does not return rows, such as INSERT, UPDATE, or DELETE, through a cached
// prepared statement, and returns the number of rows affected.
//
// Arguments:
//   - ctx: The context for managing the execution, which allows for cancellation and timeouts.
//   - execQuery: The SQL command. Textually identical commands share one prepared statement.
//   - args: The arguments bound to the command placeholders.
//
// Returns:
//   - int64: The number of rows affected by the command.
//   - error: Any error encountered during preparation or execution.
//
// Example Usage:
//
//	rowsAffected, err := conn.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
//	if err != nil {
//	    log.Fatal("Failed to update last login time:", err)
//	}
func (pc *PostgresConn) Exec(ctx context.Context, execQuery string, args ...any) (int64, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if err := pc.checkOpen(); err != nil {
		return 0, err
	}

	var tag pgconn.CommandTag
	err := pc.withStatement(ctx, execQuery, func(sd *pgconn.StatementDescription) error {
		var err error
		tag, err = pc.conn.Exec(ctx, sd.Name, args...)
		return err
	})
	if err != nil {
		pc.logger.LogError(ctx, fmt.Sprintf("Error executing query '%s'", execQuery), err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// query runs query through a cached prepared statement and hands the rows to process.
// Rows are closed before the connection lock is released.
func (pc *PostgresConn) query(ctx context.Context, query string, args []any, process func(rows pgx.Rows) error) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if err := pc.checkOpen(); err != nil {
		return err
	}

	return pc.withStatement(ctx, query, func(sd *pgconn.StatementDescription) error {
		rows, err := pc.conn.Query(ctx, sd.Name, args...)
		if err != nil {
			return err
		}
		return processRows(rows, process)
	})
}

// processRows hands rows to process and closes them before returning the first error.
func processRows(rows pgx.Rows, process func(rows pgx.Rows) error) error {
	defer rows.Close()

	if err := process(rows); err != nil {
		return err
	}

	rows.Close()
	return rows.Err()
}

// withStatement must be called with pc.mu held.
func (pc *PostgresConn) withStatement(ctx context.Context, sql string, fn func(sd *pgconn.StatementDescription) error) error {
	err := pc.statements.WithStatement(ctx, sql, fn)
	if err != nil && isStatementInvalid(err) {
		pc.logger.LogWarning(ctx, fmt.Sprintf("dropping invalidated prepared statement for '%s'", sql), err)
		if rerr := pc.statements.Invalidate(ctx, sql); rerr != nil {
			pc.logger.LogWarning(ctx, "release of invalidated prepared statement failed", rerr)
		}
	}

	return err
}

// ClearStatementCache releases every cached prepared statement of the connection.
// Use it after schema changes or whenever the session's statement namespace may be stale.
func (pc *PostgresConn) ClearStatementCache(ctx context.Context) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.closed {
		return nil
	}

	return pc.statements.Clear(ctx)
}

// StatementCacheSize - number of cached prepared statements.
func (pc *PostgresConn) StatementCacheSize() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.statements.Size()
}

// StatementCacheStats - statement cache counters.
func (pc *PostgresConn) StatementCacheStats() stmtcache.Stats {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.statements.Stats()
}

// Close releases every cached prepared statement, then closes the connection.
// Release failures do not prevent the close; they are returned together with any close error.
func (pc *PostgresConn) Close(ctx context.Context) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.closed {
		return nil
	}
	pc.closed = true

	err := pc.statements.Clear(ctx)
	if closeErr := pc.conn.Close(ctx); closeErr != nil {
		err = multierr.Append(err, errorx.NewDatabaseErrorWrapper(closeErr, "error closing connection"))
	}

	if err != nil {
		pc.logger.LogWarning(ctx, "DB Connection closed with errors", err)
		return err
	}

	pc.logger.LogInfo(ctx, "DB Connection Successfully Closed!")
	return nil
}

func (pc *PostgresConn) checkOpen() error {
	if pc.closed {
		return errors.WithStack(ErrConnClosed)
	}

	return nil
}
