package pgxdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcodd23/go-stmt-cache/pkg/dbx"
	"github.com/marcodd23/go-stmt-cache/pkg/errorx"
	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
	"github.com/pkg/errors"
)

//###################################
//#       Postgres TX Manager       #
//###################################

// PostgresTx - transaction opened by PostgresConn.RunInTx.
// Implements dbx.Transaction; its statements go through the connection's statement cache.
type PostgresTx struct {
	pc *PostgresConn
	tx pgx.Tx
}

var _ dbx.Transaction = (*PostgresTx)(nil)

// RunInTx performs a task inside a transaction.
//
// The connection lock is held for the whole transaction. If the task returns an error or panics, the transaction
// is rolled back; otherwise it is committed.
//
// Arguments:
//   - ctx: The context for the transaction execution, which can manage timeouts and cancellation.
//   - task: The operations to perform within the transaction. The tx must not be used after task returns,
//     and the methods of pc must not be called from inside task.
//
// Returns:
//   - error: Any error encountered during transaction initiation, execution, or commit.
//
// Example Usage:
//
//	err := conn.RunInTx(ctx, func(ctx context.Context, tx *pgxdb.PostgresTx) error {
//	    _, err := tx.Exec(ctx, "UPDATE accounts SET balance = balance - $1 WHERE id = $2", amount, from)
//	    if err != nil {
//	        return err
//	    }
//	    _, err = tx.Exec(ctx, "UPDATE accounts SET balance = balance + $1 WHERE id = $2", amount, to)
//	    return err
//	})
func (pc *PostgresConn) RunInTx(ctx context.Context, task func(ctx context.Context, tx *PostgresTx) error) (err error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if err := pc.checkOpen(); err != nil {
		return err
	}

	pgTx, err := pc.conn.Begin(ctx)
	if err != nil {
		return errorx.NewDatabaseErrorWrapper(err, "error starting transaction")
	}

	tx := &PostgresTx{pc: pc, tx: pgTx}

	defer func() {
		if p := recover(); p != nil {
			tx.rollback(ctx)
			panic(p)
		}
	}()

	if err = task(ctx, tx); err != nil {
		tx.rollback(ctx)
		return errors.Wrap(err, "error executing transactional task")
	}

	if err = pgTx.Commit(ctx); err != nil {
		pc.logger.LogError(ctx, "error during transaction commit", err)
		return errorx.NewDatabaseErrorWrapper(err, "error during transaction commit")
	}

	return nil
}

func (tx *PostgresTx) rollback(ctx context.Context) {
	if err := tx.tx.Rollback(ctx); err != nil {
		tx.pc.logger.LogError(ctx, "error Rolling Back transaction", err)
	} else {
		tx.pc.logger.LogDebug(ctx, "Rollback transaction")
	}
}

// Exec - Executes a command under the transaction through a cached prepared statement and returns the number
// of rows affected.
func (tx *PostgresTx) Exec(ctx context.Context, execQuery string, args ...any) (int64, error) {
	var tag pgconn.CommandTag
	err := tx.pc.withStatement(ctx, execQuery, func(sd *pgconn.StatementDescription) error {
		var err error
		tag, err = tx.tx.Exec(ctx, sd.Name, args...)
		return err
	})
	if err != nil {
		tx.pc.logger.LogError(ctx, fmt.Sprintf("Error executing query '%s' in transaction", execQuery), err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// StatementCacheStats - statement cache counters of the owning connection.
func (tx *PostgresTx) StatementCacheStats() stmtcache.Stats {
	return tx.pc.statements.Stats()
}

func (tx *PostgresTx) query(ctx context.Context, query string, args []any, process func(rows pgx.Rows) error) error {
	return tx.pc.withStatement(ctx, query, func(sd *pgconn.StatementDescription) error {
		rows, err := tx.tx.Query(ctx, sd.Name, args...)
		if err != nil {
			return err
		}
		return processRows(rows, process)
	})
}
