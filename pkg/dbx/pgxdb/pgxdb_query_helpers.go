package pgxdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Querier runs queries through a cached prepared statement. It is implemented by *PostgresConn and *PostgresTx.
type Querier interface {
	query(ctx context.Context, sql string, args []any, process func(rows pgx.Rows) error) error
}

// QueryAndScan executes a query through a cached prepared statement and maps the result to structs using
// the provided scanFunc.
//
// Arguments:
//   - ctx: The context for the query execution, which can be used to control cancellation and deadlines.
//   - q: The connection or transaction the query runs on.
//   - scanFunc: A function that maps each row (pgx.Rows) to the desired struct type (T).
//   - query: The SQL query to be executed.
//   - args: The variadic arguments for the SQL query, if any.
//
// Returns:
//   - []T: A slice of the struct type T, representing the mapped results from the query.
//   - error: Any error encountered during preparation, query execution or row scanning.
func QueryAndScan[T any](ctx context.Context, q Querier, scanFunc func(rows pgx.Rows) (T, error), query string, args ...any) ([]T, error) {
	var results []T

	err := q.query(ctx, query, args, func(rows pgx.Rows) error {
		for rows.Next() {
			result, err := scanFunc(rows)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return results, nil
}

// QueryScanAndProcess executes a query and processes each row with a callback that receives a struct.
//
// Arguments:
//   - ctx: The context for the query execution, allowing for cancellation and timeout management.
//   - q: The connection or transaction the query runs on.
//   - query: The SQL query to be executed.
//   - scanFunc: A function that maps each row (pgx.Rows) to the desired struct type (T).
//   - processCallbackFunc: A callback function that processes each mapped struct (T).
//   - args: The variadic arguments for the SQL query, if any.
//
// Returns:
//   - error: Any error encountered during query execution, row scanning, or processing.
func QueryScanAndProcess[T any](ctx context.Context, q Querier, query string, scanFunc func(rows pgx.Rows) (T, error), processCallbackFunc func(item T) error, args ...any) error {
	err := q.query(ctx, query, args, func(rows pgx.Rows) error {
		for rows.Next() {
			item, err := scanFunc(rows)
			if err != nil {
				return err
			}
			if err := processCallbackFunc(item); err != nil {
				return err
			}
		}
		return nil
	})

	return errors.WithStack(err)
}

// QueryAndMap uses pgx's struct scanning to map rows directly to a slice of structs.
//
// Arguments:
//   - ctx: The context for the query execution, which can manage cancellation and deadlines.
//   - q: The connection or transaction the query runs on.
//   - query: The SQL query to be executed.
//   - args: The variadic arguments for the SQL query, if any.
//
// Returns:
//   - []T: A slice of the struct type T, representing the mapped results from the query.
//   - error: Any error encountered during query execution or row mapping.
func QueryAndMap[T any](ctx context.Context, q Querier, query string, args ...any) ([]T, error) {
	var results []T

	err := q.query(ctx, query, args, func(rows pgx.Rows) error {
		var err error
		results, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])
		return err
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return results, nil
}
