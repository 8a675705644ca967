package dbx

import (
	"context"

	"github.com/marcodd23/go-stmt-cache/pkg/errorx"
	"github.com/marcodd23/go-stmt-cache/pkg/logx"
	"github.com/marcodd23/go-stmt-cache/pkg/metrics"
	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
)

// StatementManager binds a connection's execution layer to its statement cache.
//
// It implements the connection side of the cache protocol: look the key up, prepare on a miss, insert the
// new handle, and release handles the cache declined to hold. A StatementManager is owned by exactly one
// connection and, like the cache, is not safe for concurrent use on its own.
type StatementManager[H comparable] struct {
	cache          *stmtcache.Cache[H]
	preparer       StatementPreparer[H]
	onReleaseError ReleaseErrorHandler
	logger         logx.Logger
}

type managerOptions struct {
	connID         string
	keyFunc        stmtcache.KeyFunc
	recorder       metrics.Recorder
	logger         logx.Logger
	onReleaseError ReleaseErrorHandler
}

// ManagerOption configures a StatementManager.
type ManagerOption func(*managerOptions)

// WithConnID labels log lines and metrics of the manager with the owning connection id.
func WithConnID(id string) ManagerOption {
	return func(o *managerOptions) {
		o.connID = id
	}
}

// WithKeyFunc installs a dialect specific key derivation hook.
func WithKeyFunc(fn stmtcache.KeyFunc) ManagerOption {
	return func(o *managerOptions) {
		o.keyFunc = fn
	}
}

// WithRecorder sets the metrics recorder of the statement cache.
func WithRecorder(r metrics.Recorder) ManagerOption {
	return func(o *managerOptions) {
		o.recorder = r
	}
}

// WithLogger sets the base logger; the connection id is attached to it.
func WithLogger(l logx.Logger) ManagerOption {
	return func(o *managerOptions) {
		o.logger = l
	}
}

// WithReleaseErrorHandler overrides how release failures raised during an SQL operation are reported.
// The default logs them at warning level.
func WithReleaseErrorHandler(h ReleaseErrorHandler) ManagerOption {
	return func(o *managerOptions) {
		o.onReleaseError = h
	}
}

// NewStatementManager creates a manager whose cache holds at most capacity statements.
//
// Arguments:
//   - capacity: the statement cache capacity, usually ConnConfig.StatementCapacity(). 0 disables caching.
//   - preparer: the execution layer preparing and releasing statements on the owning connection.
//   - opts: optional settings (connection id, key function, recorder, logger, release error handler).
//
// Returns:
//   - *StatementManager[H]: the manager.
//   - error: a contract violation when capacity is negative or preparer is nil.
func NewStatementManager[H comparable](capacity int, preparer StatementPreparer[H], opts ...ManagerOption) (*StatementManager[H], error) {
	o := managerOptions{
		logger: logx.GetLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if o.connID != "" {
		logger = logger.With("conn", o.connID)
	}

	var releaser stmtcache.Releaser[H]
	if preparer != nil {
		releaser = preparer
	}

	cache, err := stmtcache.New[H](capacity, releaser,
		stmtcache.WithKeyFunc(o.keyFunc),
		stmtcache.WithRecorder(o.recorder),
		stmtcache.WithLogger(logger),
		stmtcache.WithName(o.connID),
	)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "error creating statement cache")
	}

	m := &StatementManager[H]{
		cache:          cache,
		preparer:       preparer,
		onReleaseError: o.onReleaseError,
		logger:         logger,
	}
	if m.onReleaseError == nil {
		m.onReleaseError = func(ctx context.Context, err error) {
			logger.LogWarning(ctx, "prepared statement release failed, server side resources may leak until the connection closes", err)
		}
	}

	return m, nil
}

// WithStatement runs fn with the prepared statement of sql, preparing and caching it on a miss.
//
// The handle passed to fn is borrowed from the cache and must not be retained after fn returns.
// When the cache is disabled the statement is prepared for this call only and released once fn returns.
// Release failures are passed to the ReleaseErrorHandler and never turn a successful fn into a failure.
//
// Returns:
//   - error: a *errorx.DatabaseError wrapping the preparation error, or the error returned by fn.
func (m *StatementManager[H]) WithStatement(ctx context.Context, sql string, fn func(handle H) error) error {
	key := m.cache.Key(sql)

	handle, ok := m.cache.Lookup(key)
	if !ok {
		prepared, err := m.preparer.Prepare(ctx, key)
		if err != nil {
			return errorx.NewDatabaseErrorWrapper(err, "failed to prepare statement '%s'", sql)
		}

		cached, err := m.cache.Insert(ctx, key, prepared)
		if err != nil {
			m.onReleaseError(ctx, err)
		}

		if !cached {
			defer func() {
				if err := m.preparer.Release(ctx, prepared); err != nil {
					m.onReleaseError(ctx, &stmtcache.ReleaseError{Key: key, Err: err})
				}
			}()
		}

		handle = prepared
	}

	return fn(handle)
}

// Invalidate drops and releases the cached statement of sql, if any.
// Connections call it when the server reports that a cached plan is no longer valid.
func (m *StatementManager[H]) Invalidate(ctx context.Context, sql string) error {
	_, err := m.cache.Remove(ctx, m.cache.Key(sql))
	return err
}

// Clear releases every cached statement. The cache is empty afterwards even if some releases failed.
func (m *StatementManager[H]) Clear(ctx context.Context) error {
	return m.cache.Clear(ctx)
}

// Cached reports whether sql currently has a cached statement, without promoting it.
func (m *StatementManager[H]) Cached(sql string) bool {
	return m.cache.Contains(m.cache.Key(sql))
}

// Size returns the number of cached statements.
func (m *StatementManager[H]) Size() int {
	return m.cache.Size()
}

// Stats returns the statement cache counters.
func (m *StatementManager[H]) Stats() stmtcache.Stats {
	return m.cache.Stats()
}
