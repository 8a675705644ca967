// Package stmtcache implements a bounded, least-recently-used store of prepared statement handles scoped to
// a single database connection.
//
// The cache owns every handle inserted into it. A handle leaves the cache only by LRU eviction, explicit
// removal or Clear, and in every case it is first dropped from the cache's bookkeeping and then released
// through the Releaser supplied at construction time. A failed release never leaves the entry tracked: the
// failure is returned to the caller as a *ReleaseError (aggregated with go.uber.org/multierr when more than
// one handle was involved) and the handle is presumed unusable.
//
// A capacity of 0 disables caching: Lookup always misses and Insert is a no-op that leaves ownership of the
// handle with the caller.
//
// A Cache is not safe for concurrent use. The connection owning it is expected to serialize every operation
// behind one lock scoped to the whole connection, since insert, eviction and clear are compound operations.
package stmtcache
