package metrics

import (
	"sync"
)

// Package metrics provides a minimal instrumentation interface with a no-op
// default and a Prometheus-backed implementation.

// Recorder defines the metrics surface used by the statement cache and the connections owning it.
type Recorder interface {
	IncStmtCacheHit(conn string)
	IncStmtCacheMiss(conn string)
	IncStmtCacheEviction(conn string)
	IncStmtReleaseFailure(conn string)
	SetStmtCacheSize(conn string, size int)
}

// noopRecorder implements Recorder with no-ops.
type noopRecorder struct{}

func (n *noopRecorder) IncStmtCacheHit(string)       {}
func (n *noopRecorder) IncStmtCacheMiss(string)      {}
func (n *noopRecorder) IncStmtCacheEviction(string)  {}
func (n *noopRecorder) IncStmtReleaseFailure(string) {}
func (n *noopRecorder) SetStmtCacheSize(string, int) {}

var (
	recMu    sync.RWMutex
	recorder Recorder = &noopRecorder{}
)

// Noop returns a Recorder that discards everything.
func Noop() Recorder {
	return &noopRecorder{}
}

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation.
// A nil recorder restores the no-op default.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	if r == nil {
		r = &noopRecorder{}
	}
	recorder = r
}
