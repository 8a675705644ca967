package stmtcache

import (
	"github.com/marcodd23/go-stmt-cache/pkg/logx"
	"github.com/marcodd23/go-stmt-cache/pkg/metrics"
)

type options struct {
	keyFunc  KeyFunc
	recorder metrics.Recorder
	logger   logx.Logger
	name     string
}

// Option configures a Cache.
type Option func(*options)

// WithKeyFunc overrides the key derivation hook. A nil function keeps IdentityKey.
func WithKeyFunc(fn KeyFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.keyFunc = fn
		}
	}
}

// WithRecorder sets the metrics recorder. Defaults to metrics.Default() at construction time.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithLogger sets the logger used for eviction and release diagnostics. Defaults to logx.GetLogger().
func WithLogger(l logx.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName labels metrics and log lines, usually with the owning connection id.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}
