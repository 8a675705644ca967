package stmtcache

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	// ErrNegativeCapacity is returned by New when the capacity is below zero.
	ErrNegativeCapacity = errors.New("stmtcache: capacity must not be negative")

	// ErrNilReleaser is returned by New when no release contract is supplied.
	ErrNilReleaser = errors.New("stmtcache: releaser must not be nil")

	// ErrDuplicateKey is reported by Insert when the key was already cached.
	// Callers are expected to Lookup before inserting.
	ErrDuplicateKey = errors.New("stmtcache: key already cached")
)

// ReleaseError reports a handle whose release failed. The entry is gone from the cache regardless.
type ReleaseError struct {
	Key Key
	Err error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("stmtcache: release of statement %q failed: %v", e.Key.String(), e.Err)
}

func (e *ReleaseError) Unwrap() error {
	return e.Err
}

// ReleaseErrors extracts every *ReleaseError from err, which may be a single error or a multierr aggregate.
func ReleaseErrors(err error) []*ReleaseError {
	var out []*ReleaseError
	for _, e := range multierr.Errors(err) {
		var re *ReleaseError
		if errors.As(e, &re) {
			out = append(out, re)
		}
	}

	return out
}

// IsContractViolation reports whether err signals a programming error by the caller of the cache.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrNegativeCapacity) || errors.Is(err, ErrNilReleaser) || errors.Is(err, ErrDuplicateKey)
}
