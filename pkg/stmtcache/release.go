package stmtcache

import "context"

// Releaser is the release contract: it frees the server or engine side resources of a handle.
// It is called synchronously during eviction, Remove and Clear; any timeout belongs to ctx.
type Releaser[H any] interface {
	Release(ctx context.Context, handle H) error
}

// ReleaseFunc adapts a plain function to the Releaser interface.
type ReleaseFunc[H any] func(ctx context.Context, handle H) error

func (f ReleaseFunc[H]) Release(ctx context.Context, handle H) error {
	return f(ctx, handle)
}
