package store

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/api-gateway/pkg/util"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("document not found")

// Store is a hierarchical key-value document store with fetch-once
// read semantics. Paths are slash-separated ("users/<id>"). Values are
// marshaled to JSON. Every call is bounded by the store's op timeout;
// a call never hangs indefinitely.
type Store interface {
	Put(ctx context.Context, path string, value any) error
	// PutIfAbsent writes the document only when no document exists at
	// path. The write and the existence check are atomic; created
	// reports whether the document was written.
	PutIfAbsent(ctx context.Context, path string, value any) (created bool, err error)
	Get(ctx context.Context, path string, out any) error
	Delete(ctx context.Context, path string) error
	// List decodes every document directly under prefix into out,
	// which must be a pointer to a slice.
	List(ctx context.Context, prefix string, out any) error
	Ping(ctx context.Context) error
	Close()
}

// boundCtx applies the store op timeout unless the caller already set
// an earlier deadline.
func boundCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// wrapErr maps driver errors onto the gateway taxonomy. Not-found and
// nil pass through untouched.
func wrapErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return util.NewTimeout(op, err)
	}
	return util.NewExternalStoreFailure(op, err)
}
