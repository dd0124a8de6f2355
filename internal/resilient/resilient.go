// Package resilient wraps calls to external services with a bounded
// timeout and a typed fallback value, so a slow or failing collaborator
// can degrade a response but never block it.
package resilient

import (
	"context"
	"time"
)

// Do runs fn with a deadline of timeout. On success it returns fn's
// result. On error or timeout it returns fallback along with the error,
// letting the caller log and count the degradation.
func Do[T any](ctx context.Context, timeout time.Duration, fallback T, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := fn(ctx)
	if err != nil {
		return fallback, err
	}
	return result, nil
}
