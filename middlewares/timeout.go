package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/anvil/internal"
)

// DefaultTimeout is used when Timeout is given a non-positive duration.
const DefaultTimeout = 30 * time.Second

// Timeout puts a deadline on the request context. Actions that pass the
// context to blocking calls are cut short; when the deadline has passed
// by the time the action returns, the result is replaced by *TimeoutError.
func Timeout(d time.Duration) internal.PipeFunc[*internal.Request] {
	if d <= 0 {
		d = DefaultTimeout
	}

	return func(req *internal.Request, next internal.Next[*internal.Request]) (any, error) {
		ctx, cancel := context.WithTimeout(req.Context(), d)
		defer cancel()

		req.WithContext(ctx)
		result, err := next(req)
		// Terminate still saves the session with this context.
		req.WithContext(context.WithoutCancel(req.Context()))

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Duration: d}
		}
		return result, err
	}
}
