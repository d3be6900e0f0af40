package records

import (
	"context"
	"errors"
	"time"
)

// Await runs fn and waits at most timeout for it. fn gets a context that
// keeps ctx's values but is never cancelled, so a call issued to the store
// runs to completion or failure even after Await gave up on it. When timeout
// is positive and fn has not returned by then, Await returns ErrTimeout. A
// cancelled ctx stops the wait with ctx.Err(). A zero timeout waits for fn
// however long it takes.
func Await(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn(context.WithoutCancel(ctx))
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err := <-done:
		return classifyDeadline(err)
	case <-expired:
		return ErrTimeout
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

func classifyDeadline(err error) error {
	if err != nil && !errors.Is(err, ErrTimeout) && errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
