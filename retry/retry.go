// Package retry runs an operation a bounded number of times with a fixed
// delay between attempts. Both gateways use it so their retry budgets behave
// identically: the budget is local to one call and resets on the next.
package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Delay is slept between attempts, never after the last one.
	Delay time.Duration
	// AttemptTimeout bounds each attempt. Zero means no per-attempt bound.
	AttemptTimeout time.Duration
}

// Func is one attempt. attempt starts at 1.
type Func func(ctx context.Context, attempt int) error

// stopError marks a failure that must not be retried.
type stopError struct {
	err error
}

func (s *stopError) Error() string { return s.err.Error() }
func (s *stopError) Unwrap() error { return s.err }

// Stop wraps err so Do returns it immediately instead of retrying.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// Sleeper waits between attempts; tests replace it to avoid real delays.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep waits for d or until ctx is done.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a Stop error, ctx is done, or
// MaxAttempts is reached. It returns the number of attempts made and the last
// error (unwrapped from Stop).
func Do(ctx context.Context, p Policy, sleep Sleeper, fn Func) (int, error) {
	if sleep == nil {
		sleep = ContextSleep
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.Delay); err != nil {
				return attempt - 1, errors.Wrap(err, "retry wait interrupted")
			}
		}

		err := runAttempt(ctx, p.AttemptTimeout, attempt, fn)
		if err == nil {
			return attempt, nil
		}

		var stop *stopError
		if errors.As(err, &stop) {
			return attempt, stop.err
		}
		lastErr = err

		if ctx.Err() != nil {
			return attempt, lastErr
		}
	}

	return maxAttempts, lastErr
}

func runAttempt(ctx context.Context, timeout time.Duration, attempt int, fn Func) error {
	if timeout <= 0 {
		return fn(ctx, attempt)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx, attempt)
}
