package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultPoll    = 500 * time.Millisecond
)

// Wait describes how long to poll for a condition and which errors mean
// "not yet" instead of failure. ErrElementNotFound is always ignored.
type Wait struct {
	Timeout time.Duration
	Poll    time.Duration
	Ignore  []error
}

func (w Wait) withDefaults() Wait {
	if w.Timeout <= 0 {
		w.Timeout = DefaultTimeout
	}
	if w.Poll <= 0 {
		w.Poll = DefaultPoll
	}
	if w.Poll > w.Timeout {
		w.Poll = w.Timeout
	}
	return w
}

func (w Wait) ignorable(err error) bool {
	if errors.Is(err, ErrElementNotFound) {
		return true
	}
	for _, ignored := range w.Ignore {
		if errors.Is(err, ignored) {
			return true
		}
	}
	return false
}

// Until calls fn until it succeeds, returns a non ignorable error or the
// timeout elapses. On timeout the last ignorable error is wrapped, so a
// wait on a missing element still satisfies errors.Is(err, ErrElementNotFound).
func Until[T any](ctx context.Context, w Wait, fn func(ctx context.Context) (T, error)) (T, error) {
	w = w.withDefaults()
	waitCtx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	var lastErr error
	operation := func() (T, error) {
		out, err := fn(waitCtx)
		if err == nil {
			return out, nil
		}
		if waitCtx.Err() != nil {
			return out, backoff.Permanent(waitCtx.Err())
		}
		if !w.ignorable(err) {
			return out, backoff.Permanent(err)
		}
		lastErr = err
		return out, err
	}

	out, err := backoff.RetryWithData(
		operation,
		backoff.WithContext(backoff.NewConstantBackOff(w.Poll), waitCtx),
	)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	if waitCtx.Err() == nil {
		return out, err
	}
	if lastErr == nil {
		return out, fmt.Errorf("wait timed out after %s: %w", w.Timeout, ErrElementNotFound)
	}
	return out, fmt.Errorf("wait timed out after %s: %w", w.Timeout, lastErr)
}
