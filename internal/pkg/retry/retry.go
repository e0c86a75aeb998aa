// Package retry runs an operation until it succeeds with a fixed or growing delay between attempts.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes how often and how far apart an operation is attempted
type Policy struct {
	// Attempts is the total number of calls, at least one
	Attempts int
	// Delay is the wait before the second attempt
	Delay time.Duration
	// Multiplier grows the delay after every wait. Values below 1 keep it constant.
	Multiplier float64
	// OnRetry is called before each wait with the failed attempt number (1-based) and its error
	OnRetry func(attempt int, wait time.Duration, err error)
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Stop marks err as not worth retrying. Do returns the wrapped error unchanged.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// Do calls fn until it returns nil, returns an error wrapped by Stop, attempts run out
// or ctx ends. It returns the last error of fn, or ctx.Err() when ctx ended during a wait.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := p.Delay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		var stop permanent
		if errors.As(err, &stop) {
			return stop.err
		}
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if p.Multiplier > 1 {
			wait = time.Duration(float64(wait) * p.Multiplier)
		}
	}
	return err
}
