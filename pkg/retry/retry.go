package retry

import (
	"context"
	"time"
)

// DelayFunc returns the delay to wait after a failed attempt.
// attempt is 1-based (the attempt that just failed).
type DelayFunc func(attempt int) time.Duration

// Flat returns the same delay after every failed attempt.
func Flat(d time.Duration) DelayFunc {
	return func(int) time.Duration { return d }
}

// Escalating returns base + step*attempt, so the wait grows strictly
// with each failed attempt (attempt 1 -> base+step, attempt 2 -> base+2*step, ...).
func Escalating(base, step time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return base + time.Duration(attempt)*step
	}
}

// Policy retries an operation up to MaxAttempts times, sleeping Delay(attempt)
// between attempts. Sleep is injectable for tests; nil means time.Sleep.
type Policy struct {
	MaxAttempts int
	Delay       DelayFunc
	Sleep       func(time.Duration)
}

func (p Policy) sleep(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Do runs fn until it succeeds or the attempt budget is exhausted.
// Exactly one delay happens between each pair of attempts; the last
// attempt's error is returned as-is. Context cancellation stops the
// loop before the next attempt.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt < attempts {
			d := time.Duration(0)
			if p.Delay != nil {
				d = p.Delay(attempt)
			}
			if d > 0 {
				p.sleep(d)
			}
		}
	}
	return lastErr
}
