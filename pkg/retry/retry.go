package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Strategy selects how the delay grows between attempts.
type Strategy string

const (
	Linear      Strategy = "linear"
	Exponential Strategy = "exponential"
)

// Policy bounds a retried operation. MaxAttempts counts the first call.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
	MaxInterval time.Duration
	Strategy    Strategy
}

// DefaultPolicy is three attempts with linear 500ms steps.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Interval: 500 * time.Millisecond, MaxInterval: 5 * time.Second, Strategy: Linear}
}

// Permanent wraps err so Do stops retrying immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Notify is called before each wait with the failed attempt's error.
type Notify func(err error, wait time.Duration)

// Do runs op until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is done. The last error is returned unwrapped.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, notify ...Notify) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var b backoff.BackOff
	switch p.Strategy {
	case Exponential:
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = p.Interval
		if p.MaxInterval > 0 {
			eb.MaxInterval = p.MaxInterval
		}
		eb.MaxElapsedTime = 0
		b = eb
	default:
		b = &linearBackOff{step: p.Interval, max: p.MaxInterval}
	}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	var onRetry backoff.Notify
	if len(notify) > 0 && notify[0] != nil {
		onRetry = backoff.Notify(notify[0])
	}

	err := backoff.RetryNotify(func() error { return op(ctx) }, b, onRetry)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// linearBackOff waits step, 2*step, 3*step... capped at max when set.
type linearBackOff struct {
	step time.Duration
	max  time.Duration
	n    int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.n++
	d := time.Duration(l.n) * l.step
	if l.max > 0 && d > l.max {
		d = l.max
	}
	return d
}

func (l *linearBackOff) Reset() { l.n = 0 }
