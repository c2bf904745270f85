package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(n int, s Strategy) Policy {
	return Policy{MaxAttempts: n, Interval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Strategy: s}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	for _, s := range []Strategy{Linear, Exponential} {
		calls := 0
		err := Do(context.Background(), fast(3, s), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("flaky")
			}
			return nil
		})
		require.NoError(t, err, string(s))
		assert.Equal(t, 3, calls, string(s))
	}
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	var waits []time.Duration
	boom := errors.New("boom")
	err := Do(context.Background(), fast(3, Linear), func(context.Context) error {
		calls++
		return boom
	}, func(_ error, wait time.Duration) { waits = append(waits, wait) })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestDoPermanentErrorIsNotRetried(t *testing.T) {
	calls := 0
	bad := errors.New("bad request")
	err := Do(context.Background(), fast(5, Linear), func(context.Context) error {
		calls++
		return Permanent(bad)
	})
	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 10, Interval: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestLinearBackOffCaps(t *testing.T) {
	b := &linearBackOff{step: 2 * time.Second, max: 5 * time.Second}
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, 4*time.Second, b.NextBackOff())
	assert.Equal(t, 5*time.Second, b.NextBackOff())
	b.Reset()
	assert.Equal(t, 2*time.Second, b.NextBackOff())
}
