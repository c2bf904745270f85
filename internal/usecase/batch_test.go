package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"DarkPull/internal/domain/models"
	"DarkPull/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, Interval: time.Millisecond, Strategy: retry.Linear}
}

func TestRunBatchCollectsSuccessesAndFailures(t *testing.T) {
	b := NewBatchRunner(BatchOptions{Concurrency: 2, Policy: fastPolicy(1)}, nil, nil)

	ok, failed := RunBatch(context.Background(), b, "test", []string{"A", "B", "C", "D", "E"}, func(_ context.Context, key string) (string, error) {
		if key == "C" {
			return "", errBoom
		}
		return "v" + key, nil
	})

	assert.Len(t, ok, 4)
	assert.Equal(t, "vA", ok["A"])
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed["C"], errBoom)
}

func TestRunBatchRetriesTransientErrors(t *testing.T) {
	b := NewBatchRunner(BatchOptions{Concurrency: 1, Policy: fastPolicy(3)}, nil, nil)
	var calls atomic.Int32

	ok, failed := RunBatch(context.Background(), b, "test", []string{"A"}, func(context.Context, string) (int, error) {
		if calls.Add(1) < 3 {
			return 0, errBoom
		}
		return 42, nil
	})

	assert.Empty(t, failed)
	assert.Equal(t, 42, ok["A"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunBatchDoesNotRetryInvalidInput(t *testing.T) {
	b := NewBatchRunner(BatchOptions{Concurrency: 1, Policy: fastPolicy(5)}, nil, nil)
	var calls atomic.Int32

	_, failed := RunBatch(context.Background(), b, "test", []string{"A"}, func(context.Context, string) (int, error) {
		calls.Add(1)
		return 0, fmt.Errorf("%w: bad", models.ErrInvalidInput)
	})

	assert.ErrorIs(t, failed["A"], models.ErrInvalidInput)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunBatchStopsOnCancel(t *testing.T) {
	b := NewBatchRunner(BatchOptions{Concurrency: 1, Policy: fastPolicy(1)}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ok, failed := RunBatch(ctx, b, "test", []string{"A", "B", "C"}, func(_ context.Context, key string) (string, error) {
		cancel()
		return key, nil
	})

	assert.Equal(t, map[string]string{"A": "A"}, ok)
	require.Len(t, failed, 2)
	assert.ErrorIs(t, failed["B"], context.Canceled)
	assert.ErrorIs(t, failed["C"], context.Canceled)
}

func TestRunBatchAppliesPerCallTimeout(t *testing.T) {
	b := NewBatchRunner(BatchOptions{Concurrency: 1, Timeout: 10 * time.Millisecond, Policy: fastPolicy(1)}, nil, nil)

	_, failed := RunBatch(context.Background(), b, "test", []string{"A"}, func(ctx context.Context, _ string) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.ErrorIs(t, failed["A"], context.DeadlineExceeded)
}
