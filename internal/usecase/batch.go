package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"DarkPull/internal/domain/models"
	drepo "DarkPull/internal/domain/repository"
	applogger "DarkPull/pkg/logger"
	"DarkPull/pkg/retry"

	"golang.org/x/sync/errgroup"
)

// BatchOptions bounds fan-out to the market-data provider.
type BatchOptions struct {
	Concurrency int           // calls in flight per batch
	Delay       time.Duration // pause between batches
	Timeout     time.Duration // per attempt
	Policy      retry.Policy
}

// BatchRunner runs independent per-key calls in fixed-size batches. A failing
// key never cancels its siblings.
type BatchRunner struct {
	opts    BatchOptions
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewBatchRunner(opts BatchOptions, metrics drepo.Metrics, l *applogger.Logger) *BatchRunner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &BatchRunner{opts: opts, metrics: metrics, l: l}
}

// RunBatch calls fn for every key and collects successes and failures by key.
// Only cancellation of ctx stops the run early; remaining keys are reported
// as failed with ctx.Err().
func RunBatch[T any](ctx context.Context, b *BatchRunner, op string, keys []string, fn func(ctx context.Context, key string) (T, error)) (map[string]T, map[string]error) {
	var (
		mu     sync.Mutex
		ok     = make(map[string]T, len(keys))
		failed = make(map[string]error)
	)

	for start := 0; start < len(keys); start += b.opts.Concurrency {
		if start > 0 && !b.pause(ctx) {
			for _, k := range keys[start:] {
				failed[k] = ctx.Err()
			}
			break
		}
		end := min(start+b.opts.Concurrency, len(keys))

		var g errgroup.Group
		g.SetLimit(b.opts.Concurrency)
		for _, key := range keys[start:end] {
			key := key
			g.Go(func() error {
				v, err := callWithRetry(ctx, b, op, key, fn)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed[key] = err
				} else {
					ok[key] = v
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if len(failed) > 0 {
		b.l.Warn("batch finished with failures",
			applogger.String("op", op),
			applogger.Int("ok", len(ok)),
			applogger.Int("failed", len(failed)),
		)
	}
	return ok, failed
}

// callWithRetry bounds every attempt by the per-call timeout and retries per policy.
func callWithRetry[T any](ctx context.Context, b *BatchRunner, op, key string, fn func(context.Context, string) (T, error)) (T, error) {
	var out T
	attempt := 0
	err := retry.Do(ctx, b.opts.Policy, func(ctx context.Context) error {
		attempt++
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if b.opts.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		}
		defer cancel()
		v, err := fn(callCtx, key)
		if errors.Is(err, models.ErrInvalidInput) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		out = v
		return nil
	}, func(err error, wait time.Duration) {
		b.l.Debug("retrying call",
			applogger.String("op", op),
			applogger.String("key", key),
			applogger.Int("attempt", attempt),
			applogger.Duration("wait_ms", wait),
			applogger.Error(err),
		)
	})
	if err != nil {
		b.metrics.RecordError(op)
		return out, err
	}
	return out, nil
}

func (b *BatchRunner) pause(ctx context.Context) bool {
	if b.opts.Delay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(b.opts.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
