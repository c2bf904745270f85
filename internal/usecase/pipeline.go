package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"DarkPull/internal/domain/models"
	drepo "DarkPull/internal/domain/repository"
	applogger "DarkPull/pkg/logger"
	xutil "DarkPull/pkg/util"

	"github.com/google/uuid"
)

// PipelineConfig holds the orchestrator defaults.
type PipelineConfig struct {
	MaxTickers    int
	MinTotalValue float64
	Notify        bool
}

// RunOptions override PipelineConfig for a single run. Zero values keep the defaults.
type RunOptions struct {
	Date       time.Time
	MaxTickers int
	MinValue   float64
	Notify     *bool
}

// Orchestrator runs screen, backtest and notify in order, recording every
// stage. A stage whose collaborator fails marks the run unsuccessful but the
// results gathered so far are still returned.
type Orchestrator struct {
	screener   *Screener
	backtester *Backtester
	batch      *BatchRunner
	sink       drepo.NotificationSink
	cfg        PipelineConfig
	now        func() time.Time
	newID      func() string
	metrics    drepo.Metrics
	l          *applogger.Logger
}

func NewOrchestrator(screener *Screener, backtester *Backtester, batch *BatchRunner, sink drepo.NotificationSink, cfg PipelineConfig, metrics drepo.Metrics, l *applogger.Logger) *Orchestrator {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Orchestrator{
		screener:   screener,
		backtester: backtester,
		batch:      batch,
		sink:       sink,
		cfg:        cfg,
		now:        time.Now,
		newID:      uuid.NewString,
		metrics:    metrics,
		l:          l.With("pipeline"),
	}
}

// SetClock replaces time.Now.
func (o *Orchestrator) SetClock(now func() time.Time) { o.now = now }

// Run executes one pipeline pass. The returned result is never nil; err wraps
// ErrPartialPipelineFailure when a stage failed.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*models.PipelineResult, error) {
	started := o.now()
	date := opts.Date
	if date.IsZero() {
		date = o.screener.Today()
	}
	res := &models.PipelineResult{
		Success: true,
		Steps:   map[string]*models.StepResult{},
		Summary: models.RunSummary{
			RunID:     o.newID(),
			Date:      date.Format(xutil.DateLayout),
			StartedAt: started.UTC(),
		},
	}
	defer func() {
		res.Summary.Duration = o.now().Sub(started)
		o.l.Info("pipeline finished",
			applogger.String("run_id", res.Summary.RunID),
			applogger.String("date", res.Summary.Date),
			applogger.Bool("success", res.Success),
			applogger.String("failed_step", res.FailedStep),
			applogger.Int("screened", res.Summary.Screened),
			applogger.Int("profitable", res.Summary.Profitable),
			applogger.Duration("duration_ms", res.Summary.Duration),
		)
	}()

	// screen
	criteria := o.screener.Criteria()
	criteria.MaxResults = firstPositive(opts.MaxTickers, o.cfg.MaxTickers, criteria.MaxResults)
	criteria.MinTotalValue = firstPositiveFloat(opts.MinValue, o.cfg.MinTotalValue, criteria.MinTotalValue)

	err := o.step(ctx, res, models.StepScreen, func(ctx context.Context) (int, error) {
		screened, err := o.screener.Screen(ctx, date, criteria, true)
		if err != nil {
			return 0, err
		}
		res.Signals = screened.Signals
		res.Summary.Screened = len(screened.Signals)
		return len(screened.Signals), nil
	})
	if err != nil {
		o.skip(res, models.StepBacktest, models.StepNotify)
		return res, o.failure(res)
	}

	// backtest
	_ = o.step(ctx, res, models.StepBacktest, func(ctx context.Context) (int, error) {
		if len(res.Signals) == 0 {
			return 0, nil
		}
		bySymbol := make(map[string]models.ActivitySignal, len(res.Signals))
		tickers := make([]string, 0, len(res.Signals))
		for _, s := range res.Signals {
			bySymbol[s.Ticker] = s
			tickers = append(tickers, s.Ticker)
		}
		ok, failed := RunBatch(ctx, o.batch, "backtest", tickers, func(ctx context.Context, ticker string) (models.BacktestResult, error) {
			return o.backtester.Analyze(ctx, bySymbol[ticker])
		})
		o.collect(res, tickers, ok, failed)
		if len(ok) == 0 {
			return 0, fmt.Errorf("all %d backtests failed", len(failed))
		}
		return len(ok), nil
	})

	// notify
	notify := o.cfg.Notify
	if opts.Notify != nil {
		notify = *opts.Notify
	}
	if !notify || o.sink == nil {
		o.skip(res, models.StepNotify)
	} else {
		_ = o.step(ctx, res, models.StepNotify, func(ctx context.Context) (int, error) {
			summary := res.Summary
			summary.Duration = o.now().Sub(started)
			nr, err := o.sink.Notify(ctx, res.Profitable, summary)
			res.Delivered = nr.Delivered
			if err != nil {
				return 0, err
			}
			return len(res.Profitable), nil
		})
	}

	if !res.Success {
		return res, o.failure(res)
	}
	return res, nil
}

// step runs fn as the named stage. The first failing stage is recorded as
// FailedStep; later failures only mark their own StepResult.
func (o *Orchestrator) step(ctx context.Context, res *models.PipelineResult, name string, fn func(context.Context) (int, error)) error {
	start := o.now()
	sr := &models.StepResult{Name: name, StartedAt: start.UTC()}
	res.Steps[name] = sr

	n, err := fn(ctx)
	sr.Duration = o.now().Sub(start)
	sr.Count = n
	sr.Success = err == nil
	o.metrics.RecordStep(name, sr.Success, sr.Duration.Seconds())
	if err != nil {
		sr.Error = err.Error()
		res.Success = false
		if res.FailedStep == "" {
			res.FailedStep = name
		}
		o.metrics.RecordError("pipeline_" + name)
		o.l.Error("pipeline step failed", applogger.String("step", name), applogger.Error(err))
	}
	return err
}

func (o *Orchestrator) skip(res *models.PipelineResult, names ...string) {
	for _, name := range names {
		res.Steps[name] = &models.StepResult{Name: name, Skipped: true, Success: true}
	}
}

func (o *Orchestrator) collect(res *models.PipelineResult, order []string, ok map[string]models.BacktestResult, failed map[string]error) {
	for _, t := range order {
		r, found := ok[t]
		if !found {
			continue
		}
		res.Backtests = append(res.Backtests, r)
		if r.Source == models.SourceSynthetic {
			res.Summary.Synthetic++
		}
	}
	sort.SliceStable(res.Backtests, func(i, j int) bool {
		return res.Backtests[i].ProfitableRate > res.Backtests[j].ProfitableRate
	})
	for _, r := range res.Backtests {
		if r.Profitable {
			res.Profitable = append(res.Profitable, r)
		}
	}
	res.Summary.Analyzed = len(res.Backtests)
	res.Summary.Profitable = len(res.Profitable)
	if len(failed) > 0 {
		res.Summary.FailedTickers = make(map[string]string, len(failed))
		for t, err := range failed {
			res.Summary.FailedTickers[t] = err.Error()
		}
	}
}

func (o *Orchestrator) failure(res *models.PipelineResult) error {
	sr := res.Steps[res.FailedStep]
	msg := ""
	if sr != nil {
		msg = sr.Error
	}
	return fmt.Errorf("%w: %s: %s", models.ErrPartialPipelineFailure, res.FailedStep, msg)
}

// IsPartialFailure reports whether err came from a run that still produced results.
func IsPartialFailure(err error) bool {
	return errors.Is(err, models.ErrPartialPipelineFailure)
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositiveFloat(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
