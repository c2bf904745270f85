package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"DarkPull/internal/domain/models"
	drepo "DarkPull/internal/domain/repository"
	"DarkPull/internal/services/darkpool"
	applogger "DarkPull/pkg/logger"
	xutil "DarkPull/pkg/util"
)

// Ingestor turns raw trades into per-date dark-pool stats and merges them into
// the aggregate store. Tickers already stored for a date are kept unless the
// new run recomputed or re-fetched them.
type Ingestor struct {
	provider drepo.MarketData
	store    drepo.AggregateStore
	batch    *BatchRunner
	aggOpts  []darkpool.AggregatorOption
	metrics  drepo.Metrics
	l        *applogger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewIngestor(provider drepo.MarketData, store drepo.AggregateStore, batch *BatchRunner, metrics drepo.Metrics, l *applogger.Logger, aggOpts ...darkpool.AggregatorOption) *Ingestor {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Ingestor{
		provider: provider,
		store:    store,
		batch:    batch,
		aggOpts:  aggOpts,
		metrics:  metrics,
		l:        l.With("ingest"),
		locks:    make(map[string]*sync.Mutex),
	}
}

// IngestDate streams the date's trades for every ticker from the provider.
// Failed tickers are reported and skipped; the rest replace what is stored
// for them on that date, including tickers that no longer have dark-pool prints.
func (in *Ingestor) IngestDate(ctx context.Context, date time.Time, tickers []string) (models.IngestReport, error) {
	tickers = xutil.NormalizeTickers(tickers)
	report := models.IngestReport{Tickers: len(tickers), Failed: map[string]string{}}
	if len(tickers) == 0 {
		return report, fmt.Errorf("%w: at least one ticker is required", models.ErrInvalidInput)
	}

	type fetched struct {
		stats      map[string]models.DailyStats
		seen, dark int64
	}
	ok, failed := RunBatch(ctx, in.batch, "fetch_trades", tickers, func(ctx context.Context, ticker string) (fetched, error) {
		agg := darkpool.NewAggregator(in.aggOpts...)
		if err := agg.Consume(ctx, in.provider.StreamTrades(ticker, date)); err != nil {
			return fetched{}, err
		}
		seen, dark := agg.Counts()
		return fetched{stats: agg.Result(), seen: seen, dark: dark}, nil
	})

	merged := map[string]models.DailyStats{}
	for ticker, f := range ok {
		report.Succeeded = append(report.Succeeded, ticker)
		report.Trades += f.seen
		report.DarkPool += f.dark
		for d, stats := range f.stats {
			if merged[d] == nil {
				merged[d] = models.DailyStats{}
			}
			for t, st := range stats {
				merged[d][t] = st
			}
		}
	}
	for ticker, err := range failed {
		report.Failed[ticker] = err.Error()
	}
	sort.Strings(report.Succeeded)
	in.metrics.RecordTrades("all", int(report.Trades))
	in.metrics.RecordTrades("darkpool", int(report.DarkPool))

	// the requested date is recorded even when no dark-pool print landed on it
	day := date.Format(xutil.DateLayout)
	replace := map[string]map[string]struct{}{}
	if len(ok) > 0 {
		if _, has := merged[day]; !has {
			merged[day] = models.DailyStats{}
		}
		fetchedTickers := make(map[string]struct{}, len(ok))
		for ticker := range ok {
			fetchedTickers[ticker] = struct{}{}
		}
		replace[day] = fetchedTickers
	}

	dates, err := in.merge(ctx, merged, replace)
	report.Dates = dates
	if err != nil {
		return report, err
	}
	in.l.Info("ingest finished",
		applogger.String("date", date.Format(xutil.DateLayout)),
		applogger.Int("succeeded", len(report.Succeeded)),
		applogger.Int("failed", len(report.Failed)),
		applogger.Int64("dark_pool_trades", report.DarkPool),
	)
	return report, nil
}

// IngestSource streams a trade source through one aggregator and merges the result.
func (in *Ingestor) IngestSource(ctx context.Context, src darkpool.TradeSource) (models.IngestReport, error) {
	agg := darkpool.NewAggregator(in.aggOpts...)
	if err := agg.Consume(ctx, src); err != nil {
		return models.IngestReport{}, err
	}
	seen, dark := agg.Counts()
	in.metrics.RecordTrades("all", int(seen))
	in.metrics.RecordTrades("darkpool", int(dark))

	results := agg.Result()
	report := models.IngestReport{Trades: seen, DarkPool: dark}
	tickers := map[string]struct{}{}
	for _, stats := range results {
		for t := range stats {
			tickers[t] = struct{}{}
		}
	}
	report.Tickers = len(tickers)

	dates, err := in.Merge(ctx, results)
	report.Dates = dates
	return report, err
}

// Merge overlays each date's stats onto what is stored for that date.
// It returns the dates written, sorted.
func (in *Ingestor) Merge(ctx context.Context, results map[string]models.DailyStats) ([]string, error) {
	return in.merge(ctx, results, nil)
}

// merge drops the replace[date] tickers from the stored document before
// overlaying the new stats, so a re-fetched ticker without prints disappears.
func (in *Ingestor) merge(ctx context.Context, results map[string]models.DailyStats, replace map[string]map[string]struct{}) ([]string, error) {
	dates := make([]string, 0, len(results))
	for d := range results {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	written := make([]string, 0, len(dates))
	for _, d := range dates {
		if err := in.mergeDate(ctx, d, results[d], replace[d]); err != nil {
			return written, err
		}
		written = append(written, d)
	}
	return written, nil
}

func (in *Ingestor) mergeDate(ctx context.Context, date string, stats models.DailyStats, replace map[string]struct{}) error {
	lock := in.dateLock(date)
	lock.Lock()
	defer lock.Unlock()

	existing, _, err := in.store.Get(ctx, date)
	if err != nil {
		return fmt.Errorf("merge %s: %w", date, err)
	}
	out := make(models.DailyStats, len(existing)+len(stats))
	for t, st := range existing {
		if _, drop := replace[t]; drop {
			continue
		}
		out[t] = st
	}
	for t, st := range stats {
		out[t] = st
	}
	if err := in.store.Put(ctx, date, out); err != nil {
		return fmt.Errorf("merge %s: %w", date, err)
	}
	return nil
}

func (in *Ingestor) dateLock(date string) *sync.Mutex {
	in.mu.Lock()
	defer in.mu.Unlock()
	l, ok := in.locks[date]
	if !ok {
		l = &sync.Mutex{}
		in.locks[date] = l
	}
	return l
}
