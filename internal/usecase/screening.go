package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"DarkPull/internal/domain/models"
	drepo "DarkPull/internal/domain/repository"
	"DarkPull/internal/service/cache"
	"DarkPull/internal/services/darkpool"
	applogger "DarkPull/pkg/logger"
	xutil "DarkPull/pkg/util"

	"golang.org/x/sync/errgroup"
)

// ScreeningConfig holds the screener's windows and default thresholds.
type ScreeningConfig struct {
	RatioWindowDays   int
	HistoryWindowDays int
	RecentDays        int
	HistoryRefresh    time.Duration
	Criteria          models.ScreenCriteria
	Location          *time.Location
}

// Screener ranks today's dark-pool activity against stored history.
// The loaded history is cached per as-of date and reloaded only once
// HistoryRefresh has elapsed since the last load.
type Screener struct {
	store   drepo.AggregateStore
	history *cache.TTLCache
	cfg     ScreeningConfig
	now     func() time.Time
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewScreener(store drepo.AggregateStore, history *cache.TTLCache, cfg ScreeningConfig, metrics drepo.Metrics, l *applogger.Logger) *Screener {
	if history == nil {
		history = cache.NewTTLCache()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Screener{store: store, history: history, cfg: cfg, now: time.Now, metrics: metrics, l: l.With("screener")}
}

// Criteria returns the configured default thresholds.
func (s *Screener) Criteria() models.ScreenCriteria { return s.cfg.Criteria }

// Today is the current trading date in the configured timezone.
func (s *Screener) Today() time.Time {
	return xutil.TradingDate(s.now(), s.cfg.Location)
}

// Screen compares date's stats to the trailing ratio window and returns the
// tickers that pass criteria, ranked by ratio. A date with nothing stored
// yields NoData rather than an error.
func (s *Screener) Screen(ctx context.Context, date time.Time, criteria models.ScreenCriteria, withSignals bool) (models.ScreeningResult, error) {
	start := time.Now()
	day := date.Format(xutil.DateLayout)
	res := models.ScreeningResult{Date: day, Criteria: criteria, Signals: []models.ActivitySignal{}}

	today, found, err := s.store.Get(ctx, day)
	if err != nil {
		return res, fmt.Errorf("load %s: %w", day, err)
	}
	res.ComputedAt = s.now().UTC()
	if !found || len(today) == 0 {
		res.NoData = true
		return res, nil
	}

	hist, err := s.History(ctx, date)
	if err != nil {
		return res, err
	}
	lookup := hist.Stat

	stats := make([]models.DailyTickerStat, 0, len(today))
	for _, st := range today {
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Ticker < stats[j].Ticker })
	res.Candidates = len(stats)

	baselines := make(map[string]models.BaselineWindow, len(stats))
	for _, st := range stats {
		baselines[st.Ticker] = darkpool.Baseline(st.Ticker, date, s.cfg.RatioWindowDays, lookup)
	}

	signals := darkpool.Screen(stats, baselines, criteria)
	for i := range signals {
		sig := &signals[i]
		long := darkpool.Baseline(sig.Ticker, date, s.cfg.HistoryWindowDays, lookup)
		sig.LongBaseline = &long
		sig.RecentRatios = darkpool.RecentRatios(sig.Ticker, date, s.cfg.RecentDays, s.cfg.RatioWindowDays, lookup)
	}
	if withSignals {
		darkpool.Annotate(signals)
	} else {
		for i := range signals {
			signals[i].Severity = darkpool.Tier(signals[i].VolumeRatio)
		}
	}
	res.Signals = signals

	s.metrics.RecordLatency("screen", time.Since(start).Seconds())
	s.l.Debug("screen finished",
		applogger.String("date", day),
		applogger.Int("candidates", res.Candidates),
		applogger.Int("matched", len(signals)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}

// Baseline returns the trailing window for one ticker.
func (s *Screener) Baseline(ctx context.Context, ticker string, date time.Time, windowDays int) (models.BaselineWindow, error) {
	ticker = xutil.NormalizeTicker(ticker)
	if ticker == "" {
		return models.BaselineWindow{}, fmt.Errorf("%w: ticker is required", models.ErrInvalidInput)
	}
	if windowDays < 1 {
		return models.BaselineWindow{}, fmt.Errorf("%w: window must be positive", models.ErrInvalidInput)
	}
	var (
		hist darkpool.History
		err  error
	)
	if windowDays <= s.cfg.HistoryWindowDays {
		hist, err = s.History(ctx, date)
	} else {
		hist, err = s.load(ctx, date, windowDays)
	}
	if err != nil {
		return models.BaselineWindow{}, err
	}
	return darkpool.Baseline(ticker, date, windowDays, hist.Stat), nil
}

// History returns the stored stats for the history window before date.
func (s *Screener) History(ctx context.Context, date time.Time) (darkpool.History, error) {
	key := "history:" + date.Format(xutil.DateLayout)
	return cache.Load(ctx, s.history, key, s.cfg.HistoryRefresh, func(ctx context.Context) (darkpool.History, error) {
		return s.load(ctx, date, s.cfg.HistoryWindowDays)
	})
}

func (s *Screener) load(ctx context.Context, date time.Time, windowDays int) (darkpool.History, error) {
	start := time.Now()
	dates := xutil.WindowDates(date, windowDays)
	hist := make(darkpool.History, len(dates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, d := range dates {
		d := d
		g.Go(func() error {
			stats, found, err := s.store.Get(gctx, d)
			if err != nil {
				return fmt.Errorf("load %s: %w", d, err)
			}
			if found {
				mu.Lock()
				hist[d] = stats
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.l.Debug("history loaded",
		applogger.String("as_of", date.Format(xutil.DateLayout)),
		applogger.Int("window", windowDays),
		applogger.Int("days_with_data", len(hist)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return hist, nil
}

// SetClock replaces time.Now.
func (s *Screener) SetClock(now func() time.Time) { s.now = now }
