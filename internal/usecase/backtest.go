package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"DarkPull/internal/domain/models"
	drepo "DarkPull/internal/domain/repository"
	"DarkPull/internal/service/cache"
	"DarkPull/internal/services/straddle"
	applogger "DarkPull/pkg/logger"
	"DarkPull/pkg/retry"
	xutil "DarkPull/pkg/util"
)

// BacktestConfig holds straddle defaults and the synthetic fallback parameters.
type BacktestConfig struct {
	ProfitableThreshold    float64
	DaysToExpiration       int
	LookbackDays           int
	CacheTTL               time.Duration
	CallTimeout            time.Duration
	Retry                  retry.Policy
	SyntheticDailyVol      float64
	SyntheticMeanReversion float64
	DefaultAnnualVol       float64
}

// BacktestInput is a user-supplied scenario. Zero values fall back to defaults.
type BacktestInput struct {
	Ticker           string
	StrikePrice      float64
	TotalPremium     float64
	CurrentPrice     float64
	DaysToExpiration int
	LookbackDays     int
}

// Backtester evaluates straddle scenarios against cached daily price history.
// When the provider cannot deliver usable history it substitutes a synthetic
// series and tags the result accordingly.
type Backtester struct {
	provider drepo.MarketData
	prices   *cache.TTLCache
	cfg      BacktestConfig
	now      func() time.Time
	seed     atomic.Int64
	metrics  drepo.Metrics
	l        *applogger.Logger
}

func NewBacktester(provider drepo.MarketData, prices *cache.TTLCache, cfg BacktestConfig, metrics drepo.Metrics, l *applogger.Logger) *Backtester {
	if prices == nil {
		prices = cache.NewTTLCache()
	}
	if cfg.DaysToExpiration <= 0 {
		cfg.DaysToExpiration = 30
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 365
	}
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	b := &Backtester{provider: provider, prices: prices, cfg: cfg, now: time.Now, metrics: metrics, l: l.With("backtest")}
	b.seed.Store(time.Now().UnixNano())
	return b
}

// SetClock replaces time.Now.
func (b *Backtester) SetClock(now func() time.Time) { b.now = now }

// SetSeed makes synthetic series reproducible.
func (b *Backtester) SetSeed(seed int64) { b.seed.Store(seed) }

// Backtest evaluates a user-supplied scenario.
func (b *Backtester) Backtest(ctx context.Context, in BacktestInput) (models.BacktestResult, error) {
	days := in.DaysToExpiration
	if days <= 0 {
		days = b.cfg.DaysToExpiration
	}
	// required fields are checked before touching the provider
	if xutil.NormalizeTicker(in.Ticker) == "" {
		return models.BacktestResult{}, fmt.Errorf("%w: ticker is required", models.ErrInvalidInput)
	}
	if in.TotalPremium <= 0 {
		return models.BacktestResult{}, fmt.Errorf("%w: total premium is required", models.ErrInvalidInput)
	}

	series, source, err := b.series(ctx, in.Ticker, in.LookbackDays)
	if err != nil {
		return models.BacktestResult{}, err
	}
	current := in.CurrentPrice
	if current <= 0 {
		current = lastClose(series)
	}
	scenario, err := straddle.NewScenario(in.Ticker, in.StrikePrice, in.TotalPremium, current, days)
	if err != nil {
		return models.BacktestResult{}, err
	}
	if source == models.SourceSynthetic {
		series = b.synthetic(scenario.CurrentPrice, in.LookbackDays)
	}
	return b.evaluate(scenario, series, source)
}

// Analyze backtests an at-the-money straddle on a screened ticker, struck at
// the day's average dark-pool price with a premium estimated from realised
// volatility.
func (b *Backtester) Analyze(ctx context.Context, sig models.ActivitySignal) (models.BacktestResult, error) {
	series, source, err := b.series(ctx, sig.Ticker, 0)
	if err != nil {
		return models.BacktestResult{}, err
	}

	spot := lastClose(series)
	if spot <= 0 {
		spot = sig.AvgPrice
	}
	strike := sig.AvgPrice
	if strike <= 0 {
		strike = spot
	}
	if source == models.SourceSynthetic {
		series = b.synthetic(strike, 0)
	}

	vol := 0.0
	if source == models.SourceHistorical {
		vol = straddle.RealizedVol(closes(series))
	}
	if vol <= 0 {
		vol = straddle.DailyFromAnnual(b.cfg.DefaultAnnualVol)
	}
	premium := straddle.EstimatePremium(spot, vol, b.cfg.DaysToExpiration)

	scenario, err := straddle.NewScenario(sig.Ticker, strike, premium, spot, b.cfg.DaysToExpiration)
	if err != nil {
		return models.BacktestResult{}, err
	}
	return b.evaluate(scenario, series, source)
}

func (b *Backtester) evaluate(s models.StraddleScenario, series []models.PricePoint, source models.DataSource) (models.BacktestResult, error) {
	moves := straddle.Movements(series, s.DaysToExpiration)
	res, err := straddle.Evaluate(s, moves, source, b.cfg.ProfitableThreshold)
	if err != nil {
		return res, err
	}
	b.metrics.RecordBacktest(string(source))
	b.l.Debug("backtest evaluated",
		applogger.String("ticker", s.Ticker),
		applogger.String("source", string(source)),
		applogger.Int("samples", res.TotalSamples),
		applogger.Float64("profitable_rate", res.ProfitableRate),
	)
	return res, nil
}

// series returns historical closes, or nil with SourceSynthetic when the
// provider failed or returned too little to form a single window. Only
// cancellation of ctx is returned as an error.
func (b *Backtester) series(ctx context.Context, ticker string, lookback int) ([]models.PricePoint, models.DataSource, error) {
	if lookback <= 0 {
		lookback = b.cfg.LookbackDays
	}
	ticker = xutil.NormalizeTicker(ticker)
	to := xutil.TradingDate(b.now(), time.UTC)
	from := to.AddDate(0, 0, -lookback)
	key := fmt.Sprintf("prices:%s:%s:%d", ticker, to.Format(xutil.DateLayout), lookback)

	series, err := cache.Load(ctx, b.prices, key, b.cfg.CacheTTL, func(ctx context.Context) ([]models.PricePoint, error) {
		var out []models.PricePoint
		err := retry.Do(ctx, b.cfg.Retry, func(ctx context.Context) error {
			callCtx, cancel := ctx, context.CancelFunc(func() {})
			if b.cfg.CallTimeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, b.cfg.CallTimeout)
			}
			defer cancel()
			s, err := b.provider.FetchDailyPriceSeries(callCtx, ticker, from, to)
			if err != nil {
				return err
			}
			out = s
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(out) <= b.cfg.DaysToExpiration {
			return nil, fmt.Errorf("%w: %d closes for %s", models.ErrNoData, len(out), ticker)
		}
		return out, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		b.metrics.RecordError("price_series")
		b.l.Warn("price history unavailable, using synthetic series",
			applogger.String("ticker", ticker),
			applogger.Error(err),
		)
		return nil, models.SourceSynthetic, nil
	}
	return series, models.SourceHistorical, nil
}

func (b *Backtester) synthetic(start float64, lookback int) []models.PricePoint {
	if lookback <= 0 {
		lookback = b.cfg.LookbackDays
	}
	rng := rand.New(rand.NewSource(b.seed.Add(1)))
	return straddle.SyntheticSeries(straddle.SyntheticConfig{
		StartPrice:    start,
		DailyVol:      b.cfg.SyntheticDailyVol,
		MeanReversion: b.cfg.SyntheticMeanReversion,
		Days:          lookback,
		End:           xutil.TradingDate(b.now(), time.UTC),
	}, rng)
}

func lastClose(series []models.PricePoint) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Close > 0 {
			return series[i].Close
		}
	}
	return 0
}

func closes(series []models.PricePoint) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Close
	}
	return out
}
