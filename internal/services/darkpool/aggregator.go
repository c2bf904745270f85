package darkpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"DarkPull/internal/domain/models"
	"DarkPull/pkg/util"

	"github.com/shopspring/decimal"
)

// DefaultChunkSize bounds how many trades are held in memory at once.
const DefaultChunkSize = 10_000

// TradeSource yields trades in chunks of at most max records.
// It returns io.EOF once exhausted; a final chunk may accompany io.EOF.
type TradeSource interface {
	Next(ctx context.Context, max int) ([]models.Trade, error)
}

// AggregatorOption configures Aggregator.
type AggregatorOption func(*Aggregator)

// WithPredicate overrides the dark-pool rule.
func WithPredicate(p Predicate) AggregatorOption {
	return func(a *Aggregator) {
		if p != nil {
			a.isDark = p
		}
	}
}

// WithLocation sets the timezone used to derive the trading date.
func WithLocation(loc *time.Location) AggregatorOption {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithChunkSize sets the streaming chunk size.
func WithChunkSize(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

type accumulator struct {
	volume int64
	count  int64
	value  decimal.Decimal
	min    float64
	max    float64
}

// Aggregator reduces dark-pool trades into per (date, ticker) statistics.
// Memory is proportional to distinct (date, ticker) pairs, not to trades.
// It is not safe for concurrent use.
type Aggregator struct {
	isDark    Predicate
	loc       *time.Location
	chunkSize int

	acc      map[string]map[string]*accumulator
	seen     int64
	darkSeen int64
}

// NewAggregator creates an empty aggregator using the default venue rule and UTC dates.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		isDark:    IsDarkPool,
		loc:       time.UTC,
		chunkSize: DefaultChunkSize,
		acc:       make(map[string]map[string]*accumulator),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add folds a chunk of trades into the running totals.
func (a *Aggregator) Add(trades []models.Trade) {
	for i := range trades {
		a.add(&trades[i])
	}
}

func (a *Aggregator) add(t *models.Trade) {
	a.seen++
	if !a.isDark(*t) {
		return
	}
	ticker := util.NormalizeTicker(t.Ticker)
	if ticker == "" {
		return
	}
	a.darkSeen++

	date := util.FormatDate(t.Timestamp, a.loc)
	byTicker, ok := a.acc[date]
	if !ok {
		byTicker = make(map[string]*accumulator)
		a.acc[date] = byTicker
	}
	ac, ok := byTicker[ticker]
	if !ok {
		ac = &accumulator{min: math.Inf(1), max: math.Inf(-1)}
		byTicker[ticker] = ac
	}

	size := t.Size
	if size < 0 {
		size = 0
	}
	price := t.Price
	if math.IsNaN(price) || price < 0 {
		price = 0
	}

	ac.volume += size
	ac.count++
	ac.value = ac.value.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(size)))
	if price < ac.min {
		ac.min = price
	}
	if price > ac.max {
		ac.max = price
	}
}

// Consume drains src chunk by chunk.
func (a *Aggregator) Consume(ctx context.Context, src TradeSource) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := src.Next(ctx, a.chunkSize)
		a.Add(chunk)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read trades: %w", err)
		}
	}
}

// Counts returns how many trades were seen and how many were classified dark-pool.
func (a *Aggregator) Counts() (seen, dark int64) {
	return a.seen, a.darkSeen
}

// Result finalizes the running totals into date -> ticker -> stat.
func (a *Aggregator) Result() map[string]models.DailyStats {
	out := make(map[string]models.DailyStats, len(a.acc))
	for date, byTicker := range a.acc {
		stats := make(models.DailyStats, len(byTicker))
		for ticker, ac := range byTicker {
			stats[ticker] = ac.finalize(ticker, date)
		}
		out[date] = stats
	}
	return out
}

func (ac *accumulator) finalize(ticker, date string) models.DailyTickerStat {
	s := models.DailyTickerStat{
		Ticker:      ticker,
		Date:        date,
		TotalVolume: ac.volume,
		TradeCount:  ac.count,
		TotalValue:  ac.value.InexactFloat64(),
		MinPrice:    ac.min,
		MaxPrice:    ac.max,
	}
	if math.IsInf(s.MinPrice, 1) {
		s.MinPrice = 0
	}
	if math.IsInf(s.MaxPrice, -1) {
		s.MaxPrice = 0
	}
	if ac.volume > 0 {
		s.AvgPrice = ac.value.Div(decimal.NewFromInt(ac.volume)).InexactFloat64()
	}
	return s
}

// Aggregate is a convenience for small in-memory inputs.
func Aggregate(trades []models.Trade, opts ...AggregatorOption) map[string]models.DailyStats {
	a := NewAggregator(opts...)
	a.Add(trades)
	return a.Result()
}

// SliceSource serves an in-memory slice in chunks.
type SliceSource struct {
	trades []models.Trade
	pos    int
}

func NewSliceSource(trades []models.Trade) *SliceSource {
	return &SliceSource{trades: trades}
}

func (s *SliceSource) Next(_ context.Context, max int) ([]models.Trade, error) {
	if s.pos >= len(s.trades) {
		return nil, io.EOF
	}
	end := s.pos + max
	if end > len(s.trades) {
		end = len(s.trades)
	}
	chunk := s.trades[s.pos:end]
	s.pos = end
	return chunk, nil
}
