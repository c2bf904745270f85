package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"DarkPull/internal/domain/models"
	drepo "DarkPull/internal/domain/repository"
	"DarkPull/internal/services/darkpool"
)

var errBoom = errors.New("boom")

type fakeMarket struct {
	mu          sync.Mutex
	trades      map[string][]models.Trade
	tradeErr    map[string]error
	series      map[string][]models.PricePoint
	seriesErr   error
	seriesCalls atomic.Int32
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		trades:   map[string][]models.Trade{},
		tradeErr: map[string]error{},
		series:   map[string][]models.PricePoint{},
	}
}

func (f *fakeMarket) StreamTrades(ticker string, _ time.Time) drepo.TradeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.tradeErr[ticker]; err != nil {
		return errSource{err: err}
	}
	return darkpool.NewSliceSource(f.trades[ticker])
}

type errSource struct{ err error }

func (s errSource) Next(context.Context, int) ([]models.Trade, error) { return nil, s.err }

func (f *fakeMarket) FetchDailyPriceSeries(ctx context.Context, ticker string, _, _ time.Time) ([]models.PricePoint, error) {
	f.seriesCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seriesErr != nil {
		return nil, f.seriesErr
	}
	return f.series[ticker], nil
}

type memStore struct {
	mu     sync.Mutex
	data   map[string]models.DailyStats
	getErr error
	puts   int
}

func newMemStore() *memStore { return &memStore{data: map[string]models.DailyStats{}} }

func (s *memStore) Get(_ context.Context, date string) (models.DailyStats, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[date]
	return v, ok, nil
}

func (s *memStore) Put(_ context.Context, date string, stats models.DailyStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[date] = stats
	s.puts++
	return nil
}

type fakeSink struct {
	calls     int
	scenarios []models.BacktestResult
	summary   models.RunSummary
	err       error
}

func (f *fakeSink) Notify(_ context.Context, scenarios []models.BacktestResult, summary models.RunSummary) (models.NotifyResult, error) {
	f.calls++
	f.scenarios = scenarios
	f.summary = summary
	if f.err != nil {
		return models.NotifyResult{}, f.err
	}
	return models.NotifyResult{Delivered: true, Channel: "fake"}, nil
}

func darkTrade(ticker string, size int64, price float64, ts time.Time) models.Trade {
	trf := "201"
	return models.Trade{Ticker: ticker, VenueCode: 4, TRFID: &trf, Size: size, Price: price, Timestamp: ts}
}

func flatSeries(end time.Time, days int, price float64) []models.PricePoint {
	out := make([]models.PricePoint, days)
	for i := range out {
		out[i] = models.PricePoint{Date: end.AddDate(0, 0, i-days+1), Close: price}
	}
	return out
}

func stat(ticker, date string, volume int64, price float64) models.DailyTickerStat {
	return models.DailyTickerStat{
		Ticker:      ticker,
		Date:        date,
		TotalVolume: volume,
		TradeCount:  1,
		TotalValue:  float64(volume) * price,
		MinPrice:    price,
		MaxPrice:    price,
		AvgPrice:    price,
	}
}
