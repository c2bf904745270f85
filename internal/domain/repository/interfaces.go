package repository

import (
	"context"
	"time"

	"DarkPull/internal/domain/models"
)

// TradeSource yields trades in chunks of at most max records and returns
// io.EOF once drained.
type TradeSource interface {
	Next(ctx context.Context, max int) ([]models.Trade, error)
}

// MarketData is the upstream market-data provider. StreamTrades reads lazily;
// nothing is fetched until the first Next.
type MarketData interface {
	StreamTrades(ticker string, date time.Time) TradeSource
	FetchDailyPriceSeries(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error)
}

// AggregateStore keeps per-date dark-pool stats. Put replaces the whole date (last write wins).
// Get returns found=false for a date that was never written.
type AggregateStore interface {
	Get(ctx context.Context, date string) (stats models.DailyStats, found bool, err error)
	Put(ctx context.Context, date string, stats models.DailyStats) error
}

// NotificationSink receives the ranked profitable scenarios of a pipeline run.
type NotificationSink interface {
	Notify(ctx context.Context, scenarios []models.BacktestResult, summary models.RunSummary) (models.NotifyResult, error)
}

type Metrics interface {
	RecordTrades(kind string, n int)
	RecordProviderCall(op, result string)
	RecordStep(step string, success bool, seconds float64)
	RecordBacktest(source string)
	RecordNotification(channel string, delivered bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
