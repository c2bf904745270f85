package darkpool

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"DarkPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dark(ticker string, size int64, price float64, ts time.Time) models.Trade {
	return models.Trade{Ticker: ticker, VenueCode: 4, TRFID: strPtr("201"), Size: size, Price: price, Timestamp: ts}
}

func sampleTrades() []models.Trade {
	d1 := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)
	return []models.Trade{
		dark("aapl", 100, 10.1, d1),
		dark("AAPL", 300, 10.3, d1.Add(time.Minute)),
		dark("AAPL", 50, 9.95, d1.Add(2*time.Minute)),
		dark("msft", 10, 401.17, d1),
		dark("AAPL", 200, 11.07, d2),
		{Ticker: "AAPL", VenueCode: 11, Size: 1_000_000, Price: 1, Timestamp: d1},
		{Ticker: "AAPL", VenueCode: 4, Size: 1_000_000, Price: 1, Timestamp: d1},
	}
}

func TestAggregateGroupsDarkPoolByDateAndTicker(t *testing.T) {
	got := Aggregate(sampleTrades())

	require.Len(t, got, 2)
	aapl := got["2024-05-01"]["AAPL"]
	assert.Equal(t, int64(450), aapl.TotalVolume)
	assert.Equal(t, int64(3), aapl.TradeCount)
	assert.InDelta(t, 100*10.1+300*10.3+50*9.95, aapl.TotalValue, 1e-9)
	assert.Equal(t, 9.95, aapl.MinPrice)
	assert.Equal(t, 10.3, aapl.MaxPrice)
	assert.InDelta(t, aapl.TotalValue/450, aapl.AvgPrice, 1e-9)

	assert.Contains(t, got["2024-05-01"], "MSFT")
	assert.Equal(t, int64(200), got["2024-05-02"]["AAPL"].TotalVolume)
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	trades := sampleTrades()
	want := Aggregate(trades)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.Trade(nil), trades...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Aggregate(shuffled))
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	assert.Equal(t, Aggregate(sampleTrades()), Aggregate(sampleTrades()))
}

func TestAggregateZeroSizeStillCounts(t *testing.T) {
	ts := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	got := Aggregate([]models.Trade{dark("XYZ", 0, 25, ts)})

	s := got["2024-05-01"]["XYZ"]
	assert.Equal(t, int64(0), s.TotalVolume)
	assert.Equal(t, int64(1), s.TradeCount)
	assert.Equal(t, 0.0, s.AvgPrice)
	assert.Equal(t, 25.0, s.MaxPrice)
}

func TestAggregateMissingSizeAndPriceDefaultToZero(t *testing.T) {
	ts := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	got := Aggregate([]models.Trade{
		{Ticker: "XYZ", VenueCode: 4, TRFID: strPtr("1"), Timestamp: ts},
		dark("XYZ", 10, 5, ts),
	})

	s := got["2024-05-01"]["XYZ"]
	assert.Equal(t, int64(10), s.TotalVolume)
	assert.Equal(t, int64(2), s.TradeCount)
	assert.Equal(t, 0.0, s.MinPrice)
	assert.Equal(t, 5.0, s.MaxPrice)
	assert.Equal(t, 5.0, s.AvgPrice)
}

func TestAggregateUsesLocationForTradingDate(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	late := time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC) // 20:00 the previous evening in New York
	got := Aggregate([]models.Trade{dark("AAPL", 1, 1, late)}, WithLocation(est))
	assert.Contains(t, got, "2024-05-01")
}

func TestConsumeStreamsInChunks(t *testing.T) {
	trades := sampleTrades()
	src := &countingSource{SliceSource: NewSliceSource(trades)}

	a := NewAggregator(WithChunkSize(2))
	require.NoError(t, a.Consume(context.Background(), src))

	assert.Equal(t, Aggregate(trades), a.Result())
	assert.Equal(t, 2, src.maxChunk)
	seen, darkN := a.Counts()
	assert.Equal(t, int64(len(trades)), seen)
	assert.Equal(t, int64(5), darkN)
}

func TestConsumeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewAggregator().Consume(ctx, NewSliceSource(sampleTrades()))
	assert.ErrorIs(t, err, context.Canceled)
}

type countingSource struct {
	*SliceSource
	maxChunk int
}

func (c *countingSource) Next(ctx context.Context, max int) ([]models.Trade, error) {
	chunk, err := c.SliceSource.Next(ctx, max)
	if len(chunk) > c.maxChunk {
		c.maxChunk = len(chunk)
	}
	return chunk, err
}
