package darkpool

import (
	"testing"
	"time"

	"DarkPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func history(entries ...models.DailyTickerStat) History {
	h := History{}
	for _, e := range entries {
		if h[e.Date] == nil {
			h[e.Date] = models.DailyStats{}
		}
		h[e.Date][e.Ticker] = e
	}
	return h
}

func TestBaselineNoDataReturnsNilAverages(t *testing.T) {
	asOf := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	b := Baseline("aapl", asOf, 7, History{}.Stat)

	assert.Equal(t, "AAPL", b.Ticker)
	assert.Equal(t, 0, b.DaysWithData)
	assert.Nil(t, b.AvgDailyVolume)
	assert.Nil(t, b.AvgDailyValue)
	assert.False(t, b.HasData())
}

func TestBaselineAveragesOverDaysWithDataOnly(t *testing.T) {
	asOf := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	h := history(
		models.DailyTickerStat{Ticker: "AAPL", Date: "2024-05-03", TotalVolume: 100, TotalValue: 1000}, // window start, included
		models.DailyTickerStat{Ticker: "AAPL", Date: "2024-05-07", TotalVolume: 300, TotalValue: 3000},
		models.DailyTickerStat{Ticker: "AAPL", Date: "2024-05-10", TotalVolume: 9999, TotalValue: 1},  // asOf, excluded
		models.DailyTickerStat{Ticker: "AAPL", Date: "2024-05-02", TotalVolume: 9999, TotalValue: 1},  // before window
		models.DailyTickerStat{Ticker: "MSFT", Date: "2024-05-07", TotalVolume: 5000, TotalValue: 50}, // other ticker
	)

	b := Baseline("AAPL", asOf, 7, h.Stat)

	require.NotNil(t, b.AvgDailyVolume)
	assert.Equal(t, 2, b.DaysWithData)
	assert.Equal(t, 200.0, *b.AvgDailyVolume)
	assert.Equal(t, 2000.0, *b.AvgDailyValue)
	assert.Equal(t, "2024-05-10", b.AsOfDate)
	assert.Equal(t, 7, b.WindowDays)
}

func TestBaselineZeroVolumeDaysHaveNoUsableDenominator(t *testing.T) {
	asOf := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	h := history(models.DailyTickerStat{Ticker: "AAPL", Date: "2024-05-09", TradeCount: 3})

	b := Baseline("AAPL", asOf, 7, h.Stat)
	require.NotNil(t, b.AvgDailyVolume)
	assert.Equal(t, 0.0, *b.AvgDailyVolume)
	assert.False(t, b.HasData())
}

func TestHistoryTickersSorted(t *testing.T) {
	h := history(
		models.DailyTickerStat{Ticker: "TSLA", Date: "2024-05-09"},
		models.DailyTickerStat{Ticker: "AAPL", Date: "2024-05-09"},
	)
	assert.Equal(t, []string{"AAPL", "TSLA"}, h.Tickers("2024-05-09"))
	assert.Empty(t, h.Tickers("2024-01-01"))
}
