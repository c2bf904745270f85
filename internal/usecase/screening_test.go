package usecase

import (
	"context"
	"testing"
	"time"

	"DarkPull/internal/domain/models"
	"DarkPull/internal/service/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var screenDay = time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)

// seedHistory stores a flat week before screenDay and a spike on it.
func seedHistory(store *memStore) {
	for i := 1; i <= 7; i++ {
		d := screenDay.AddDate(0, 0, -i).Format("2006-01-02")
		store.data[d] = models.DailyStats{
			"AAPL": stat("AAPL", d, 100, 10),
			"MSFT": stat("MSFT", d, 100, 400),
			"PENY": stat("PENY", d, 100, 1),
		}
	}
	store.data["2024-05-08"] = models.DailyStats{
		"AAPL": stat("AAPL", "2024-05-08", 500, 10),
		"MSFT": stat("MSFT", "2024-05-08", 120, 400),
		"PENY": stat("PENY", "2024-05-08", 900, 1),
		"NEWT": stat("NEWT", "2024-05-08", 900, 50),
	}
}

func newTestScreener(store *memStore) *Screener {
	return NewScreener(store, cache.NewTTLCache(), ScreeningConfig{
		RatioWindowDays:   7,
		HistoryWindowDays: 90,
		RecentDays:        3,
		HistoryRefresh:    time.Minute,
		Criteria:          models.ScreenCriteria{MinRatio: 3, MinPrice: 5, MinTotalValue: 1000},
	}, nil, nil)
}

func TestScreenRanksAgainstTrailingWindow(t *testing.T) {
	store := newMemStore()
	seedHistory(store)
	s := newTestScreener(store)

	res, err := s.Screen(context.Background(), screenDay, s.Criteria(), true)
	require.NoError(t, err)

	assert.False(t, res.NoData)
	assert.Equal(t, 4, res.Candidates)
	require.Len(t, res.Signals, 1)
	sig := res.Signals[0]
	assert.Equal(t, "AAPL", sig.Ticker)
	assert.InDelta(t, 5.0, sig.VolumeRatio, 1e-9)
	assert.Equal(t, models.SeverityHot, sig.Severity)
	assert.Equal(t, 7, sig.Baseline.DaysWithData)
	require.NotNil(t, sig.LongBaseline)
	assert.Equal(t, 90, sig.LongBaseline.WindowDays)
	assert.Equal(t, 7, sig.LongBaseline.DaysWithData)
	assert.NotEmpty(t, sig.Signals)
}

func TestScreenWithoutSignalsLeavesClassificationEmpty(t *testing.T) {
	store := newMemStore()
	seedHistory(store)
	s := newTestScreener(store)

	res, err := s.Screen(context.Background(), screenDay, s.Criteria(), false)
	require.NoError(t, err)
	require.Len(t, res.Signals, 1)
	assert.Empty(t, res.Signals[0].Signals)
	assert.Equal(t, models.SeverityHot, res.Signals[0].Severity)
}

func TestScreenReportsNoData(t *testing.T) {
	s := newTestScreener(newMemStore())

	res, err := s.Screen(context.Background(), screenDay, s.Criteria(), true)
	require.NoError(t, err)
	assert.True(t, res.NoData)
	assert.Empty(t, res.Signals)
}

func TestScreenPropagatesStoreErrors(t *testing.T) {
	store := newMemStore()
	store.getErr = errBoom
	s := newTestScreener(store)

	_, err := s.Screen(context.Background(), screenDay, s.Criteria(), true)
	assert.ErrorIs(t, err, errBoom)
}

func TestHistoryIsCachedUntilRefresh(t *testing.T) {
	store := newMemStore()
	seedHistory(store)
	now := time.Date(2024, 5, 8, 16, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	s := NewScreener(store, cache.NewTTLCache(cache.WithClock(clock)), ScreeningConfig{
		RatioWindowDays:   7,
		HistoryWindowDays: 10,
		HistoryRefresh:    15 * time.Minute,
	}, nil, nil)

	h1, err := s.History(context.Background(), screenDay)
	require.NoError(t, err)
	assert.Len(t, h1, 7)

	d := screenDay.AddDate(0, 0, -8).Format("2006-01-02")
	store.mu.Lock()
	store.data[d] = models.DailyStats{"AAPL": stat("AAPL", d, 1, 1)}
	store.mu.Unlock()

	h2, err := s.History(context.Background(), screenDay)
	require.NoError(t, err)
	assert.Len(t, h2, 7)

	now = now.Add(16 * time.Minute)
	h3, err := s.History(context.Background(), screenDay)
	require.NoError(t, err)
	assert.Len(t, h3, 8)
}

func TestBaselineValidatesInput(t *testing.T) {
	store := newMemStore()
	seedHistory(store)
	s := newTestScreener(store)

	_, err := s.Baseline(context.Background(), "", screenDay, 7)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = s.Baseline(context.Background(), "AAPL", screenDay, 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	b, err := s.Baseline(context.Background(), "aapl", screenDay, 120)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", b.Ticker)
	assert.Equal(t, 7, b.DaysWithData)
	require.NotNil(t, b.AvgDailyVolume)
	assert.InDelta(t, 100.0, *b.AvgDailyVolume, 1e-9)
}
