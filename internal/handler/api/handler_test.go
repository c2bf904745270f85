package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DarkPull/internal/domain/models"
	drepo "DarkPull/internal/domain/repository"
	"DarkPull/internal/repository"
	icache "DarkPull/internal/service/cache"
	"DarkPull/internal/services/darkpool"
	"DarkPull/internal/usecase"
	"DarkPull/pkg/cache"
	"DarkPull/pkg/retry"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMarket struct {
	series    []models.PricePoint
	seriesErr error
}

func (s *stubMarket) StreamTrades(ticker string, date time.Time) drepo.TradeSource {
	trf := "201"
	return darkpool.NewSliceSource([]models.Trade{{Ticker: ticker, VenueCode: 4, TRFID: &trf, Size: 100, Price: 20, Timestamp: date.Add(15 * time.Hour)}})
}

func (s *stubMarket) FetchDailyPriceSeries(context.Context, string, time.Time, time.Time) ([]models.PricePoint, error) {
	if s.seriesErr != nil {
		return nil, s.seriesErr
	}
	return s.series, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, market *stubMarket) (*echo.Echo, *Handler) {
	t.Helper()
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })
	store := repository.NewCacheAggregateStore(mem, "")

	day := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		d := day.AddDate(0, 0, -i).Format("2006-01-02")
		require.NoError(t, store.Put(context.Background(), d, models.DailyStats{
			"AAPL": {Ticker: "AAPL", Date: d, TotalVolume: 100, TotalValue: 2000, AvgPrice: 20, MinPrice: 20, MaxPrice: 20},
			"TINY": {Ticker: "TINY", Date: d, TotalVolume: 2, TotalValue: 10, AvgPrice: 5, MinPrice: 5, MaxPrice: 5},
		}))
	}
	require.NoError(t, store.Put(context.Background(), "2024-05-08", models.DailyStats{
		"AAPL": {Ticker: "AAPL", Date: "2024-05-08", TotalVolume: 500, TotalValue: 10000, AvgPrice: 20, MinPrice: 19, MaxPrice: 21},
		"TINY": {Ticker: "TINY", Date: "2024-05-08", TotalVolume: 10, TotalValue: 50, AvgPrice: 5, MinPrice: 5, MaxPrice: 5},
	}))

	policy := retry.Policy{MaxAttempts: 1}
	screener := usecase.NewScreener(store, icache.NewTTLCache(), usecase.ScreeningConfig{
		RatioWindowDays:   7,
		HistoryWindowDays: 90,
		RecentDays:        3,
		Criteria:          models.ScreenCriteria{MinRatio: 3, MinPrice: 5, MinTotalValue: 1000},
	}, nil, nil)
	backtester := usecase.NewBacktester(market, icache.NewTTLCache(), usecase.BacktestConfig{
		ProfitableThreshold: 55,
		DaysToExpiration:    30,
		LookbackDays:        120,
		Retry:               policy,
		SyntheticDailyVol:   0.02,
		DefaultAnnualVol:    0.3,
	}, nil, nil)
	batch := usecase.NewBatchRunner(usecase.BatchOptions{Concurrency: 2, Policy: policy}, nil, nil)
	ingestor := usecase.NewIngestor(market, store, batch, nil, nil)
	orch := usecase.NewOrchestrator(screener, backtester, batch, nil, usecase.PipelineConfig{}, nil, nil)

	h := NewHandler(screener, backtester, ingestor, orch, RateLimit{}, nil)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, h
}

func do(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func flat(days int, price float64) []models.PricePoint {
	end := time.Now().UTC()
	out := make([]models.PricePoint, days)
	for i := range out {
		out[i] = models.PricePoint{Date: end.AddDate(0, 0, i-days+1), Close: price}
	}
	return out
}

func TestScreenEndpoint(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{})

	rec, env := do(e, http.MethodGet, "/api/darkpool/screen?date=2024-05-08", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.ScreeningResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Signals, 1)
	assert.Equal(t, "AAPL", res.Signals[0].Ticker)
	assert.Equal(t, models.SeverityHot, res.Signals[0].Severity)
	assert.NotNil(t, res.Signals[0].LongBaseline)
}

func TestScreenEndpointExplicitZeroDisablesFilter(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{})

	rec, env := do(e, http.MethodGet, "/api/darkpool/screen?date=2024-05-08&min_value=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.ScreeningResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Len(t, res.Signals, 2)
	assert.Equal(t, 0.0, res.Criteria.MinTotalValue)

	rec, env = do(e, http.MethodGet, "/api/darkpool/screen?date=2024-05-08&min_ratio=6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = models.ScreeningResult{}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Empty(t, res.Signals)
	assert.Equal(t, 1000.0, res.Criteria.MinTotalValue)
}

func TestScreenEndpointNoData(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{})

	rec, env := do(e, http.MethodGet, "/api/darkpool/screen?date=2023-01-02", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.ScreeningResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.NoData)
	assert.Empty(t, res.Signals)
}

func TestScreenEndpointRejectsBadDate(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{})

	rec, _ := do(e, http.MethodGet, "/api/darkpool/screen?date=05-08-2024", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBaselineEndpoint(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{})

	rec, env := do(e, http.MethodGet, "/api/darkpool/baseline?ticker=aapl&date=2024-05-08", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var b models.BaselineWindow
	require.NoError(t, json.Unmarshal(env.Data, &b))
	assert.Equal(t, 7, b.WindowDays)
	assert.Equal(t, 7, b.DaysWithData)
	require.NotNil(t, b.AvgDailyVolume)
	assert.InDelta(t, 100.0, *b.AvgDailyVolume, 1e-9)

	rec, _ = do(e, http.MethodGet, "/api/darkpool/baseline?date=2024-05-08", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBacktestEndpoint(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{series: flat(200, 100)})

	rec, env := do(e, http.MethodPost, "/api/straddle/backtest", `{"ticker":"AAPL","total_premium":5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.BacktestResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.SourceHistorical, res.Source)
	assert.Equal(t, 100.0, res.ProfitableRate)
}

func TestBacktestEndpointSyntheticFallback(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{seriesErr: fmt.Errorf("%w: 503", models.ErrUpstreamUnavailable)})

	rec, env := do(e, http.MethodPost, "/api/straddle/backtest", `{"ticker":"AAPL","total_premium":5,"strike_price":100}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.BacktestResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.SourceSynthetic, res.Source)
	assert.Equal(t, models.DataQualityLimited, res.DataQuality)
}

func TestBacktestEndpointRequiresPremium(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{})

	rec, env := do(e, http.MethodPost, "/api/straddle/backtest", `{"ticker":"AAPL"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_REQUIRED")
}

func TestIngestEndpoint(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{})

	rec, env := do(e, http.MethodPost, "/api/darkpool/ingest", `{"date":"2024-05-09","tickers":["msft"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.IngestReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, []string{"MSFT"}, report.Succeeded)
	assert.Equal(t, []string{"2024-05-09"}, report.Dates)

	rec, _ = do(e, http.MethodPost, "/api/darkpool/ingest", `{"date":"2024-05-09","tickers":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPipelineEndpoint(t *testing.T) {
	e, _ := newTestServer(t, &stubMarket{series: flat(200, 20)})

	rec, env := do(e, http.MethodPost, "/api/pipeline/run", `{"date":"2024-05-08"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.PipelineResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Success)
	assert.Len(t, res.Backtests, 1)
	assert.True(t, res.Steps[models.StepNotify].Skipped)
}

func TestFailMapsErrors(t *testing.T) {
	_, h := newTestServer(t, &stubMarket{})
	e := echo.New()

	cases := []struct {
		err  error
		code int
		app  string
	}{
		{fmt.Errorf("%w: x", models.ErrInvalidInput), http.StatusBadRequest, "ERR_BAD_REQUEST"},
		{fmt.Errorf("%w: x", models.ErrUpstreamUnavailable), http.StatusBadGateway, "ERR_UPSTREAM"},
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), http.StatusBadGateway, "ERR_UPSTREAM"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, h.fail(c, tc.err))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())

		var env envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, tc.code, env.Status)
		var errs []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &errs))
		require.Len(t, errs, 1)
		assert.Equal(t, tc.app, errs[0].Code)
		assert.NotContains(t, errs[0].Message, "boom")
	}
}
