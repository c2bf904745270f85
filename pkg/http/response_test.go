package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type premiumRequest struct {
	Ticker       string   `json:"ticker" validate:"required,max=12"`
	TotalPremium float64  `json:"total_premium" validate:"required,gt=0"`
	Days         int      `json:"days" default:"30" validate:"gte=1"`
	Tickers      []string `json:"tickers" validate:"omitempty,max=2,dive,required"`
}

type dayQuery struct {
	Date string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func jsonContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestReadAndValidateReportsClientFieldNames(t *testing.T) {
	c, _ := jsonContext(http.MethodPost, "/", `{"ticker":"AAPL","tickers":["A",""]}`)
	req := &premiumRequest{}

	verr := ReadAndValidateRequest(c, req)
	require.NotNil(t, verr)
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	require.Contains(t, byField, "total_premium")
	assert.Equal(t, "ERR_REQUIRED", byField["total_premium"].Code)
	assert.Equal(t, "total_premium is required", byField["total_premium"].Message)
	require.Contains(t, byField, "tickers[1]")
	assert.Equal(t, 30, req.Days)
}

func TestReadAndValidateDateLayout(t *testing.T) {
	c, _ := jsonContext(http.MethodGet, "/?date=05-08-2024", "")
	verr := ReadAndValidateRequest(c, &dayQuery{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "date", errs[0].Field)
	assert.Equal(t, "ERR_DATETIME", errs[0].Code)
	assert.Equal(t, "2006-01-02", errs[0].Params["layout"])

	c, _ = jsonContext(http.MethodGet, "/?date=2024-05-08", "")
	assert.Nil(t, ReadAndValidateRequest(c, &dayQuery{}))
}

func TestReadAndValidateBindError(t *testing.T) {
	c, _ := jsonContext(http.MethodPost, "/", `{"ticker":`)
	errs, ok := ReadAndValidateRequest(c, &premiumRequest{}).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}

var errQuota = errors.New("quota exhausted")

func TestMapError(t *testing.T) {
	rules := []ErrorRule{
		{Target: errQuota, Build: func(error) *AppError { return TooManyRequestsError("quota exhausted") }},
		{Target: context.DeadlineExceeded, Build: func(error) *AppError { return BadGatewayError("request timed out") }},
	}

	got := MapError(fmt.Errorf("fetch: %w", errQuota), rules...)
	assert.Equal(t, http.StatusTooManyRequests, got.Status)
	assert.ErrorIs(t, got, errQuota)

	got = MapError(fmt.Errorf("x: %w", context.DeadlineExceeded), rules...)
	assert.Equal(t, "ERR_UPSTREAM", got.Code)

	explicit := BadRequestError("bad ticker")
	assert.Same(t, explicit, MapError(fmt.Errorf("wrapped: %w", explicit), rules...))

	got = MapError(errors.New("secret dsn"), rules...)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.NotContains(t, got.Message, "secret")
}

func TestAppErrorResponseEnvelope(t *testing.T) {
	c, rec := jsonContext(http.MethodGet, "/", "")
	require.NoError(t, AppErrorResponse(c, BadGatewayError("market data provider unavailable")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var env struct {
		Status  int        `json:"status"`
		Message string     `json:"message"`
		Data    []AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusBadGateway, env.Status)
	assert.Equal(t, "Bad Gateway", env.Message)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "ERR_UPSTREAM", env.Data[0].Code)
}
