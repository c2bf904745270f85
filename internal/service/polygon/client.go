package polygon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"DarkPull/internal/domain/models"
	drepo "DarkPull/internal/domain/repository"
	xhttp "DarkPull/pkg/http"
	applogger "DarkPull/pkg/logger"
	"DarkPull/pkg/retry"
	xutil "DarkPull/pkg/util"

	"golang.org/x/time/rate"
)

// Client implements MarketData against the Polygon REST API.
// Non-retryable upstream failures are returned as retry.Permanent.
type Client struct {
	http      *xhttp.Client
	baseURL   string
	apiKey    string
	limiter   *rate.Limiter
	pageLimit int
	maxPages  int
	metrics   drepo.Metrics
	l         *applogger.Logger
}

type Option func(*Client)

// WithRateLimit caps outgoing requests. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithPaging sets the page size and the maximum pages followed per request.
func WithPaging(limit, maxPages int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.pageLimit = limit
		}
		if maxPages > 0 {
			c.maxPages = maxPages
		}
	}
}

func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.l = l
		}
	}
}

// New creates a Polygon client.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:      xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		baseURL:   baseURL,
		apiKey:    apiKey,
		limiter:   rate.NewLimiter(rate.Limit(5), 5),
		pageLimit: 50000,
		maxPages:  200,
		metrics:   drepo.NopMetrics{},
		l:         applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ drepo.MarketData = (*Client)(nil)

// StreamTrades reads the ticker's trades for the given calendar date one
// /v3/trades page at a time, following next_url.
func (c *Client) StreamTrades(ticker string, date time.Time) drepo.TradeSource {
	return newTradesSource(c, ticker, date)
}

// FetchDailyPriceSeries returns daily closes in [from, to], oldest first.
func (c *Client) FetchDailyPriceSeries(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	ticker = xutil.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, retry.Permanent(fmt.Errorf("%w: ticker is required", models.ErrInvalidInput))
	}
	start := time.Now()
	u := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s",
		c.baseURL, url.PathEscape(ticker), from.Format(xutil.DateLayout), to.Format(xutil.DateLayout))
	params := map[string][]string{
		"adjusted": {"true"},
		"sort":     {"asc"},
		"limit":    {strconv.Itoa(c.pageLimit)},
	}

	var resp aggsResponse
	if err := c.get(ctx, "aggs", u, params, &resp); err != nil {
		return nil, err
	}
	out := make([]models.PricePoint, 0, len(resp.Results))
	for _, b := range resp.Results {
		if b.Close == nil || *b.Close <= 0 || b.Timestamp == 0 {
			continue
		}
		out = append(out, models.PricePoint{Date: time.UnixMilli(b.Timestamp).UTC(), Close: *b.Close})
	}
	c.metrics.RecordLatency("provider_aggs", time.Since(start).Seconds())
	return out, nil
}

func (c *Client) get(ctx context.Context, op, u string, params map[string][]string, dest any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         u,
		Headers:     map[string]string{"Authorization": "Bearer " + c.apiKey},
		QueryParams: params,
	}, dest)
	if err == nil {
		c.metrics.RecordProviderCall(op, "ok")
		return nil
	}
	if ctx.Err() != nil {
		c.metrics.RecordProviderCall(op, "cancelled")
		return ctx.Err()
	}

	c.metrics.RecordProviderCall(op, "error")
	wrapped := fmt.Errorf("%w: %s: %v", models.ErrUpstreamUnavailable, op, err)
	var se *xhttp.StatusError
	if errors.As(err, &se) && !se.Retryable() {
		return retry.Permanent(wrapped)
	}
	return wrapped
}
