package polygon

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"DarkPull/internal/domain/models"
	applogger "DarkPull/pkg/logger"
	"DarkPull/pkg/retry"
	xutil "DarkPull/pkg/util"
)

// TradesSource holds at most one decoded page in memory.
type TradesSource struct {
	c      *Client
	ticker string
	date   time.Time
	next   string
	params map[string][]string
	err    error

	buf     []models.Trade
	pages   int
	count   int
	skipped int
	started time.Time
	done    bool
}

func newTradesSource(c *Client, ticker string, date time.Time) *TradesSource {
	ticker = xutil.NormalizeTicker(ticker)
	s := &TradesSource{c: c, ticker: ticker, date: date}
	if ticker == "" {
		s.err = retry.Permanent(fmt.Errorf("%w: ticker is required", models.ErrInvalidInput))
		return s
	}
	s.next = fmt.Sprintf("%s/v3/trades/%s", c.baseURL, url.PathEscape(ticker))
	s.params = map[string][]string{
		"timestamp": {date.Format(xutil.DateLayout)},
		"order":     {"asc"},
		"sort":      {"timestamp"},
		"limit":     {strconv.Itoa(c.pageLimit)},
	}
	return s
}

// Next hands out the buffered page in chunks of at most max trades and
// fetches the following page once the buffer is empty.
func (s *TradesSource) Next(ctx context.Context, max int) ([]models.Trade, error) {
	if s.err != nil {
		return nil, s.err
	}
	for len(s.buf) == 0 {
		if s.next == "" {
			s.finish()
			return nil, io.EOF
		}
		if s.pages >= s.c.maxPages {
			s.c.l.Warn("trades pagination truncated",
				applogger.String("ticker", s.ticker),
				applogger.Int("pages", s.pages),
			)
			s.next = ""
			continue
		}
		if err := s.fetch(ctx); err != nil {
			return nil, err
		}
	}
	if max <= 0 || max > len(s.buf) {
		max = len(s.buf)
	}
	chunk := s.buf[:max:max]
	s.buf = s.buf[max:]
	return chunk, nil
}

func (s *TradesSource) fetch(ctx context.Context) error {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	var resp tradesResponse
	if err := s.c.get(ctx, "trades", s.next, s.params, &resp); err != nil {
		return err
	}
	s.pages++
	s.buf = make([]models.Trade, 0, len(resp.Results))
	for _, r := range resp.Results {
		t, ok := r.toTrade(s.ticker)
		if !ok {
			s.skipped++
			continue
		}
		s.buf = append(s.buf, t)
	}
	s.count += len(s.buf)
	// next_url already carries the cursor and the original filters
	s.next, s.params = resp.NextURL, nil
	return nil
}

func (s *TradesSource) finish() {
	if s.done {
		return
	}
	s.done = true
	if !s.started.IsZero() {
		s.c.metrics.RecordLatency("provider_trades", time.Since(s.started).Seconds())
	}
	s.c.l.Debug("streamed trades",
		applogger.String("ticker", s.ticker),
		applogger.String("date", s.date.Format(xutil.DateLayout)),
		applogger.Int("pages", s.pages),
		applogger.Int("count", s.count),
		applogger.Int("skipped", s.skipped),
	)
}
