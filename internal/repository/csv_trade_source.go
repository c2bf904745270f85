package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"DarkPull/internal/domain/models"
	xutil "DarkPull/pkg/util"
)

var csvColumns = []string{"ticker", "venue", "trf_id", "size", "price", "timestamp"}

// CSVTradeSource streams trades from a CSV export with a header row naming
// ticker, venue, trf_id, size, price and timestamp (any order, extra columns ignored).
// Rows without a ticker or a parseable timestamp are skipped.
type CSVTradeSource struct {
	r       *csv.Reader
	idx     map[string]int
	line    int
	skipped int
}

func NewCSVTradeSource(r io.Reader) (*CSVTradeSource, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["exchange"]; ok {
		if _, has := idx["venue"]; !has {
			idx["venue"] = idx["exchange"]
		}
	}
	for _, col := range []string{"ticker", "timestamp"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: csv header missing %q (want %s)", models.ErrInvalidInput, col, strings.Join(csvColumns, ","))
		}
	}
	return &CSVTradeSource{r: cr, idx: idx, line: 1}, nil
}

// Skipped reports how many rows were dropped as unusable.
func (s *CSVTradeSource) Skipped() int { return s.skipped }

func (s *CSVTradeSource) Next(ctx context.Context, max int) ([]models.Trade, error) {
	if max <= 0 {
		max = 1
	}
	out := make([]models.Trade, 0, max)
	for len(out) < max {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rec, err := s.r.Read()
		if errors.Is(err, io.EOF) {
			return out, io.EOF
		}
		s.line++
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return out, fmt.Errorf("csv line %d: %w", s.line, err)
			}
			s.skipped++
			continue
		}
		t, ok := s.parse(rec)
		if !ok {
			s.skipped++
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *CSVTradeSource) parse(rec []string) (models.Trade, bool) {
	ticker := xutil.NormalizeTicker(s.field(rec, "ticker"))
	ts, ok := xutil.ParseTime(s.field(rec, "timestamp"))
	if ticker == "" || !ok {
		return models.Trade{}, false
	}
	t := models.Trade{
		Ticker:    ticker,
		VenueCode: xutil.ParseIntDefault(s.field(rec, "venue"), 0),
		Price:     xutil.ParseFloatDefault(s.field(rec, "price"), 0),
		Timestamp: ts,
	}
	if size, err := strconv.ParseFloat(s.field(rec, "size"), 64); err == nil && size > 0 {
		t.Size = int64(size)
	}
	if trf := s.field(rec, "trf_id"); trf != "" {
		t.TRFID = &trf
	}
	return t, true
}

func (s *CSVTradeSource) field(rec []string, col string) string {
	i, ok := s.idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
