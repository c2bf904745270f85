package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"DarkPull/internal/domain/models"
	domrepo "DarkPull/internal/domain/repository"
	pkgch "DarkPull/pkg/clickhouse"
	applogger "DarkPull/pkg/logger"
)

// dateMarker is written with every put so an empty date still reads back as found.
const dateMarker = ""

// CHAggregateStore implements AggregateStore backed by ClickHouse. Every Put
// writes a new version of the date; Get reads only the newest version.
type CHAggregateStore struct {
	ch    *pkgch.Client
	table string
	now   func() time.Time
	l     *applogger.Logger
}

func NewCHAggregateStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHAggregateStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHAggregateStore{ch: ch, table: table, now: time.Now, l: l}
}

var _ domrepo.AggregateStore = (*CHAggregateStore)(nil)

// Schema returns the DDL for the store table.
func (s *CHAggregateStore) Schema() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            date         Date,
            ticker       LowCardinality(String),
            version      UInt64,
            total_volume Int64,
            trade_count  Int64,
            total_value  Float64,
            min_price    Float64,
            max_price    Float64,
            avg_price    Float64
        )
        ENGINE = ReplacingMergeTree(version)
        ORDER BY (date, ticker)
    `, s.table)}
}

func (s *CHAggregateStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, s.Schema())
}

func (s *CHAggregateStore) Get(ctx context.Context, date string) (models.DailyStats, bool, error) {
	start := time.Now()
	const qtpl = `
        SELECT ticker, total_volume, trade_count, total_value, min_price, max_price, avg_price
        FROM %[1]s FINAL
        WHERE date = ? AND version = (SELECT max(version) FROM %[1]s WHERE date = ?)
    `
	rows, err := s.ch.DB().QueryContext(ctx, fmt.Sprintf(qtpl, s.table), date, date)
	if err != nil {
		s.l.Error("clickhouse aggregate query error", applogger.String("date", date), applogger.Error(err))
		return nil, false, fmt.Errorf("get aggregate %s: %w", date, err)
	}
	defer rows.Close()

	stats, found, err := scanStats(rows, date)
	if err != nil {
		return nil, false, err
	}
	s.l.Debug("clickhouse aggregate get",
		applogger.String("date", date),
		applogger.Int("tickers", len(stats)),
		applogger.Bool("found", found),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return stats, found, nil
}

func (s *CHAggregateStore) Put(ctx context.Context, date string, stats models.DailyStats) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("%w: date %q", models.ErrInvalidInput, date)
	}
	q := fmt.Sprintf(`INSERT INTO %s (date, ticker, version, total_volume, trade_count, total_value, min_price, max_price, avg_price) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	if err := s.ch.InsertBatch(ctx, q, statsRows(day, uint64(s.now().UnixNano()), stats)); err != nil {
		s.l.Error("clickhouse aggregate insert error", applogger.String("date", date), applogger.Error(err))
		return fmt.Errorf("put aggregate %s: %w", date, err)
	}
	return nil
}

func statsRows(day time.Time, version uint64, stats models.DailyStats) [][]any {
	rows := make([][]any, 0, len(stats)+1)
	rows = append(rows, []any{day, dateMarker, version, int64(0), int64(0), 0.0, 0.0, 0.0, 0.0})
	for ticker, st := range stats {
		if ticker == dateMarker {
			continue
		}
		rows = append(rows, []any{day, ticker, version, st.TotalVolume, st.TradeCount, st.TotalValue, st.MinPrice, st.MaxPrice, st.AvgPrice})
	}
	return rows
}

func scanStats(rows *sql.Rows, date string) (models.DailyStats, bool, error) {
	stats := models.DailyStats{}
	found := false
	for rows.Next() {
		var st models.DailyTickerStat
		if err := rows.Scan(&st.Ticker, &st.TotalVolume, &st.TradeCount, &st.TotalValue, &st.MinPrice, &st.MaxPrice, &st.AvgPrice); err != nil {
			return nil, false, fmt.Errorf("scan aggregate: %w", err)
		}
		found = true
		if st.Ticker == dateMarker {
			continue
		}
		st.Date = date
		stats[st.Ticker] = st
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("rows: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return stats, true, nil
}
