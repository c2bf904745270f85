package darkpool

import (
	"sort"
	"time"

	"DarkPull/internal/domain/models"
	"DarkPull/pkg/util"
)

// Lookup returns the stat recorded for ticker on date, if any.
type Lookup func(date, ticker string) (models.DailyTickerStat, bool)

// History is a loaded slice of the aggregate store keyed by date.
type History map[string]models.DailyStats

// Stat implements Lookup.
func (h History) Stat(date, ticker string) (models.DailyTickerStat, bool) {
	day, ok := h[date]
	if !ok {
		return models.DailyTickerStat{}, false
	}
	s, ok := day[ticker]
	return s, ok
}

// Tickers returns the tickers recorded on date, sorted.
func (h History) Tickers(date string) []string {
	day := h[date]
	out := make([]string, 0, len(day))
	for t := range day {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Baseline averages ticker's volume and value over the calendar days in
// [asOf-windowDays, asOf), counting only days that have a record.
func Baseline(ticker string, asOf time.Time, windowDays int, lookup Lookup) models.BaselineWindow {
	ticker = util.NormalizeTicker(ticker)
	b := models.BaselineWindow{
		Ticker:     ticker,
		AsOfDate:   asOf.Format(util.DateLayout),
		WindowDays: windowDays,
	}
	if lookup == nil {
		return b
	}

	var volume, value float64
	for _, date := range util.WindowDates(asOf, windowDays) {
		s, ok := lookup(date, ticker)
		if !ok {
			continue
		}
		volume += float64(s.TotalVolume)
		value += s.TotalValue
		b.DaysWithData++
	}
	if b.DaysWithData == 0 {
		return b
	}

	avgVol := volume / float64(b.DaysWithData)
	avgVal := value / float64(b.DaysWithData)
	b.AvgDailyVolume = &avgVol
	b.AvgDailyValue = &avgVal
	return b
}
