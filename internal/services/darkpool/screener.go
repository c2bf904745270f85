package darkpool

import (
	"sort"

	"DarkPull/internal/domain/models"
)

// Screen keeps the tickers whose volume ratio, average price and value all clear
// the criteria, ranked by ratio (stable) and truncated to MaxResults when positive.
// Tickers with a missing or zero baseline are dropped.
func Screen(today []models.DailyTickerStat, baselines map[string]models.BaselineWindow, c models.ScreenCriteria) []models.ActivitySignal {
	out := make([]models.ActivitySignal, 0)
	for _, s := range today {
		b, ok := baselines[s.Ticker]
		if !ok || !b.HasData() {
			continue
		}
		ratio := float64(s.TotalVolume) / *b.AvgDailyVolume
		if ratio < c.MinRatio || s.AvgPrice < c.MinPrice || s.TotalValue < c.MinTotalValue {
			continue
		}
		out = append(out, models.ActivitySignal{
			Ticker:      s.Ticker,
			Date:        s.Date,
			VolumeRatio: ratio,
			TodayVolume: s.TotalVolume,
			TotalValue:  s.TotalValue,
			AvgPrice:    s.AvgPrice,
			MinPrice:    s.MinPrice,
			MaxPrice:    s.MaxPrice,
			Baseline:    b,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VolumeRatio > out[j].VolumeRatio
	})
	if c.MaxResults > 0 && len(out) > c.MaxResults {
		out = out[:c.MaxResults]
	}
	return out
}
