package straddle

import (
	"math/rand"
	"time"

	"DarkPull/internal/domain/models"
)

// SyntheticConfig parameterises the placeholder random walk.
type SyntheticConfig struct {
	StartPrice    float64
	DailyVol      float64 // standard deviation of daily returns
	MeanReversion float64 // pull per day toward StartPrice, fraction of the gap
	Days          int
	End           time.Time
}

// SyntheticSeries generates a weakly mean-reverting random walk of daily
// closes ending at End. It stands in for missing history only; results
// derived from it must be tagged synthetic.
func SyntheticSeries(cfg SyntheticConfig, rng *rand.Rand) []models.PricePoint {
	if cfg.Days <= 0 || cfg.StartPrice <= 0 {
		return nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	start := cfg.End.AddDate(0, 0, -(cfg.Days - 1))
	price := cfg.StartPrice
	out := make([]models.PricePoint, 0, cfg.Days)
	for i := 0; i < cfg.Days; i++ {
		out = append(out, models.PricePoint{Date: start.AddDate(0, 0, i), Close: price})
		drift := cfg.MeanReversion * (cfg.StartPrice - price) / cfg.StartPrice
		price *= 1 + drift + cfg.DailyVol*rng.NormFloat64()
		if price <= 0.01 {
			price = 0.01
		}
	}
	return out
}
