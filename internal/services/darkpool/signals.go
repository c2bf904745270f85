package darkpool

import (
	"fmt"
	"time"

	"DarkPull/internal/domain/models"
	"DarkPull/pkg/util"

	"github.com/shopspring/decimal"
)

const (
	hotRatio   = 3.0
	warmRatio  = 2.0
	watchRatio = 1.5

	accumulationRatio = 1.2
	accumulationDays  = 3

	patternRatio    = 2.0
	breakoutFactor  = 0.95
	distributionFac = 1.05
)

// SignalInput carries what the classifier needs for one ticker.
// MinPrice and MaxPrice are nil when the day's price extremes are unknown.
type SignalInput struct {
	Ticker       string
	Ratio        float64
	RecentRatios []float64 // oldest first
	AvgPrice     float64
	MinPrice     *float64
	MaxPrice     *float64
	TotalValue   float64
}

// Tier maps a volume ratio to its severity.
func Tier(ratio float64) models.Severity {
	switch {
	case ratio >= hotRatio:
		return models.SeverityHot
	case ratio >= warmRatio:
		return models.SeverityWarm
	case ratio >= watchRatio:
		return models.SeverityWatch
	default:
		return models.SeverityNone
	}
}

// Classify returns the ratio tier and every pattern that fired. A ratio
// below the WATCH tier yields no signals at all.
func Classify(in SignalInput) (models.Severity, []models.Signal) {
	tier := Tier(in.Ratio)
	if tier == models.SeverityNone {
		return models.SeverityNone, nil
	}

	signals := []models.Signal{{
		Kind:    models.SignalVolumeSpike,
		Tier:    tier,
		Message: fmt.Sprintf("%s dark pool volume %.1fx above baseline (%s traded)", in.Ticker, in.Ratio, formatDollars(in.TotalValue)),
	}}

	if accumulating(in.RecentRatios) {
		signals = append(signals, models.Signal{
			Kind:    models.SignalAccumulation,
			Tier:    tier,
			Message: fmt.Sprintf("%s sustained dark pool buying: %d consecutive days above %.1fx", in.Ticker, accumulationDays, accumulationRatio),
		})
	}

	if in.Ratio < patternRatio {
		return tier, signals
	}

	if in.MaxPrice != nil && *in.MaxPrice > 0 {
		high := *in.MaxPrice
		if in.AvgPrice >= breakoutFactor*high {
			signals = append(signals, models.Signal{
				Kind:    models.SignalBreakoutSetup,
				Tier:    models.SeverityHot,
				Message: fmt.Sprintf("%s prints clustered near the high ($%.2f avg vs $%.2f high)", in.Ticker, in.AvgPrice, high),
			})
		}
	}

	if in.MinPrice != nil && *in.MinPrice > 0 {
		low := *in.MinPrice
		if in.AvgPrice <= distributionFac*low {
			signals = append(signals, models.Signal{
				Kind:    models.SignalDistribution,
				Tier:    models.SeverityWarm,
				Message: fmt.Sprintf("%s prints clustered near the low ($%.2f avg vs $%.2f low)", in.Ticker, in.AvgPrice, low),
			})
		}
	}

	return tier, signals
}

// accumulating requires the most recent accumulationDays ratios to all exceed the threshold.
func accumulating(recent []float64) bool {
	if len(recent) < accumulationDays {
		return false
	}
	for _, r := range recent[len(recent)-accumulationDays:] {
		if r <= accumulationRatio {
			return false
		}
	}
	return true
}

// RecentRatios computes each of the recentDays days before asOf as its own
// volume over its trailing windowDays baseline. Days without a record or
// without a usable baseline are skipped. Oldest first.
func RecentRatios(ticker string, asOf time.Time, recentDays, windowDays int, lookup Lookup) []float64 {
	ticker = util.NormalizeTicker(ticker)
	var out []float64
	for i := recentDays; i >= 1; i-- {
		day := asOf.AddDate(0, 0, -i)
		s, ok := lookup(day.Format(util.DateLayout), ticker)
		if !ok {
			continue
		}
		b := Baseline(ticker, day, windowDays, lookup)
		if !b.HasData() {
			continue
		}
		out = append(out, float64(s.TotalVolume)/ *b.AvgDailyVolume)
	}
	return out
}

// Annotate classifies every screened signal in place.
func Annotate(signals []models.ActivitySignal) {
	for i := range signals {
		s := &signals[i]
		in := SignalInput{
			Ticker:       s.Ticker,
			Ratio:        s.VolumeRatio,
			RecentRatios: s.RecentRatios,
			AvgPrice:     s.AvgPrice,
			TotalValue:   s.TotalValue,
		}
		if s.MaxPrice > 0 {
			in.MinPrice = &s.MinPrice
			in.MaxPrice = &s.MaxPrice
		}
		s.Severity, s.Signals = Classify(in)
	}
}

func formatDollars(v float64) string {
	d := decimal.NewFromFloat(v)
	switch {
	case v >= 1e9:
		return "$" + d.Div(decimal.NewFromInt(1e9)).StringFixed(2) + "B"
	case v >= 1e6:
		return "$" + d.Div(decimal.NewFromInt(1e6)).StringFixed(1) + "M"
	default:
		return "$" + d.StringFixed(0)
	}
}
