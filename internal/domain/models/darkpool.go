package models

import "time"

// DailyTickerStat aggregates all dark-pool prints of one ticker on one trading date.
type DailyTickerStat struct {
	Ticker      string  `json:"ticker"`
	Date        string  `json:"date"`
	TotalVolume int64   `json:"total_volume"`
	TradeCount  int64   `json:"trade_count"`
	TotalValue  float64 `json:"total_value"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	AvgPrice    float64 `json:"avg_price"`
}

// DailyStats is the per-date payload of the aggregate store keyed by ticker.
type DailyStats map[string]DailyTickerStat

// BaselineWindow is a trailing average over [AsOfDate-WindowDays, AsOfDate).
// Averages are nil when no day in the window had data.
type BaselineWindow struct {
	Ticker         string   `json:"ticker"`
	AsOfDate       string   `json:"as_of_date"`
	WindowDays     int      `json:"window_days"`
	AvgDailyVolume *float64 `json:"avg_daily_volume"`
	AvgDailyValue  *float64 `json:"avg_daily_value"`
	DaysWithData   int      `json:"days_with_data"`
}

// HasData reports whether the baseline can be used as a ratio denominator.
func (b BaselineWindow) HasData() bool {
	return b.DaysWithData > 0 && b.AvgDailyVolume != nil && *b.AvgDailyVolume > 0
}

type Severity string

const (
	SeverityNone  Severity = ""
	SeverityWatch Severity = "WATCH"
	SeverityWarm  Severity = "WARM"
	SeverityHot   Severity = "HOT"
)

type SignalKind string

const (
	SignalVolumeSpike   SignalKind = "VOLUME_SPIKE"
	SignalAccumulation  SignalKind = "ACCUMULATION"
	SignalBreakoutSetup SignalKind = "BREAKOUT_SETUP"
	SignalDistribution  SignalKind = "DISTRIBUTION"
)

// Signal is one named pattern detected for a ticker.
type Signal struct {
	Kind    SignalKind `json:"kind"`
	Tier    Severity   `json:"tier"`
	Message string     `json:"message"`
}

// ActivitySignal is a screened ticker with its ratio and classification.
type ActivitySignal struct {
	Ticker       string          `json:"ticker"`
	Date         string          `json:"date"`
	VolumeRatio  float64         `json:"volume_ratio"`
	Severity     Severity        `json:"severity"`
	Signals      []Signal        `json:"signals,omitempty"`
	TodayVolume  int64           `json:"today_volume"`
	TotalValue   float64         `json:"total_value"`
	AvgPrice     float64         `json:"avg_price"`
	MinPrice     float64         `json:"min_price"`
	MaxPrice     float64         `json:"max_price"`
	Baseline     BaselineWindow  `json:"baseline"`
	LongBaseline *BaselineWindow `json:"long_baseline,omitempty"`
	RecentRatios []float64       `json:"recent_ratios,omitempty"`
}

// ScreenCriteria are the thresholds an ActivitySignal must satisfy.
type ScreenCriteria struct {
	MinRatio      float64 `json:"min_ratio"`
	MinPrice      float64 `json:"min_price"`
	MinTotalValue float64 `json:"min_total_value"`
	MaxResults    int     `json:"max_results"`
}

// ScreeningResult is the output of one screening run.
type ScreeningResult struct {
	Date       string           `json:"date"`
	Criteria   ScreenCriteria   `json:"criteria"`
	Candidates int              `json:"candidates"`
	NoData     bool             `json:"no_data"`
	Signals    []ActivitySignal `json:"signals"`
	ComputedAt time.Time        `json:"computed_at"`
}
