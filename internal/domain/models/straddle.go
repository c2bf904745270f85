package models

import "time"

// StraddleScenario describes a short straddle centred on StrikePrice.
type StraddleScenario struct {
	Ticker           string  `json:"ticker"`
	StrikePrice      float64 `json:"strike_price"`
	TotalPremium     float64 `json:"total_premium"`
	CurrentPrice     float64 `json:"current_price"`
	DaysToExpiration int     `json:"days_to_expiration"`
	UpperBreakeven   float64 `json:"upper_breakeven"`
	LowerBreakeven   float64 `json:"lower_breakeven"`
}

// HistoricalMovement is the close-to-close move over one holding window.
type HistoricalMovement struct {
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	StartPrice  float64   `json:"start_price"`
	EndPrice    float64   `json:"end_price"`
	PercentMove float64   `json:"percent_move"`
}

type DataQuality string

const (
	DataQualityNone    DataQuality = "none"
	DataQualityLimited DataQuality = "limited"
	DataQualityLow     DataQuality = "low"
	DataQualityMedium  DataQuality = "medium"
	DataQualityHigh    DataQuality = "high"
)

type DataSource string

const (
	SourceHistorical DataSource = "historical"
	SourceSynthetic  DataSource = "synthetic"
)

// BacktestResult summarises how a scenario fared against historical moves.
type BacktestResult struct {
	Scenario          StraddleScenario `json:"scenario"`
	UpperBreakevenPct float64          `json:"upper_breakeven_pct"`
	LowerBreakevenPct float64          `json:"lower_breakeven_pct"`
	InProfitZoneCount int              `json:"in_profit_zone_count"`
	AboveUpperCount   int              `json:"above_upper_count"`
	BelowLowerCount   int              `json:"below_lower_count"`
	TotalSamples      int              `json:"total_samples"`
	OutliersDropped   int              `json:"outliers_dropped"`
	ProfitableRate    float64          `json:"profitable_rate"`
	LossRate          float64          `json:"loss_rate"`
	DataQuality       DataQuality      `json:"data_quality"`
	Source            DataSource       `json:"source"`
	Profitable        bool             `json:"profitable"`
}
