package models

// Requests for the HTTP endpoints. Defaults and validation tags are applied by pkg/http.

type ScreenRequest struct {
	Date      string  `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	MinRatio  float64 `query:"min_ratio" json:"min_ratio" validate:"gte=0"`
	MinPrice  float64 `query:"min_price" json:"min_price" validate:"gte=0"`
	MinValue  float64 `query:"min_value" json:"min_value" validate:"gte=0"`
	Limit     int     `query:"limit" json:"limit" validate:"gte=0,lte=500"`
	NoSignals bool    `query:"no_signals" json:"no_signals"`
}

type BaselineRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=12"`
	Date   string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	Window int    `query:"window" json:"window" default:"7" validate:"gte=1,lte=365"`
}

type BacktestRequest struct {
	Ticker           string  `json:"ticker" validate:"required,max=12"`
	StrikePrice      float64 `json:"strike_price" validate:"gte=0"`
	TotalPremium     float64 `json:"total_premium" validate:"required,gt=0"`
	CurrentPrice     float64 `json:"current_price" validate:"gte=0"`
	DaysToExpiration int     `json:"days_to_expiration" validate:"gte=0,lte=365"`
	LookbackDays     int     `json:"lookback_days" validate:"gte=0,lte=3650"`
}

type PipelineRequest struct {
	Date       string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	MaxTickers int     `json:"max_tickers" validate:"gte=0,lte=500"`
	MinValue   float64 `json:"min_value" validate:"gte=0"`
	Notify     *bool   `json:"notify"`
}

type IngestRequest struct {
	Date    string   `json:"date" validate:"required,datetime=2006-01-02"`
	Tickers []string `json:"tickers" validate:"required,min=1,max=500,dive,required,max=12"`
}
