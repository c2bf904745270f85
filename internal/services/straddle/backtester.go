package straddle

import (
	"fmt"
	"math"
	"strings"

	"DarkPull/internal/domain/models"
)

// maxAbsMove drops windows that more than doubled or wiped out; they are data errors.
const maxAbsMove = 1.0

// Quality thresholds by sample count.
const (
	highSamples   = 50
	mediumSamples = 20
	lowSamples    = 5
)

// NewScenario validates the inputs and fills in the breakevens. A zero strike
// falls back to the current price.
func NewScenario(ticker string, strike, premium, current float64, days int) (models.StraddleScenario, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return models.StraddleScenario{}, fmt.Errorf("%w: ticker is required", models.ErrInvalidInput)
	}
	if premium <= 0 || math.IsNaN(premium) {
		return models.StraddleScenario{}, fmt.Errorf("%w: total premium is required", models.ErrInvalidInput)
	}
	if strike <= 0 {
		strike = current
	}
	if strike <= 0 {
		return models.StraddleScenario{}, fmt.Errorf("%w: strike or current price is required", models.ErrInvalidInput)
	}
	if current <= 0 {
		current = strike
	}
	if days <= 0 {
		return models.StraddleScenario{}, fmt.Errorf("%w: days to expiration must be positive", models.ErrInvalidInput)
	}
	return models.StraddleScenario{
		Ticker:           ticker,
		StrikePrice:      strike,
		TotalPremium:     premium,
		CurrentPrice:     current,
		DaysToExpiration: days,
		UpperBreakeven:   strike + premium,
		LowerBreakeven:   strike - premium,
	}, nil
}

// Quality grades a sample count.
func Quality(samples int) models.DataQuality {
	switch {
	case samples >= highSamples:
		return models.DataQualityHigh
	case samples >= mediumSamples:
		return models.DataQualityMedium
	case samples >= lowSamples:
		return models.DataQualityLow
	case samples > 0:
		return models.DataQualityLimited
	default:
		return models.DataQualityNone
	}
}

// Evaluate counts how often the scenario's short straddle would have finished
// inside its breakevens over the given moves. Rates are percentages.
// Results built from synthetic prices never grade above limited.
func Evaluate(s models.StraddleScenario, moves []models.HistoricalMovement, source models.DataSource, profitableThreshold float64) (models.BacktestResult, error) {
	if s.Ticker == "" {
		return models.BacktestResult{}, fmt.Errorf("%w: ticker is required", models.ErrInvalidInput)
	}
	if s.TotalPremium <= 0 {
		return models.BacktestResult{}, fmt.Errorf("%w: total premium is required", models.ErrInvalidInput)
	}
	if s.StrikePrice <= 0 {
		return models.BacktestResult{}, fmt.Errorf("%w: strike price is required", models.ErrInvalidInput)
	}

	res := models.BacktestResult{
		Scenario:          s,
		UpperBreakevenPct: s.TotalPremium / s.StrikePrice,
		LowerBreakevenPct: -s.TotalPremium / s.StrikePrice,
		Source:            source,
	}

	valid := make([]models.HistoricalMovement, 0, len(moves))
	for _, m := range moves {
		if math.Abs(m.PercentMove) <= maxAbsMove {
			valid = append(valid, m)
		}
	}
	if len(valid) == 0 {
		valid = moves
	}
	res.OutliersDropped = len(moves) - len(valid)

	for _, m := range valid {
		switch {
		case m.PercentMove > res.UpperBreakevenPct:
			res.AboveUpperCount++
		case m.PercentMove < res.LowerBreakevenPct:
			res.BelowLowerCount++
		default:
			res.InProfitZoneCount++
		}
	}

	res.TotalSamples = len(valid)
	res.DataQuality = Quality(res.TotalSamples)
	if res.TotalSamples > 0 {
		n := float64(res.TotalSamples)
		res.ProfitableRate = float64(res.InProfitZoneCount) / n * 100
		res.LossRate = float64(res.AboveUpperCount+res.BelowLowerCount) / n * 100
	}
	if source == models.SourceSynthetic && res.TotalSamples > 0 {
		res.DataQuality = models.DataQualityLimited
	}
	res.Profitable = res.TotalSamples > 0 && res.ProfitableRate >= profitableThreshold
	return res, nil
}
