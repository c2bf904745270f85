package straddle

import "math"

// TradingDaysPerYear annualises daily volatility.
const TradingDaysPerYear = 252

// atmFactor approximates an at-the-money straddle as 0.8 * S * sigma * sqrt(T).
const atmFactor = 0.8

// RealizedVol is the sample standard deviation of daily log returns of closes.
// It returns 0 when fewer than two returns are available.
func RealizedVol(closes []float64) float64 {
	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	if len(returns) < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss / float64(len(returns)-1))
}

// EstimatePremium prices an at-the-money straddle from daily volatility.
func EstimatePremium(spot, dailyVol float64, days int) float64 {
	if spot <= 0 || dailyVol <= 0 || days <= 0 {
		return 0
	}
	return atmFactor * spot * dailyVol * math.Sqrt(float64(days))
}

// DailyFromAnnual converts annualised volatility to daily.
func DailyFromAnnual(annual float64) float64 {
	return annual / math.Sqrt(TradingDaysPerYear)
}
