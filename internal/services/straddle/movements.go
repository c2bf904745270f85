package straddle

import (
	"sort"

	"DarkPull/internal/domain/models"
)

// Movements slides a window of holdingDays trading sessions over the series
// and records the close-to-close move of every (overlapping) window.
// Points with a non-positive close are ignored.
func Movements(series []models.PricePoint, holdingDays int) []models.HistoricalMovement {
	if holdingDays <= 0 {
		return nil
	}
	points := make([]models.PricePoint, 0, len(series))
	for _, p := range series {
		if p.Close > 0 {
			points = append(points, p)
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	if len(points) <= holdingDays {
		return nil
	}
	out := make([]models.HistoricalMovement, 0, len(points)-holdingDays)
	for i := 0; i+holdingDays < len(points); i++ {
		start, end := points[i], points[i+holdingDays]
		out = append(out, models.HistoricalMovement{
			StartDate:   start.Date,
			EndDate:     end.Date,
			StartPrice:  start.Close,
			EndPrice:    end.Close,
			PercentMove: (end.Close - start.Close) / start.Close,
		})
	}
	return out
}
