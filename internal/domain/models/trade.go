package models

import "time"

// Trade is a single reported print as delivered by the market-data provider.
// Size and Price are zero when the upstream record omitted them.
type Trade struct {
	Ticker    string
	VenueCode int
	TRFID     *string // trade reporting facility id, nil when absent
	Size      int64
	Price     float64
	Timestamp time.Time
}

// HasTRF reports whether a non-empty reporting facility id is present.
func (t Trade) HasTRF() bool {
	return t.TRFID != nil && *t.TRFID != ""
}

// PricePoint is one daily close in a price series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}
