package darkpool

import "DarkPull/internal/domain/models"

// DefaultVenueCode is the provider exchange code for FINRA trade reporting facilities.
const DefaultVenueCode = 4

// Predicate decides whether a trade printed off-exchange.
type Predicate func(t models.Trade) bool

// VenuePredicate reports dark-pool prints as venue == code with a reporting facility id present.
func VenuePredicate(code int) Predicate {
	return func(t models.Trade) bool {
		return t.VenueCode == code && t.HasTRF()
	}
}

// IsDarkPool applies the default venue rule.
func IsDarkPool(t models.Trade) bool {
	return t.VenueCode == DefaultVenueCode && t.HasTRF()
}
