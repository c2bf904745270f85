package repository

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) RecordTrades(string, int) {}
func (NopMetrics) RecordProviderCall(string, string) {}
func (NopMetrics) RecordStep(string, bool, float64) {}
func (NopMetrics) RecordBacktest(string) {}
func (NopMetrics) RecordNotification(string, bool) {}
func (NopMetrics) RecordError(string) {}
func (NopMetrics) RecordLatency(string, float64) {}
