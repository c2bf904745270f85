package polygon

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"DarkPull/internal/domain/models"
)

type tradesResponse struct {
	Status  string        `json:"status"`
	Results []tradeRecord `json:"results"`
	NextURL string        `json:"next_url"`
}

// tradeRecord mirrors /v3/trades results. Every field may be missing.
type tradeRecord struct {
	Exchange     *int            `json:"exchange"`
	TRFID        json.RawMessage `json:"trf_id"`
	Size         *float64        `json:"size"`
	Price        *float64        `json:"price"`
	SIPTimestamp int64           `json:"sip_timestamp"`
	Participant  int64           `json:"participant_timestamp"`
}

// toTrade reports false for records without any timestamp; they cannot be
// assigned to a trading date.
func (r tradeRecord) toTrade(ticker string) (models.Trade, bool) {
	ts := r.SIPTimestamp
	if ts == 0 {
		ts = r.Participant
	}
	if ts <= 0 {
		return models.Trade{}, false
	}
	t := models.Trade{Ticker: ticker, TRFID: rawID(r.TRFID), Timestamp: time.Unix(0, ts).UTC()}
	if r.Exchange != nil {
		t.VenueCode = *r.Exchange
	}
	if r.Size != nil && *r.Size > 0 {
		t.Size = int64(*r.Size)
	}
	if r.Price != nil && *r.Price > 0 {
		t.Price = *r.Price
	}
	return t, true
}

// rawID turns a numeric or string JSON id into a string, nil when absent.
func rawID(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(raw), `"`)
	if s == "" {
		return nil
	}
	return &s
}

type aggsResponse struct {
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []struct {
		Close     *float64 `json:"c"`
		Timestamp int64    `json:"t"`
	} `json:"results"`
}
