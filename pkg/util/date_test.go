package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeUnixNanos(t *testing.T) {
	want := time.Date(2024, 10, 10, 14, 30, 0, 123, time.UTC)
	got, ok := ParseTime(strconv.FormatInt(want.UnixNano(), 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestFormatDateUsesLocation(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	ts := time.Date(2024, 3, 5, 2, 0, 0, 0, time.UTC)
	if got := FormatDate(ts, ny); got != "2024-03-04" {
		t.Fatalf("got %s", got)
	}
	if got := FormatDate(ts, nil); got != "2024-03-05" {
		t.Fatalf("got %s", got)
	}
}

func TestWindowDatesExcludesAsOf(t *testing.T) {
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got := WindowDates(asOf, 3)
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29"}
	if len(got) != len(want) {
		t.Fatalf("len %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %s want %s", i, got[i], want[i])
		}
	}
	if WindowDates(asOf, 0) != nil {
		t.Fatalf("expected nil for empty window")
	}
}

func TestNormalizeTickers(t *testing.T) {
	got := NormalizeTickers([]string{" aapl", "MSFT", "aapl ", ""})
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Fatalf("unexpected %v", got)
	}
}
