package logic

import (
	"errors"
	"testing"
	"time"
)

// scenarioRecords is the three-event schedule used across the package tests.
func scenarioRecords() []Record {
	return []Record{
		{Date: "01/01/2025", Hour: "08", State: "ON"},
		{Date: "01/01/2025", Hour: "20", State: "OFF"},
		{Date: "02/01/2025", Hour: "08", State: "ON"},
	}
}

func mustParse(t *testing.T, records []Record) Timeline {
	t.Helper()
	tl, err := Parse(records, time.UTC)
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	return tl
}

func at(day, hour int) time.Time {
	return time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC)
}

func TestParseScenario(t *testing.T) {
	tl := mustParse(t, scenarioRecords())

	if tl.Len() != 3 {
		t.Fatalf("expected 3 events, got %d", tl.Len())
	}
	if !tl.At(0).Instant.Equal(at(1, 8)) {
		t.Errorf("event 0: got %v, want %v", tl.At(0).Instant, at(1, 8))
	}
	if tl.At(1).State != StateOff {
		t.Errorf("event 1: got %s, want OFF", tl.At(1).State)
	}
	if !tl.At(2).Instant.Equal(at(2, 8)) {
		t.Errorf("event 2: got %v, want %v", tl.At(2).Instant, at(2, 8))
	}
}

func TestParseNormalizesSingleDigitHour(t *testing.T) {
	tl := mustParse(t, []Record{{Date: "05/03/2025", Hour: "7", State: "OFF"}})

	ev := tl.At(0)
	if ev.Instant.Hour() != 7 {
		t.Errorf("hour: got %d, want 7", ev.Instant.Hour())
	}
	if got := ev.Record().Hour; got != "07" {
		t.Errorf("normalized hour: got %q, want 07", got)
	}
	if got := (Record{Date: "05/03/2025", Hour: "7"}).Key(); got != "05/03/2025#07" {
		t.Errorf("Key: got %q", got)
	}
}

func TestParseCarriesMetadata(t *testing.T) {
	tl := mustParse(t, []Record{{Date: "01/01/2025", Hour: "08", State: "ON", Photoperiod: "12/12", Mode: "AUTO", Alert: "check pH"}})

	ev := tl.At(0)
	if ev.Photoperiod != "12/12" || ev.Mode != "AUTO" || ev.Alert != "check pH" {
		t.Errorf("metadata not carried: %+v", ev)
	}
}

func TestParseInvalidHour(t *testing.T) {
	for _, hour := range []string{"24", "-1", "x", "8am", "+8", "008", "1 2", "٨"} {
		_, err := Parse([]Record{{Date: "01/01/2025", Hour: hour, State: "ON"}}, time.UTC)
		if !errors.Is(err, ErrInvalidHour) {
			t.Errorf("hour %q: expected ErrInvalidHour, got %v", hour, err)
		}
	}
}

func TestParseInvalidState(t *testing.T) {
	for _, state := range []string{"on", "MAYBE", "1"} {
		_, err := Parse([]Record{{Date: "01/01/2025", Hour: "08", State: state}}, time.UTC)
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("state %q: expected ErrInvalidState, got %v", state, err)
		}
	}
}

func TestParseMissingField(t *testing.T) {
	records := []Record{
		{Hour: "08", State: "ON"},
		{Date: "01/01/2025", State: "ON"},
		{Date: "01/01/2025", Hour: "08"},
	}
	for i, r := range records {
		_, err := Parse([]Record{r}, time.UTC)
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("record %d: expected ErrMissingField, got %v", i, err)
		}
	}
}

func TestParseInvalidDate(t *testing.T) {
	_, err := Parse([]Record{{Date: "2025-01-01", Hour: "08", State: "ON"}}, time.UTC)
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestParseCollectsAllErrors(t *testing.T) {
	records := []Record{
		{Date: "01/01/2025", Hour: "99", State: "ON"},
		{Date: "01/01/2025", Hour: "10", State: "ON"},
		{Date: "01/01/2025", Hour: "12", State: "DIM"},
	}
	_, err := Parse(records, time.UTC)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrInvalidHour) {
		t.Errorf("expected ErrInvalidHour in %v", err)
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState in %v", err)
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatal("expected a *ParseError")
	}
	if pe.Line != 1 {
		t.Errorf("first error line: got %d, want 1", pe.Line)
	}
}

func TestParseOutOfOrder(t *testing.T) {
	records := []Record{
		{Date: "02/01/2025", Hour: "08", State: "ON"},
		{Date: "01/01/2025", Hour: "20", State: "OFF"},
	}
	_, err := Parse(records, time.UTC)
	if !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder, got %v", err)
	}
}

func TestParseAllowsEqualInstants(t *testing.T) {
	tl := mustParse(t, []Record{
		{Date: "01/01/2025", Hour: "08", State: "ON"},
		{Date: "01/01/2025", Hour: "08", State: "OFF"},
	})
	if tl.Len() != 2 {
		t.Errorf("expected 2 events, got %d", tl.Len())
	}
}

func TestParseEmpty(t *testing.T) {
	tl, err := Parse(nil, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tl.Len() != 0 {
		t.Errorf("expected empty timeline, got %d events", tl.Len())
	}
	if _, ok := tl.Start(); ok {
		t.Error("empty timeline should have no start")
	}
}

func TestParseUsesLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	tl, err := Parse([]Record{{Date: "01/01/2025", Hour: "08", State: "ON"}}, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC)
	if !tl.At(0).Instant.Equal(want) {
		t.Errorf("instant: got %v, want %v", tl.At(0).Instant.UTC(), want)
	}
}

func TestParseRecordRoundTrip(t *testing.T) {
	records := []Record{
		{Date: "01/01/2025", Hour: "08", State: "ON", Mode: "AUTO"},
		{Date: "01/01/2025", Hour: "20", State: "OFF", Photoperiod: "12/12"},
		{Date: "02/01/2025", Hour: "08", State: "ON", Alert: "feed"},
	}
	tl := mustParse(t, records)

	for i, ev := range tl.Events() {
		if got := ev.Record(); got != records[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got, records[i])
		}
	}
}

func TestTimelineEventsIsCopy(t *testing.T) {
	tl := mustParse(t, scenarioRecords())

	events := tl.Events()
	events[0].State = StateOff

	if tl.At(0).State != StateOn {
		t.Error("mutating Events() result changed the timeline")
	}
}
