package logic

import (
	"errors"
	"strings"
	"time"
)

// Parse converts raw records into a Timeline in the given location.
// Every malformed record is reported; the returned error joins them all.
// Records must already be in chronological order. Equal instants are
// accepted and the later record wins when resolving.
func Parse(records []Record, loc *time.Location) (Timeline, error) {
	if loc == nil {
		loc = time.Local
	}

	events := make([]Event, 0, len(records))
	var errs []error

	for i, r := range records {
		line := i + 1
		ev, err := parseRecord(r, line, loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n := len(events); n > 0 && ev.Instant.Before(events[n-1].Instant) {
			errs = append(errs, &ParseError{Line: line, Kind: ErrOutOfOrder, Field: "date", Value: r.Key()})
			continue
		}
		events = append(events, ev)
	}

	if len(errs) > 0 {
		return Timeline{}, errors.Join(errs...)
	}
	return Timeline{events: events}, nil
}

func parseRecord(r Record, line int, loc *time.Location) (Event, error) {
	date := strings.TrimSpace(r.Date)
	hourStr := strings.TrimSpace(r.Hour)
	stateStr := strings.TrimSpace(r.State)

	switch {
	case date == "":
		return Event{}, &ParseError{Line: line, Kind: ErrMissingField, Field: "date"}
	case hourStr == "":
		return Event{}, &ParseError{Line: line, Kind: ErrMissingField, Field: "hour"}
	case stateStr == "":
		return Event{}, &ParseError{Line: line, Kind: ErrMissingField, Field: "state"}
	}

	hour, ok := parseHour(hourStr)
	if !ok {
		return Event{}, &ParseError{Line: line, Kind: ErrInvalidHour, Field: "hour", Value: r.Hour}
	}

	state := State(stateStr)
	if state != StateOn && state != StateOff {
		return Event{}, &ParseError{Line: line, Kind: ErrInvalidState, Field: "state", Value: r.State}
	}

	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return Event{}, &ParseError{Line: line, Kind: ErrInvalidDate, Field: "date", Value: r.Date}
	}

	return Event{
		Instant:     time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc),
		State:       state,
		Photoperiod: r.Photoperiod,
		Mode:        r.Mode,
		Alert:       r.Alert,
	}, nil
}

// parseHour accepts one or two ASCII digits in the range 0-23.
func parseHour(s string) (int, bool) {
	if len(s) == 0 || len(s) > 2 {
		return 0, false
	}
	hour := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		hour = hour*10 + int(s[i]-'0')
	}
	return hour, hour <= 23
}
