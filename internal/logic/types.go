// Package logic contains the pure schedule resolution engine.
// This package has NO external dependencies (no files, network, OS, or wall clock).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// State represents the logical state of the controlled device.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// Bool reports whether the state means the device should be powered.
func (s State) Bool() bool {
	return s == StateOn
}

// Opposite returns the other state.
func (s State) Opposite() State {
	if s == StateOn {
		return StateOff
	}
	return StateOn
}

// StateFromBool converts a power flag into a State.
func StateFromBool(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// DateLayout is the calendar-date layout used in event records (dd/mm/yyyy).
const DateLayout = "02/01/2006"

// Record is a raw event record as supplied by a file collaborator.
// Optional metadata is carried through unchanged.
type Record struct {
	Date        string
	Hour        string
	State       string
	Photoperiod string
	Mode        string
	Alert       string
}

// Key renders the record as date#HH with the hour zero-padded.
// Hours that are not valid are rendered unchanged.
func (r Record) Key() string {
	h, ok := parseHour(strings.TrimSpace(r.Hour))
	if !ok {
		return r.Date + "#" + r.Hour
	}
	return fmt.Sprintf("%s#%02d", r.Date, h)
}

// Event is a single parsed (instant, state) pair.
type Event struct {
	Instant     time.Time
	State       State
	Photoperiod string
	Mode        string
	Alert       string
}

// Record converts the event back into its raw form with a two-digit hour.
func (e Event) Record() Record {
	return Record{
		Date:        e.Instant.Format(DateLayout),
		Hour:        fmt.Sprintf("%02d", e.Instant.Hour()),
		State:       string(e.State),
		Photoperiod: e.Photoperiod,
		Mode:        e.Mode,
		Alert:       e.Alert,
	}
}

// Timeline is an immutable, chronologically ordered sequence of events.
type Timeline struct {
	events []Event
}

// NewTimeline builds a timeline from already ordered events.
// The slice is copied.
func NewTimeline(events []Event) Timeline {
	cp := make([]Event, len(events))
	copy(cp, events)
	return Timeline{events: cp}
}

// Len returns the number of events.
func (t Timeline) Len() int {
	return len(t.events)
}

// At returns the i-th event.
func (t Timeline) At(i int) Event {
	return t.events[i]
}

// Events returns a copy of the events.
func (t Timeline) Events() []Event {
	cp := make([]Event, len(t.events))
	copy(cp, t.events)
	return cp
}

// Start returns the instant of the first event and whether one exists.
func (t Timeline) Start() (time.Time, bool) {
	if len(t.events) == 0 {
		return time.Time{}, false
	}
	return t.events[0].Instant, true
}

// NextChange describes the next transition after a query instant.
type NextChange struct {
	Instant time.Time
	State   State
	// HoursRemaining is rounded to two decimal places.
	HoursRemaining float64
}

// WholeHours returns HoursRemaining rounded to the nearest hour.
func (n NextChange) WholeHours() int {
	return int(math.Round(n.HoursRemaining))
}

// Resolution is the outcome of resolving a timeline at an instant.
type Resolution struct {
	At      time.Time
	Current State
	// Since is the instant of the event that set Current.
	Since time.Time
	// Next is nil when no further transition is known.
	Next *NextChange
}

// CyclePattern is the inferred average length of each phase.
type CyclePattern struct {
	OnHours     int
	OffHours    int
	Transitions int
}

// VirtualDayLength is the length of one full ON+OFF cycle in hours.
func (c CyclePattern) VirtualDayLength() int {
	return c.OnHours + c.OffHours
}

// Report aggregates resolution and cycle statistics for one query.
// It is produced fresh on every query and never persisted.
type Report struct {
	At               time.Time
	Start            time.Time
	FloweringDay     int
	FloweringWeek    int
	Current          State
	Next             *NextChange
	Cycle            CyclePattern
	CycleKnown       bool
	VirtualDayLength int
	Incomplete       bool
	// Problems lists the non-fatal errors that degraded the report.
	Problems []error
}

// FloweringWeeks returns the fractional week count.
func (r Report) FloweringWeeks() float64 {
	return float64(r.FloweringDay) / 7
}

// HasState reports whether a current state could be resolved.
func (r Report) HasState() bool {
	return r.Current != ""
}
