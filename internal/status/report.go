package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/supercycler/internal/logic"
)

// ReportJSON is the JSON representation of a schedule report.
// It is shared by the web endpoint and the MQTT report topic.
type ReportJSON struct {
	Timestamp        string     `json:"timestamp"`
	Start            string     `json:"start,omitempty"`
	State            string     `json:"state"`
	FloweringDay     int        `json:"flowering_day"`
	FloweringWeek    int        `json:"flowering_week"`
	Next             *NextJSON  `json:"next,omitempty"`
	Cycle            *CycleJSON `json:"cycle,omitempty"`
	VirtualDayLength int        `json:"virtual_day_hours,omitempty"`
	Incomplete       bool       `json:"incomplete"`
	Problems         []string   `json:"problems,omitempty"`
}

// NextJSON describes the upcoming transition.
type NextJSON struct {
	At             string  `json:"at"`
	State          string  `json:"state"`
	HoursRemaining float64 `json:"hours_remaining"`
}

// CycleJSON is the inferred ON/OFF pattern.
type CycleJSON struct {
	OnHours     int `json:"on_hours"`
	OffHours    int `json:"off_hours"`
	Transitions int `json:"transitions"`
}

// NewReportJSON converts a report. Times are rendered in UTC.
func NewReportJSON(r logic.Report) ReportJSON {
	state := string(r.Current)
	if state == "" {
		state = "UNKNOWN"
	}

	rj := ReportJSON{
		Timestamp:     r.At.UTC().Format(time.RFC3339),
		State:         state,
		FloweringDay:  r.FloweringDay,
		FloweringWeek: r.FloweringWeek,
		Incomplete:    r.Incomplete,
	}
	if !r.Start.IsZero() {
		rj.Start = r.Start.UTC().Format(time.RFC3339)
	}
	if r.Next != nil {
		rj.Next = &NextJSON{
			At:             r.Next.Instant.UTC().Format(time.RFC3339),
			State:          string(r.Next.State),
			HoursRemaining: r.Next.HoursRemaining,
		}
	}
	if r.CycleKnown {
		rj.Cycle = &CycleJSON{
			OnHours:     r.Cycle.OnHours,
			OffHours:    r.Cycle.OffHours,
			Transitions: r.Cycle.Transitions,
		}
		rj.VirtualDayLength = r.VirtualDayLength
	}
	for _, p := range r.Problems {
		rj.Problems = append(rj.Problems, p.Error())
	}
	return rj
}

// FormatReport returns the compact JSON for a report.
func FormatReport(r logic.Report) []byte {
	data, _ := json.Marshal(NewReportJSON(r))
	return data
}
