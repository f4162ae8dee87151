package logic

import (
	"errors"
	"time"
)

// Summarize composes resolution and cycle statistics into a single Report.
//
// It never fails: missing data degrades the report instead. An empty
// timeline, a query before the first event or an unknown cycle pattern mark
// the report Incomplete and record the cause in Problems. A missing next
// change alone is not considered incomplete.
func Summarize(tl Timeline, at time.Time) Report {
	rep := Report{At: at}

	start, ok := tl.Start()
	if !ok {
		rep.Incomplete = true
		rep.Problems = append(rep.Problems, &ResolutionError{Kind: ErrBeforeTimelineStart, At: at})
		return rep
	}
	rep.Start = start

	if day := DaysBetween(start, at); day > 0 {
		rep.FloweringDay = day
		rep.FloweringWeek = day / 7
	}

	res, err := Resolve(tl, at)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoUpcomingChange):
		rep.Problems = append(rep.Problems, err)
	default:
		rep.Incomplete = true
		rep.Problems = append(rep.Problems, err)
	}
	rep.Current = res.Current
	rep.Next = res.Next

	cycle, err := Analyze(tl)
	if err != nil {
		rep.Incomplete = true
		rep.Problems = append(rep.Problems, err)
	} else {
		rep.Cycle = cycle
		rep.CycleKnown = true
		rep.VirtualDayLength = cycle.VirtualDayLength()
	}

	return rep
}

// DaysBetween returns the number of calendar days from a's date to b's date,
// ignoring the time of day. Dates are taken in a's location.
func DaysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da) / (24 * time.Hour))
}
