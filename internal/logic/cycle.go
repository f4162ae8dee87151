package logic

import "time"

// Analyze infers the average ON and OFF phase lengths of a timeline.
//
// Only true transitions count: consecutive events repeating the current
// state are ignored. Each phase length is the distance between two
// transitions in schedule hours, taken from the full date and hour so day
// boundaries and multi-day gaps are handled, and is attributed to the state
// being exited. Daylight saving shifts do not change a phase length.
func Analyze(tl Timeline) (CyclePattern, error) {
	var (
		onTotal, offTotal time.Duration
		onCount, offCount int
		transitions       int
	)

	var prev *Event
	for i := range tl.events {
		ev := &tl.events[i]
		if prev == nil {
			prev = ev
			continue
		}
		if ev.State == prev.State {
			continue
		}

		d := scheduleHours(ev.Instant).Sub(scheduleHours(prev.Instant))
		if prev.State == StateOn {
			onTotal += d
			onCount++
		} else {
			offTotal += d
			offCount++
		}
		transitions++
		prev = ev
	}

	if transitions < 2 {
		return CyclePattern{Transitions: transitions}, &AnalysisError{Kind: ErrInsufficientData, Transitions: transitions}
	}

	return CyclePattern{
		OnHours:     meanHours(onTotal, onCount),
		OffHours:    meanHours(offTotal, offCount),
		Transitions: transitions,
	}, nil
}

// scheduleHours maps an instant onto a zone without offset changes, keeping
// its calendar date and hour as written in the event list.
func scheduleHours(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}

// meanHours returns the mean duration truncated to whole hours.
func meanHours(total time.Duration, count int) int {
	if count == 0 {
		return 0
	}
	return int((total / time.Duration(count)) / time.Hour)
}
