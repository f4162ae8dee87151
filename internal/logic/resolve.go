package logic

import (
	"math"
	"sort"
	"time"
)

// Resolve determines the active state at the given instant and the next
// differing state after it.
//
// The state at an instant is taken from the latest event whose instant is
// <= at, so each event owns the half-open interval up to the next event.
// When later events exist but none of them changes the state, the resolution
// is returned together with a ResolutionError wrapping ErrNoUpcomingChange.
func Resolve(tl Timeline, at time.Time) (Resolution, error) {
	n := len(tl.events)
	if n == 0 || at.Before(tl.events[0].Instant) {
		return Resolution{}, &ResolutionError{Kind: ErrBeforeTimelineStart, At: at}
	}

	// First event strictly after at.
	idx := sort.Search(n, func(i int) bool {
		return tl.events[i].Instant.After(at)
	})
	cur := tl.events[idx-1]

	res := Resolution{
		At:      at,
		Current: cur.State,
		Since:   cur.Instant,
	}

	if idx == n {
		return res, nil
	}

	for _, ev := range tl.events[idx:] {
		if ev.State == cur.State {
			continue
		}
		res.Next = &NextChange{
			Instant:        ev.Instant,
			State:          ev.State,
			HoursRemaining: roundHours(ev.Instant.Sub(at)),
		}
		return res, nil
	}

	return res, &ResolutionError{Kind: ErrNoUpcomingChange, At: at}
}

// roundHours converts d to fractional hours rounded to two decimal places.
func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
