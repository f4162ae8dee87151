package controller

import (
	"fmt"
	"io"

	"github.com/sweeney/supercycler/internal/logic"
)

// Describe writes a human readable summary of rep.
func Describe(w io.Writer, rep logic.Report) {
	fmt.Fprintf(w, "Flowering day: %d, week: %d (%.1f weeks)\n", rep.FloweringDay, rep.FloweringWeek, rep.FloweringWeeks())
	if !rep.Start.IsZero() {
		fmt.Fprintf(w, "Started: %s\n", rep.Start.Format("02/01/2006 15:04"))
	}

	if rep.HasState() {
		fmt.Fprintf(w, "Current state: %s\n", rep.Current)
	} else {
		fmt.Fprintln(w, "Current state: unknown")
	}

	if rep.Next != nil {
		fmt.Fprintf(w, "Next change: %s at %s, in %d hours (%.2f)\n",
			rep.Next.State, rep.Next.Instant.Format("02/01/2006 15:04"), rep.Next.WholeHours(), rep.Next.HoursRemaining)
	} else {
		fmt.Fprintln(w, "Next change: none scheduled")
	}

	if rep.CycleKnown {
		fmt.Fprintf(w, "Light %d hours, Dark %d hours, Cycle duration: %d hours\n",
			rep.Cycle.OnHours, rep.Cycle.OffHours, rep.VirtualDayLength)
	} else {
		fmt.Fprintln(w, "Cycle: unknown")
	}

	for _, p := range rep.Problems {
		fmt.Fprintf(w, "Warning: %v\n", p)
	}
}
