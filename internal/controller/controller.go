// Package controller runs one schedule evaluation: read the event list,
// resolve the state for an instant and push it to the light.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/supercycler/internal/device"
	"github.com/sweeney/supercycler/internal/eventfile"
	"github.com/sweeney/supercycler/internal/history"
	"github.com/sweeney/supercycler/internal/logic"
	"github.com/sweeney/supercycler/internal/mqtt"
	"github.com/sweeney/supercycler/internal/status"
)

// ErrNoState is returned by RunOnce when no state could be resolved for the
// query instant (empty list or instant before the first event). No command
// is sent in that case.
var ErrNoState = errors.New("no state resolved")

// Source supplies the raw event records.
type Source func() ([]logic.Record, error)

// FileSource reads records from path on every call, so edits are picked up.
func FileSource(path string) Source {
	return func() ([]logic.Record, error) {
		return eventfile.ReadFile(path)
	}
}

// Options wires a Controller. Only Source and Switch are required.
type Options struct {
	Source   Source
	Location *time.Location
	Switch   device.Switch
	History  history.Store
	MQTT     mqtt.Publisher
	Tracker  *status.Tracker
	Log      zerolog.Logger
}

// Controller evaluates the schedule and drives the light.
// It is not safe for concurrent use; the daemon calls it from one loop.
type Controller struct {
	source  Source
	loc     *time.Location
	sw      device.Switch
	hist    history.Store
	pub     mqtt.Publisher
	tracker *status.Tracker
	log     zerolog.Logger
}

// New creates a Controller.
func New(o Options) *Controller {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Switch == nil {
		o.Switch = device.Nop{}
	}
	return &Controller{
		source:  o.Source,
		loc:     o.Location,
		sw:      o.Switch,
		hist:    o.History,
		pub:     o.MQTT,
		tracker: o.Tracker,
		log:     o.Log,
	}
}

// Evaluate reads and parses the event list and summarizes it at now.
// It has no side effects on the device, history or MQTT.
func (c *Controller) Evaluate(now time.Time) (logic.Report, error) {
	records, err := c.source()
	if err != nil {
		return logic.Report{}, fmt.Errorf("read events: %w", err)
	}

	tl, err := logic.Parse(records, c.loc)
	if err != nil {
		return logic.Report{}, fmt.Errorf("parse events: %w", err)
	}

	return logic.Summarize(tl, now.In(c.loc)), nil
}

// RunOnce performs one AUTO cycle at now.
// Read and parse failures skip the command; there is no default state.
// A degraded report (unknown cycle, no upcoming change) still commands the
// resolved state.
func (c *Controller) RunOnce(ctx context.Context, now time.Time) (logic.Report, error) {
	rep, err := c.Evaluate(now)
	if err != nil {
		c.log.Error().Err(err).Msg("schedule evaluation failed, no command sent")
		if c.tracker != nil {
			c.tracker.SetError(err)
		}
		return rep, err
	}

	if c.tracker != nil {
		c.tracker.SetReport(rep)
	}
	if c.pub != nil {
		if err := c.pub.PublishReport(rep); err != nil {
			c.log.Warn().Err(err).Msg("publish report")
		}
	}

	ev := c.log.Info().
		Int("day", rep.FloweringDay).
		Int("week", rep.FloweringWeek)
	if rep.CycleKnown {
		ev = ev.Int("light_hours", rep.Cycle.OnHours).
			Int("dark_hours", rep.Cycle.OffHours).
			Int("cycle_hours", rep.VirtualDayLength)
	}
	if rep.Next != nil {
		ev = ev.Str("next", string(rep.Next.State)).
			Float64("next_in_hours", rep.Next.HoursRemaining)
	}
	ev.Msg("schedule evaluated")

	for _, p := range rep.Problems {
		c.log.Debug().Err(p).Msg("report degraded")
	}

	if !rep.HasState() {
		c.log.Warn().Time("at", now).Msg("no state for this instant, no command sent")
		return rep, ErrNoState
	}

	return rep, c.Apply(ctx, now, rep.Current, device.ModeAuto)
}

// Apply sends state to the light and records the attempt in the history,
// the status tracker and on MQTT.
func (c *Controller) Apply(ctx context.Context, now time.Time, state logic.State, mode device.Mode) error {
	err := c.sw.Set(ctx, state.Bool(), mode)

	entry := history.Entry{At: now, State: state, Mode: string(mode), OK: err == nil}
	if err != nil {
		entry.Error = err.Error()
		c.log.Error().Err(err).Str("mode", string(mode)).Msgf("light %s failed", strings.ToLower(string(state)))
	} else {
		c.log.Info().Str("mode", string(mode)).Msgf("light %s", strings.ToLower(string(state)))
	}

	if c.hist != nil {
		if herr := c.hist.Append(ctx, entry); herr != nil {
			c.log.Warn().Err(herr).Msg("record command history")
		}
	}
	if c.tracker != nil {
		c.tracker.SetCommand(entry)
	}
	if c.pub != nil {
		pe := mqtt.StateEvent{Timestamp: now, State: state, Mode: string(mode), OK: entry.OK, Error: entry.Error}
		if perr := c.pub.PublishState(pe); perr != nil {
			c.log.Warn().Err(perr).Msg("publish state")
		}
	}

	if err != nil {
		return fmt.Errorf("light %s (%s): %w", strings.ToLower(string(state)), mode, err)
	}
	return nil
}
