// Package status provides a thread-safe status tracker for the supercycler daemon.
// It is read by the HTTP handlers and by the MQTT startup/heartbeat messages.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/supercycler/internal/history"
	"github.com/sweeney/supercycler/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	EventsFile  string
	Timezone    string
	Schedule    string
	Device      string // e.g. "http://192.168.1.100:5000/setSta" or "gpio gpiochip0/17"
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Report      logic.Report
	Evaluated   bool
	LastCommand *history.Entry
	// LastError is the most recent evaluation failure (empty once a cycle succeeds).
	LastError     string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetReport records the latest schedule report and clears LastError.
// Called by the controller after every successful evaluation.
func (t *Tracker) SetReport(r logic.Report) {
	t.mu.Lock()
	t.snap.Report = r
	t.snap.Evaluated = true
	t.snap.LastError = ""
	t.mu.Unlock()
}

// SetError records an evaluation failure. The previous report is kept.
func (t *Tracker) SetError(err error) {
	t.mu.Lock()
	if err == nil {
		t.snap.LastError = ""
	} else {
		t.snap.LastError = err.Error()
	}
	t.mu.Unlock()
}

// SetCommand records the last command attempt.
func (t *Tracker) SetCommand(e history.Entry) {
	t.mu.Lock()
	t.snap.LastCommand = &e
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastCommand != nil {
		c := *s.LastCommand
		s.LastCommand = &c
	}
	if s.Report.Problems != nil {
		s.Report.Problems = append([]error(nil), s.Report.Problems...)
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
