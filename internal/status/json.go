package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	LastError     string       `json:"last_error,omitempty"`
	Schedule      *ReportJSON  `json:"schedule,omitempty"`
	LastCommand   *CommandJSON `json:"last_command,omitempty"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        ConfigJSON   `json:"config"`
}

// CommandJSON is the JSON representation of the last command.
type CommandJSON struct {
	At    string `json:"at"`
	State string `json:"state"`
	Mode  string `json:"mode"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	EventsFile  string `json:"events_file"`
	Timezone    string `json:"timezone"`
	Schedule    string `json:"schedule"`
	Device      string `json:"device"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Report.Current)
	if !snap.Evaluated || state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		State:         state,
		Ready:         snap.Evaluated,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		LastError:     snap.LastError,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			EventsFile:  snap.Config.EventsFile,
			Timezone:    snap.Config.Timezone,
			Schedule:    snap.Config.Schedule,
			Device:      snap.Config.Device,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if snap.Evaluated {
		rj := NewReportJSON(snap.Report)
		inner.Schedule = &rj
	}
	if c := snap.LastCommand; c != nil {
		inner.LastCommand = &CommandJSON{
			At:    c.At.UTC().Format(time.RFC3339),
			State: string(c.State),
			Mode:  c.Mode,
			OK:    c.OK,
			Error: c.Error,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
