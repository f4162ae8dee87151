// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/supercycler/internal/logic"
	"github.com/sweeney/supercycler/internal/status"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "grow/supercycler"

// Topics holds the topic names derived from a prefix.
type Topics struct {
	State  string
	Report string
	System string
	// Command is an optional Tasmota-style power topic (e.g. "cmnd/grow-light/POWER").
	Command string
}

// NewTopics derives the topic set for prefix.
func NewTopics(prefix, command string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		State:   prefix + "/state",
		Report:  prefix + "/report",
		System:  prefix + "/system",
		Command: command,
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishState sends an applied command to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishState(event StateEvent) error

	// PublishReport sends the latest schedule report (retained).
	PublishReport(report logic.Report) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// StateEvent is one command attempt against the light.
type StateEvent struct {
	Timestamp time.Time
	State     logic.State
	Mode      string // "AUTO" or "MANUAL"
	OK        bool
	Error     string
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT state message payload structure.
type Payload struct {
	Light LightPayload `json:"light"`
}

// LightPayload contains the command details.
type LightPayload struct {
	Timestamp string `json:"timestamp"`
	State     string `json:"state"`
	Mode      string `json:"mode"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for a state event.
func FormatPayload(event StateEvent) ([]byte, error) {
	payload := Payload{
		Light: LightPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			State:     string(event.State),
			Mode:      event.Mode,
			OK:        event.OK,
			Error:     event.Error,
		},
	}
	return json.Marshal(payload)
}

// FormatReportPayload creates the JSON payload for the report topic.
func FormatReportPayload(report logic.Report) ([]byte, error) {
	return json.Marshal(status.NewReportJSON(report))
}

// FormatCommandPayload returns the Tasmota power payload for a state.
func FormatCommandPayload(state logic.State) []byte {
	return []byte(state)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
