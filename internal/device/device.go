// Package device sends resolved ON/OFF states to the controlled light.
package device

import "context"

// Mode tells the device (and the logs) why a command was issued.
type Mode string

const (
	ModeAuto   Mode = "AUTO"
	ModeManual Mode = "MANUAL"
)

// Switch drives a single ON/OFF device.
type Switch interface {
	// Set turns the device on or off.
	// Returns error if the device did not acknowledge the command.
	Set(ctx context.Context, on bool, mode Mode) error

	// Close releases any resources held by the switch.
	Close() error
}

// Nop is a Switch that accepts every command without side effects.
type Nop struct{}

func (Nop) Set(context.Context, bool, Mode) error { return nil }
func (Nop) Close() error                          { return nil }
