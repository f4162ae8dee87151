// Package gpio drives a relay through a GPIO output line.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"context"
	"fmt"

	"github.com/sweeney/supercycler/internal/device"
)

// Line is a single GPIO output.
type Line interface {
	// Set drives the line to the logical value (true = relay energised).
	Set(on bool) error

	// Value returns the logical value last driven.
	Value() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 17
)

// RelaySwitch adapts a Line to device.Switch.
type RelaySwitch struct {
	line Line
}

// NewRelaySwitch wraps line.
func NewRelaySwitch(line Line) *RelaySwitch {
	return &RelaySwitch{line: line}
}

// Set drives the relay. The mode only matters for callers' logging.
func (r *RelaySwitch) Set(ctx context.Context, on bool, mode device.Mode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.line.Set(on); err != nil {
		return fmt.Errorf("set relay (%s): %w", mode, err)
	}
	return nil
}

// Close releases the line.
func (r *RelaySwitch) Close() error {
	return r.line.Close()
}
