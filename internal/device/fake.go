package device

import "context"

// Command is a single recorded Set call.
type Command struct {
	On   bool
	Mode Mode
}

// FakeSwitch records commands for test assertions.
type FakeSwitch struct {
	// Commands contains every successful command in order.
	Commands []Command

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSwitch creates a FakeSwitch for testing.
func NewFakeSwitch() *FakeSwitch {
	return &FakeSwitch{}
}

// Set records the command.
func (f *FakeSwitch) Set(_ context.Context, on bool, mode Mode) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Commands = append(f.Commands, Command{On: on, Mode: mode})
	return nil
}

// Close marks the switch as closed.
func (f *FakeSwitch) Close() error {
	f.Closed = true
	return nil
}

// Last returns the most recent command and whether there was one.
func (f *FakeSwitch) Last() (Command, bool) {
	if len(f.Commands) == 0 {
		return Command{}, false
	}
	return f.Commands[len(f.Commands)-1], true
}
