package gpio

// FakeLine is a test double that records driven values.
type FakeLine struct {
	// Writes contains every value passed to Set, in order.
	Writes []bool

	// current is the last driven value
	current bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeLine creates a FakeLine that starts off.
func NewFakeLine() *FakeLine {
	return &FakeLine{}
}

// Set records the value.
func (f *FakeLine) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Writes = append(f.Writes, on)
	f.current = on
	return nil
}

// Value returns the last driven value.
func (f *FakeLine) Value() (bool, error) {
	return f.current, nil
}

// Close marks the line as closed and switches it off.
func (f *FakeLine) Close() error {
	f.current = false
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeLine) Reset() {
	f.Writes = nil
	f.current = false
	f.Closed = false
	f.SetError = nil
}
