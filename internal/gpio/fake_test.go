package gpio

import (
	"context"
	"errors"
	"testing"

	"github.com/sweeney/supercycler/internal/device"
)

func TestFakeLineSet(t *testing.T) {
	f := NewFakeLine()

	if v, _ := f.Value(); v {
		t.Error("new line should start off")
	}

	f.Set(true)
	f.Set(false)
	f.Set(true)

	if len(f.Writes) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(f.Writes))
	}
	want := []bool{true, false, true}
	for i, w := range want {
		if f.Writes[i] != w {
			t.Errorf("write %d: got %v, want %v", i, f.Writes[i], w)
		}
	}
	if v, _ := f.Value(); !v {
		t.Error("expected line on after last write")
	}
}

func TestFakeLineError(t *testing.T) {
	f := NewFakeLine()
	f.SetError = errors.New("simulated error")

	if err := f.Set(true); err == nil {
		t.Error("expected error")
	}
	if len(f.Writes) != 0 {
		t.Errorf("failed writes must not be recorded, got %d", len(f.Writes))
	}
}

func TestFakeLineCloseSwitchesOff(t *testing.T) {
	f := NewFakeLine()
	f.Set(true)

	if f.Closed {
		t.Error("should not be closed initially")
	}
	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	if v, _ := f.Value(); v {
		t.Error("line should be off after Close()")
	}
}

func TestFakeLineReset(t *testing.T) {
	f := NewFakeLine()
	f.Set(true)
	f.Close()
	f.SetError = errors.New("x")

	f.Reset()

	if len(f.Writes) != 0 || f.Closed || f.SetError != nil {
		t.Errorf("reset incomplete: %+v", f)
	}
}

func TestRelaySwitch(t *testing.T) {
	line := NewFakeLine()
	var sw device.Switch = NewRelaySwitch(line)

	if err := sw.Set(context.Background(), true, device.ModeAuto); err != nil {
		t.Fatalf("Set(on): %v", err)
	}
	if v, _ := line.Value(); !v {
		t.Error("relay should be on")
	}

	if err := sw.Set(context.Background(), false, device.ModeManual); err != nil {
		t.Fatalf("Set(off): %v", err)
	}
	if v, _ := line.Value(); v {
		t.Error("relay should be off")
	}

	if err := sw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !line.Closed {
		t.Error("Close should close the line")
	}
}

func TestRelaySwitchError(t *testing.T) {
	line := NewFakeLine()
	line.SetError = errors.New("line busy")
	sw := NewRelaySwitch(line)

	err := sw.Set(context.Background(), true, device.ModeAuto)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, line.SetError) {
		t.Errorf("error should wrap the line error: %v", err)
	}
}

func TestRelaySwitchCancelledContext(t *testing.T) {
	line := NewFakeLine()
	sw := NewRelaySwitch(line)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sw.Set(ctx, true, device.ModeAuto); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(line.Writes) != 0 {
		t.Error("no write expected after cancellation")
	}
}
