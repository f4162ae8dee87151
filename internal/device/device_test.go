package device

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

// newDeviceServer starts a fake device and returns a switch pointing at it
// together with the decoded payloads it received.
func newDeviceServer(t *testing.T, status int, minInterval time.Duration) (*HTTPSwitch, *[]CommandPayload) {
	t.Helper()
	var got []CommandPayload

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if r.URL.Path != "/setSta" {
			t.Errorf("path: got %s, want /setSta", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: got %q", ct)
		}
		var p CommandPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode body: %v", err)
		}
		got = append(got, p)
		w.WriteHeader(status)
	}))
	t.Cleanup(ts.Close)

	u, _ := url.Parse(ts.URL)
	host, portStr, _ := net.SplitHostPort(u.Host)
	port, _ := strconv.Atoi(portStr)

	sw, err := NewHTTPSwitch(HTTPConfig{Address: host, Port: port, Timeout: 2 * time.Second, MinInterval: minInterval})
	if err != nil {
		t.Fatalf("NewHTTPSwitch: %v", err)
	}
	t.Cleanup(func() { sw.Close() })
	return sw, &got
}

func TestHTTPSwitchOnOff(t *testing.T) {
	sw, got := newDeviceServer(t, http.StatusOK, 0)

	if err := sw.Set(context.Background(), true, ModeAuto); err != nil {
		t.Fatalf("Set(on): %v", err)
	}
	if err := sw.Set(context.Background(), false, ModeManual); err != nil {
		t.Fatalf("Set(off): %v", err)
	}

	if len(*got) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(*got))
	}
	if (*got)[0].Status != 1 {
		t.Errorf("first status: got %d, want 1", (*got)[0].Status)
	}
	if (*got)[1].Status != 0 {
		t.Errorf("second status: got %d, want 0", (*got)[1].Status)
	}
}

func TestHTTPSwitchNon200(t *testing.T) {
	sw, _ := newDeviceServer(t, http.StatusInternalServerError, 0)

	err := sw.Set(context.Background(), true, ModeAuto)
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "AUTO") {
		t.Errorf("error should mention the mode: %v", err)
	}
}

func TestHTTPSwitchConnectionError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	sw, err := NewHTTPSwitch(HTTPConfig{Address: "127.0.0.1", Port: port, Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if err := sw.Set(context.Background(), true, ModeAuto); err == nil {
		t.Error("expected connection error")
	}
}

func TestHTTPSwitchRateLimitHonoursContext(t *testing.T) {
	sw, got := newDeviceServer(t, http.StatusOK, time.Hour)

	if err := sw.Set(context.Background(), true, ModeAuto); err != nil {
		t.Fatalf("first Set: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := sw.Set(ctx, false, ModeAuto); err == nil {
		t.Error("expected the second command to be rate limited")
	}
	if len(*got) != 1 {
		t.Errorf("expected 1 command to reach the device, got %d", len(*got))
	}
}

func TestNewHTTPSwitchDefaults(t *testing.T) {
	sw, err := NewHTTPSwitch(HTTPConfig{Address: "192.168.1.100"})
	if err != nil {
		t.Fatal(err)
	}
	if sw.URL() != "http://192.168.1.100:5000/setSta" {
		t.Errorf("URL: got %q", sw.URL())
	}

	if _, err := NewHTTPSwitch(HTTPConfig{}); err == nil {
		t.Error("expected error for empty address")
	}
}

func TestFormatCommand(t *testing.T) {
	on, _ := FormatCommand(true)
	off, _ := FormatCommand(false)
	if string(on) != `{"status":1}` {
		t.Errorf("on: got %s", on)
	}
	if string(off) != `{"status":0}` {
		t.Errorf("off: got %s", off)
	}
}

func TestFakeSwitch(t *testing.T) {
	f := NewFakeSwitch()
	if _, ok := f.Last(); ok {
		t.Error("expected no last command")
	}

	f.Set(context.Background(), true, ModeAuto)
	f.Set(context.Background(), false, ModeManual)

	last, ok := f.Last()
	if !ok || last.On || last.Mode != ModeManual {
		t.Errorf("last: got %+v", last)
	}

	f.SetError = errors.New("unreachable")
	if err := f.Set(context.Background(), true, ModeAuto); err == nil {
		t.Error("expected error")
	}
	if len(f.Commands) != 2 {
		t.Errorf("failed commands must not be recorded: got %d", len(f.Commands))
	}

	f.Close()
	if !f.Closed {
		t.Error("expected Closed=true")
	}
}

func TestNopSwitch(t *testing.T) {
	var s Switch = Nop{}
	if err := s.Set(context.Background(), true, ModeAuto); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
