package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if c.Schedule != "*/10 * * * *" {
		t.Errorf("Schedule: got %q", c.Schedule)
	}
	if c.Device.Kind != DeviceHTTP {
		t.Errorf("Device.Kind: got %q", c.Device.Kind)
	}
	if c.Device.Port != 5000 {
		t.Errorf("Device.Port: got %d, want 5000", c.Device.Port)
	}
	if c.Device.Path != "/setSta" {
		t.Errorf("Device.Path: got %q", c.Device.Path)
	}
	if c.MQTT.TopicPrefix != "grow/supercycler" {
		t.Errorf("MQTT.TopicPrefix: got %q", c.MQTT.TopicPrefix)
	}
	if c.Log.Level != "info" {
		t.Errorf("Log.Level: got %q", c.Log.Level)
	}
	if c.Log.FilePath() != "supercycler.log" {
		t.Errorf("Log.FilePath: got %q, want supercycler.log", c.Log.FilePath())
	}
}

func TestLogFileCanBeDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  file: \"-\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Log.FilePath() != "" {
		t.Errorf("Log.FilePath: got %q, want disabled", c.Log.FilePath())
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.EventsFile != "supercycle.txt" {
		t.Errorf("EventsFile: got %q", c.EventsFile)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
events_file: /var/lib/supercycler/cycle.yaml
timezone: Europe/Madrid
schedule: "@every 5m"
watch_events: true
listen: ":8080"
device:
  kind: GPIO
  gpio_line: 17
  active_low: true
  min_interval: 30s
mqtt:
  broker: tcp://broker:1883
  topic_prefix: grow/tent1/
  heartbeat: 15m
log:
  level: debug
  file: /var/log/supercycler.log
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.EventsFile != "/var/lib/supercycler/cycle.yaml" {
		t.Errorf("EventsFile: got %q", c.EventsFile)
	}
	if c.Device.Kind != DeviceGPIO {
		t.Errorf("Device.Kind should be lowercased: got %q", c.Device.Kind)
	}
	if c.Device.GPIOLine != 17 || !c.Device.ActiveLow {
		t.Errorf("GPIO settings: got line=%d activeLow=%v", c.Device.GPIOLine, c.Device.ActiveLow)
	}
	if c.Device.GPIOChip != "gpiochip0" {
		t.Errorf("GPIOChip default: got %q", c.Device.GPIOChip)
	}
	if c.Device.MinInterval != 30*time.Second {
		t.Errorf("MinInterval: got %v", c.Device.MinInterval)
	}
	if c.MQTT.Heartbeat != 15*time.Minute {
		t.Errorf("Heartbeat: got %v", c.MQTT.Heartbeat)
	}
	if c.MQTT.TopicPrefix != "grow/tent1" {
		t.Errorf("TopicPrefix: got %q", c.MQTT.TopicPrefix)
	}
	if !c.WatchEvents {
		t.Error("expected WatchEvents=true")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("device: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	c := DefaultConfig()
	c.Timezone = "UTC"
	c.Device.Address = "192.168.1.100"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.Timezone = "Mars/Olympus"
	c.Schedule = "every tuesday"
	c.Device.Kind = "zigbee"
	err := c.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"timezone", "schedule", "device.kind"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestValidateHTTPNeedsAddress(t *testing.T) {
	c := DefaultConfig()
	c.Timezone = "UTC"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "device.address") {
		t.Errorf("expected device.address error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvDeviceAddr:  "10.0.0.5",
		EnvDevicePort:  "8081",
		EnvMQTTBroker:  "tcp://mqtt:1883",
		EnvWatchEvents: "true",
		EnvLogLevel:    "warn",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	c := DefaultConfig()
	if err := c.ApplyEnv(lookup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Device.Address != "10.0.0.5" {
		t.Errorf("Device.Address: got %q", c.Device.Address)
	}
	if c.Device.Port != 8081 {
		t.Errorf("Device.Port: got %d", c.Device.Port)
	}
	if c.MQTT.Broker != "tcp://mqtt:1883" {
		t.Errorf("MQTT.Broker: got %q", c.MQTT.Broker)
	}
	if !c.WatchEvents {
		t.Error("expected WatchEvents=true")
	}
	if c.Log.Level != "warn" {
		t.Errorf("Log.Level: got %q", c.Log.Level)
	}
	if c.Schedule != "*/10 * * * *" {
		t.Errorf("unset variables must not change fields: Schedule=%q", c.Schedule)
	}
}

func TestApplyEnvInvalidPort(t *testing.T) {
	c := DefaultConfig()
	err := c.ApplyEnv(func(k string) (string, bool) {
		if k == EnvDevicePort {
			return "fivethousand", true
		}
		return "", false
	})
	if err == nil {
		t.Error("expected error for non-numeric port")
	}
}
