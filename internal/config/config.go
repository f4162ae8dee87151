// Package config provides the YAML configuration model for supercycler.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Device kinds.
const (
	DeviceHTTP = "http"
	DeviceGPIO = "gpio"
	DeviceNone = "none"
)

// DeviceConfig describes how the resolved state reaches the light.
type DeviceConfig struct {
	// Kind is one of "http", "gpio" or "none".
	Kind string `yaml:"kind" json:"kind"`

	// Address is the device host for the http kind (e.g. "192.168.1.100").
	Address string `yaml:"address" json:"address"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`

	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// MinInterval is the minimum spacing between two commands.
	MinInterval time.Duration `yaml:"min_interval" json:"min_interval"`

	// GPIO relay settings for the gpio kind.
	GPIOChip  string `yaml:"gpio_chip" json:"gpio_chip"`
	GPIOLine  int    `yaml:"gpio_line" json:"gpio_line"`
	ActiveLow bool   `yaml:"active_low" json:"active_low"`
}

// MQTTConfig describes the optional MQTT publisher.
type MQTTConfig struct {
	// Broker is the broker URL; empty disables MQTT.
	Broker      string `yaml:"broker" json:"broker"`
	ClientID    string `yaml:"client_id" json:"client_id"`
	TopicPrefix string `yaml:"topic_prefix" json:"topic_prefix"`
	// CommandTopic, if set, receives ON/OFF payloads (e.g. "cmnd/grow-light/POWER").
	CommandTopic string `yaml:"command_topic" json:"command_topic"`
	// Heartbeat is the system heartbeat interval; zero disables it.
	Heartbeat time.Duration `yaml:"heartbeat" json:"heartbeat"`
}

// LogConfig controls the zerolog setup.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	// File is an append-only log file, supercycler.log by default.
	// "-" disables it.
	File string `yaml:"file" json:"file"`
	// Quiet disables console output.
	Quiet bool `yaml:"quiet" json:"quiet"`
}

// Config is the top-level application configuration.
type Config struct {
	// EventsFile is the schedule event list (line or YAML format).
	EventsFile string `yaml:"events_file" json:"events_file"`

	// Timezone is the IANA zone the schedule dates and hours are expressed in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Schedule is a cron expression for periodic re-evaluation.
	Schedule string `yaml:"schedule" json:"schedule"`

	// WatchEvents re-evaluates as soon as the events file changes.
	WatchEvents bool `yaml:"watch_events" json:"watch_events"`

	// Listen is the HTTP status address; empty disables it.
	Listen string `yaml:"listen" json:"listen"`

	// HistoryDB is the SQLite command history path; empty disables it.
	HistoryDB string `yaml:"history_db" json:"history_db"`

	Device DeviceConfig `yaml:"device" json:"device"`
	MQTT   MQTTConfig   `yaml:"mqtt" json:"mqtt"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with defaults.
func (c *Config) Normalize() {
	if c.EventsFile == "" {
		c.EventsFile = "supercycle.txt"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.Schedule == "" {
		c.Schedule = "*/10 * * * *"
	}

	c.Device.Kind = strings.ToLower(strings.TrimSpace(c.Device.Kind))
	if c.Device.Kind == "" {
		c.Device.Kind = DeviceHTTP
	}
	if c.Device.Port == 0 {
		c.Device.Port = 5000
	}
	if c.Device.Path == "" {
		c.Device.Path = "/setSta"
	}
	if c.Device.Timeout <= 0 {
		c.Device.Timeout = 10 * time.Second
	}
	if c.Device.MinInterval < 0 {
		c.Device.MinInterval = 0
	}
	if c.Device.GPIOChip == "" {
		c.Device.GPIOChip = "gpiochip0"
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "supercycler"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "grow/supercycler"
	}
	c.MQTT.TopicPrefix = strings.TrimSuffix(c.MQTT.TopicPrefix, "/")

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = DefaultLogFile
	}
}

// DefaultLogFile is appended to unless log.file says otherwise.
const DefaultLogFile = "supercycler.log"

// FilePath returns the log file to append to, or "" when disabled.
func (l LogConfig) FilePath() string {
	if l.File == "-" {
		return ""
	}
	return l.File
}

// Validate reports configuration values that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule %q: %w", c.Schedule, err))
	}
	switch c.Device.Kind {
	case DeviceHTTP:
		if c.Device.Address == "" {
			errs = append(errs, errors.New("device.address is required for the http device"))
		}
	case DeviceGPIO:
		if c.Device.GPIOLine < 0 {
			errs = append(errs, fmt.Errorf("device.gpio_line %d is negative", c.Device.GPIOLine))
		}
	case DeviceNone:
	default:
		errs = append(errs, fmt.Errorf("device.kind %q is not one of http, gpio, none", c.Device.Kind))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from the given YAML path.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Environment variable names understood by ApplyEnv.
const (
	EnvEventsFile  = "SUPERCYCLER_EVENTS_FILE"
	EnvTimezone    = "SUPERCYCLER_TIMEZONE"
	EnvSchedule    = "SUPERCYCLER_SCHEDULE"
	EnvListen      = "SUPERCYCLER_LISTEN"
	EnvDeviceKind  = "SUPERCYCLER_DEVICE_KIND"
	EnvDeviceAddr  = "SUPERCYCLER_DEVICE_ADDRESS"
	EnvDevicePort  = "SUPERCYCLER_DEVICE_PORT"
	EnvMQTTBroker  = "SUPERCYCLER_MQTT_BROKER"
	EnvLogLevel    = "SUPERCYCLER_LOG_LEVEL"
	EnvLogFile     = "SUPERCYCLER_LOG_FILE"
	EnvHistoryDB   = "SUPERCYCLER_HISTORY_DB"
	EnvWatchEvents = "SUPERCYCLER_WATCH_EVENTS"
)

// ApplyEnv overrides fields from environment variables looked up with
// lookup (normally os.LookupEnv) and re-normalizes the result.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	str(EnvEventsFile, &c.EventsFile)
	str(EnvTimezone, &c.Timezone)
	str(EnvSchedule, &c.Schedule)
	str(EnvListen, &c.Listen)
	str(EnvDeviceKind, &c.Device.Kind)
	str(EnvDeviceAddr, &c.Device.Address)
	str(EnvMQTTBroker, &c.MQTT.Broker)
	str(EnvLogLevel, &c.Log.Level)
	str(EnvLogFile, &c.Log.File)
	str(EnvHistoryDB, &c.HistoryDB)

	if v, ok := lookup(EnvDevicePort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDevicePort, err)
		}
		c.Device.Port = n
	}
	if v, ok := lookup(EnvWatchEvents); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWatchEvents, err)
		}
		c.WatchEvents = b
	}

	c.Normalize()
	return nil
}
