// Command supercycler drives a grow light from a timestamped ON/OFF event list.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/sweeney/supercycler/internal/config"
	"github.com/sweeney/supercycler/internal/controller"
	"github.com/sweeney/supercycler/internal/device"
	"github.com/sweeney/supercycler/internal/eventfile"
	"github.com/sweeney/supercycler/internal/gpio"
	"github.com/sweeney/supercycler/internal/history"
	"github.com/sweeney/supercycler/internal/logic"
	"github.com/sweeney/supercycler/internal/logx"
	"github.com/sweeney/supercycler/internal/mqtt"
	"github.com/sweeney/supercycler/internal/status"
	"github.com/sweeney/supercycler/internal/web"
)

const usageExamples = `
Usage examples:

  supercycler -manual on -ip 192.168.1.100
  supercycler -once -events supercycle.txt -ip 192.168.1.100
  supercycler -events supercycle.txt -ip 192.168.1.100      (daemon)
  supercycler -print -events supercycle.txt
`

// options holds the command-line flags. Empty strings mean "not set" and
// leave the configured value alone.
type options struct {
	configPath string
	manual     string
	once       bool
	print      bool

	events   string
	address  string
	timezone string
	listen   string
	broker   string
	logLevel string
}

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if err := run(o); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var o options
	flags := flag.NewFlagSet("supercycler", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() {
		fmt.Fprintln(out, "Indoor light control.")
		flags.PrintDefaults()
		fmt.Fprint(out, usageExamples)
	}

	flags.StringVar(&o.configPath, "config", "supercycler.yaml", "YAML configuration file (optional)")
	flags.StringVar(&o.manual, "manual", "", `Turn the light "on" or "off" once and exit`)
	flags.BoolVar(&o.once, "once", false, "Run one automatic cycle and exit")
	flags.BoolVar(&o.print, "print", false, "Print the schedule report and exit (no device I/O)")
	flags.StringVar(&o.events, "events", "", "Event list file (overrides events_file)")
	flags.StringVar(&o.address, "ip", "", "Device IP address (overrides device.address)")
	flags.StringVar(&o.timezone, "timezone", "", "IANA timezone of the event list")
	flags.StringVar(&o.listen, "http", "", "HTTP status address")
	flags.StringVar(&o.broker, "broker", "", "MQTT broker address")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	if err := flags.Parse(args); err != nil {
		return o, err
	}

	o.manual = strings.ToLower(o.manual)
	if o.manual != "" && o.manual != "on" && o.manual != "off" {
		err := fmt.Errorf("-manual must be on or off, got %q", o.manual)
		fmt.Fprintln(out, err)
		return o, err
	}

	modes := 0
	for _, set := range []bool{o.manual != "", o.once, o.print} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		err := errors.New("-manual, -once and -print are mutually exclusive")
		fmt.Fprintln(out, err)
		return o, err
	}
	return o, nil
}

// loadConfig layers the YAML file, environment and flags, in that order.
func loadConfig(o options, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	set := func(v string, dst *string) {
		if v != "" {
			*dst = v
		}
	}
	set(o.events, &cfg.EventsFile)
	set(o.address, &cfg.Device.Address)
	set(o.timezone, &cfg.Timezone)
	set(o.listen, &cfg.Listen)
	set(o.broker, &cfg.MQTT.Broker)
	set(o.logLevel, &cfg.Log.Level)
	if o.print {
		cfg.Device.Kind = config.DeviceNone
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newSwitch builds the device for the configured kind and a description for
// the status page.
func newSwitch(dc config.DeviceConfig) (device.Switch, string, error) {
	switch dc.Kind {
	case config.DeviceHTTP:
		sw, err := device.NewHTTPSwitch(device.HTTPConfig{
			Address:     dc.Address,
			Port:        dc.Port,
			Path:        dc.Path,
			Timeout:     dc.Timeout,
			MinInterval: dc.MinInterval,
		})
		if err != nil {
			return nil, "", err
		}
		return sw, sw.URL(), nil
	case config.DeviceGPIO:
		line, err := gpio.NewRealLine(dc.GPIOChip, dc.GPIOLine, dc.ActiveLow)
		if err != nil {
			return nil, "", fmt.Errorf("init gpio: %w", err)
		}
		return gpio.NewRelaySwitch(line), fmt.Sprintf("gpio %s/%d", dc.GPIOChip, dc.GPIOLine), nil
	case config.DeviceNone:
		return device.Nop{}, "none", nil
	}
	return nil, "", fmt.Errorf("unknown device kind %q", dc.Kind)
}

func run(o options) error {
	cfg, err := loadConfig(o, os.LookupEnv)
	if err != nil {
		return err
	}

	log, logCloser, err := logx.New(logx.Config{
		Level:   cfg.Log.Level,
		File:    cfg.Log.FilePath(),
		Console: !cfg.Log.Quiet,
		Out:     os.Stderr,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if o.print {
		ctrl := controller.New(controller.Options{
			Source:   controller.FileSource(cfg.EventsFile),
			Location: loc,
			Log:      log,
		})
		rep, err := ctrl.Evaluate(time.Now())
		if err != nil {
			return err
		}
		controller.Describe(os.Stdout, rep)
		return nil
	}

	sw, deviceDesc, err := newSwitch(cfg.Device)
	if err != nil {
		return err
	}
	defer sw.Close()

	var hist history.Store
	if cfg.HistoryDB != "" {
		db, err := history.Open(cfg.HistoryDB, log)
		if err != nil {
			return err
		}
		hist = db
	} else {
		hist = history.NewMemory(100)
	}
	defer hist.Close()

	ctx := context.Background()

	if o.manual != "" {
		ctrl := controller.New(controller.Options{Switch: sw, History: hist, Log: log})
		return ctrl.Apply(ctx, time.Now(), logic.StateFromBool(o.manual == "on"), device.ModeManual)
	}

	// Initialize MQTT (optional)
	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topics:   mqtt.NewTopics(cfg.MQTT.TopicPrefix, cfg.MQTT.CommandTopic),
		}, log)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		EventsFile:  cfg.EventsFile,
		Timezone:    cfg.Timezone,
		Schedule:    cfg.Schedule,
		Device:      deviceDesc,
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.Listen,
	})

	ctrl := controller.New(controller.Options{
		Source:   controller.FileSource(cfg.EventsFile),
		Location: loc,
		Switch:   sw,
		History:  hist,
		MQTT:     publisher,
		Tracker:  tracker,
		Log:      log,
	})

	if o.once {
		_, err := ctrl.RunOnce(ctx, time.Now())
		if errors.Is(err, controller.ErrNoState) {
			return nil
		}
		return err
	}

	// Publish startup event with full status snapshot
	if publisher != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Warn().Err(err).Msg("failed to publish startup event")
		}
	}

	// Start HTTP status server
	if cfg.Listen != "" {
		srv := web.New(cfg.Listen, tracker, hist, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
		log.Info().Str("addr", cfg.Listen).Msg("http status server listening")
	}

	tick, stopCron, err := cronTicks(cfg.Schedule, loc, log)
	if err != nil {
		return err
	}
	defer stopCron()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	var changed <-chan struct{}
	if cfg.WatchEvents {
		changed, err = eventfile.Watch(watchCtx, cfg.EventsFile, log)
		if err != nil {
			return fmt.Errorf("watch events file: %w", err)
		}
	}

	var heartbeat <-chan time.Time
	if publisher != nil && cfg.MQTT.Heartbeat > 0 {
		hb := time.NewTicker(cfg.MQTT.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info().
		Str("events", cfg.EventsFile).
		Str("schedule", cfg.Schedule).
		Str("timezone", cfg.Timezone).
		Str("device", deviceDesc).
		Str("broker", cfg.MQTT.Broker).
		Msg("started")

	notify(log, daemon.SdNotifyReady)
	defer notify(log, daemon.SdNotifyStopping)

	return runLoop(ctrl, publisher, mqttStatus, tracker, log, time.Now, tick, changed, heartbeat, sigCh)
}

// cronTicks emits the current time on the returned channel whenever spec
// fires. Ticks are dropped while the previous one is still pending.
func cronTicks(spec string, loc *time.Location, log zerolog.Logger) (<-chan time.Time, func(), error) {
	ch := make(chan time.Time, 1)
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		select {
		case ch <- time.Now():
		default:
			log.Debug().Msg("previous cycle still pending, tick dropped")
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	return ch, func() { <-c.Stop().Done() }, nil
}

func notify(log zerolog.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warn().Err(err).Msg("systemd notify")
		return
	}
	if sent {
		log.Debug().Str("state", state).Msg("systemd notified")
	}
}

// runLoop evaluates the schedule once immediately and then on every tick or
// event file change, until a signal arrives.
func runLoop(ctrl *controller.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, log zerolog.Logger, now func() time.Time, tick <-chan time.Time, changed <-chan struct{}, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := func() {
		// failures are logged by the controller; the loop keeps going
		ctrl.RunOnce(ctx, now())
		if tracker != nil && mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	cycle()

	for {
		select {
		case s := <-sig:
			name := signalName(s)
			log.Info().Str("signal", name).Msg("shutting down")
			if publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    name,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", name)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warn().Err(err).Msg("failed to publish shutdown event")
			}
			return nil

		case <-tick:
			cycle()

		case <-changed:
			log.Info().Msg("event file changed")
			cycle()

		case <-heartbeat:
			if publisher == nil {
				continue
			}
			event := mqtt.SystemEvent{Timestamp: now(), Event: "HEARTBEAT"}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warn().Err(err).Msg("heartbeat publish error")
			}
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
