// Command bandswitch drives an RF amplifier's band filter board: it follows
// the radio's CAT band voltage or the front panel button, guards against
// band changes while transmitting or overheating, and publishes state
// changes to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/bandswitch/internal/adc"
	"github.com/sweeney/bandswitch/internal/clock"
	"github.com/sweeney/bandswitch/internal/config"
	"github.com/sweeney/bandswitch/internal/control"
	"github.com/sweeney/bandswitch/internal/eeprom"
	"github.com/sweeney/bandswitch/internal/gpio"
	"github.com/sweeney/bandswitch/internal/logging"
	"github.com/sweeney/bandswitch/internal/logic"
	"github.com/sweeney/bandswitch/internal/mqtt"
	"github.com/sweeney/bandswitch/internal/status"
	"github.com/sweeney/bandswitch/internal/web"
)

// flags holds command line overrides. Only flags given on the command line
// replace config file values.
type flags struct {
	fs         *flag.FlagSet
	configPath *string
	poll       *time.Duration
	heartbeat  *time.Duration
	broker     *string
	httpAddr   *string
	store      *string
	chip       *string
	logFile    *string
	printState *bool
}

func newFlags(fs *flag.FlagSet) *flags {
	def := config.Default()
	return &flags{
		fs:         fs,
		configPath: fs.String("config", "/etc/bandswitch/bandswitch.yaml", "YAML config file (missing file uses defaults)"),
		poll:       fs.Duration("poll", def.Poll, "Control loop interval"),
		heartbeat:  fs.Duration("heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)"),
		broker:     fs.String("broker", def.Broker, "MQTT broker address (empty to disable)"),
		httpAddr:   fs.String("http", def.HTTP, "HTTP status address (empty to disable)"),
		store:      fs.String("store", def.Store, "Directory of the persistent record"),
		chip:       fs.String("gpio-chip", def.GPIO.Chip, "GPIO character device"),
		logFile:    fs.String("log-file", def.Logging.File, "Rotated log file (empty for stderr only)"),
		printState: fs.Bool("print-state", false, "Print the stored band and CAT mode and exit"),
	}
}

// apply copies explicitly set flags over cfg.
func (f *flags) apply(cfg *config.Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "poll":
			cfg.Poll = *f.poll
		case "heartbeat":
			cfg.Heartbeat = *f.heartbeat
		case "broker":
			cfg.Broker = *f.broker
		case "http":
			cfg.HTTP = *f.httpAddr
		case "store":
			cfg.Store = *f.store
		case "gpio-chip":
			cfg.GPIO.Chip = *f.chip
		case "log-file":
			cfg.Logging.File = *f.logFile
		}
	})
}

func main() {
	f := newFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(*f.configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *f.printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printState bool) error {
	logCloser, err := logging.Setup(cfg.Logging, os.Stderr)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logCloser.Close()

	store, err := eeprom.OpenPebbleStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if printState {
		return printRecord(os.Stdout, eeprom.NewRecord(store, control.DefaultOptions().DefaultCATAuto))
	}

	lines, err := gpio.NewRealLines(cfg.GPIO.Chip, cfg.PinMap())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer lines.Close()

	analog, err := adc.NewADS1115Reader(cfg.ADC.Bus, cfg.ADC.Address, cfg.ChannelMap())
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer analog.Close()

	ctrl := control.New(control.Hardware{
		Analog: analog,
		Lines:  lines,
		Store:  store,
		Clock:  clock.NewReal(),
	}, cfg.ControlOptions())
	if err := ctrl.Initialize(); err != nil {
		return fmt.Errorf("initialize controller: %w", err)
	}
	log.Printf("initialized: band=%s cat_auto=%v", ctrl.Band(), ctrl.AutoCATMode())

	var publisher mqtt.Publisher = mqtt.Discard{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.Discard{}
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	updateTracker(tracker, ctrl, logic.EventCounts{}, mqttStatus)

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	log.Printf("started: poll=%v refresh=%v long_press=%v broker=%q heartbeat=%v",
		cfg.Poll, cfg.Refresh, cfg.LongPress, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, mqttStatus, tracker, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(ctrl *control.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	monitor := logic.NewMonitor(now())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				updateTracker(tracker, ctrl, monitor.Counts(), mqttStatus)
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			if err := ctrl.PollOnce(); err != nil {
				log.Printf("poll error: %v", err)
			}

			events := ctrl.DrainEvents()
			for _, event := range events {
				log.Printf("event: %s (band=%s cat_auto=%v temp=%dC)", event.Type, event.Band, event.CATAuto, event.Temperature)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
				}
			}
			monitor.Record(events)

			if tracker != nil {
				updateTracker(tracker, ctrl, monitor.Counts(), mqttStatus)
			}

			if hb := monitor.CheckHeartbeat(t, heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v band_changes=%d cat_toggles=%d temp_alarms=%d",
					hb.Uptime, hb.Counts.BandChanges, hb.Counts.CATToggles, hb.Counts.TempAlarms)
				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func updateTracker(tracker *status.Tracker, ctrl *control.Controller, counts logic.EventCounts, mqttStatus mqtt.ConnectionStatus) {
	tx, err := ctrl.IsTransmitting()
	if err != nil {
		log.Printf("read tx: %v", err)
	}
	celsius, safe := ctrl.Temperature()
	tracker.Update(status.State{
		Initialized:  ctrl.Initialized(),
		Band:         ctrl.Band(),
		CATAuto:      ctrl.AutoCATMode(),
		Transmitting: tx,
		TemperatureC: celsius,
		Safe:         safe,
	}, counts)
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PollMs:           cfg.Poll.Milliseconds(),
		RefreshMs:        cfg.Refresh.Milliseconds(),
		LongPressMs:      cfg.LongPress.Milliseconds(),
		SafetyIntervalMs: cfg.SafetyInterval.Milliseconds(),
		HeartbeatMs:      cfg.Heartbeat.Milliseconds(),
		Broker:           cfg.Broker,
		HTTPAddr:         cfg.HTTP,
	}
}

func printRecord(w io.Writer, rec *eeprom.Record) error {
	band, catAuto, ok, err := rec.Stored()
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	if !ok {
		fmt.Fprintln(w, "no stored configuration (defaults apply)")
		return nil
	}
	fmt.Fprintf(w, "band: %s, cat: %s\n", band, modeString(catAuto))
	return nil
}

func modeString(catAuto bool) string {
	if catAuto {
		return "AUTO"
	}
	return "MANUAL"
}
