package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sweeney/pir-monitor/internal/config"
	"github.com/sweeney/pir-monitor/internal/gpio"
	"github.com/sweeney/pir-monitor/internal/logger"
	"github.com/sweeney/pir-monitor/internal/monitor"
	"github.com/sweeney/pir-monitor/internal/mqtt"
	"github.com/sweeney/pir-monitor/internal/status"
	"github.com/sweeney/pir-monitor/internal/version"
	"github.com/sweeney/pir-monitor/internal/web"
)

func run(ctx context.Context, cfg *config.Config) error {
	level, _ := logger.ParseLogLevel(cfg.LogLevel)
	logger.SetLevel(level)
	defer logger.Sync()
	ctx = logger.WithName(ctx, "pir-monitor")
	logger.Infof(ctx, "starting, %s", version.Full())

	wsBroker := resolveWSBroker(ctx, cfg.WSBroker, cfg.Broker)

	// Status tracker first so the STARTUP snapshot has something to show.
	tracker := status.NewTracker(time.Now(), status.Config{
		Pins:        status.Pins{Motion: cfg.MotionPin, LED: cfg.LEDPin, Door: cfg.DoorPin, Reset: cfg.ResetPin},
		PollMs:      cfg.PollInterval.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		WSBroker:    wsBroker,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	publisher, mqttStatus, err := openPublisher(ctx, cfg, tracker)
	if err != nil {
		return err
	}
	defer publisher.Close()

	dispatcher := monitor.NewDispatcher(ctx, monitor.DefaultQueueSize, tracker, mqtt.NewSink(ctx, publisher))

	mon, err := monitor.Open(ctx, openController(ctx, cfg.Chip), pins(cfg), cfg.PollInterval, dispatcher)
	if err != nil {
		return fmt.Errorf("init monitor: %w", err)
	}
	defer func() {
		if err := mon.Close(); err != nil {
			logger.Warnf(ctx, "gpio close failed: %v", err)
		}
	}()
	tracker.SetGPIO(mon.Status(), mon.Enabled())
	logger.InfoKV(ctx, mon.Status(), "chip", cfg.Chip)

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dispatcher.Run(runCtx)
	}()
	go func() {
		defer wg.Done()
		mon.Run(runCtx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	// Announce the initial state so the retained state topic is never stale.
	dispatcher.Publish(mon.Snapshot())

	publishSystem(ctx, publisher, mqttStatus, tracker, mqtt.EventStartup, "", true)

	if cfg.HTTPAddr != "" {
		var opts []web.Option
		if cfg.MQTTJS != "" {
			opts = append(opts, web.WithScriptFile(cfg.MQTTJS))
		}
		srv := web.New(ctx, cfg.HTTPAddr, tracker, opts...)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorKV(ctx, "http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.InfoKV(ctx, "started",
		"poll", cfg.PollInterval, "broker", cfg.Broker, "heartbeat", cfg.Heartbeat, "http", cfg.HTTPAddr)

	var heartbeat <-chan time.Time
	if cfg.Heartbeat > 0 {
		ticker := time.NewTicker(cfg.Heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(ctx, publisher, mqttStatus, tracker, heartbeat, sigCh)
}

// runLoop publishes heartbeats until a signal arrives or ctx is cancelled.
// A signal publishes SHUTDOWN with the signal name as reason.
func runLoop(ctx context.Context, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case s := <-sig:
			reason := signalName(s)
			logger.InfoKV(ctx, "shutting down", "signal", reason)
			publishSystem(ctx, publisher, mqttStatus, tracker, mqtt.EventShutdown, reason, true)
			return nil

		case <-heartbeat:
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			snap := publishSystem(ctx, publisher, mqttStatus, tracker, mqtt.EventHeartbeat, "", false)
			logger.InfoKV(ctx, "heartbeat",
				"uptime", snap.Uptime().Truncate(time.Second),
				"motion", snap.Sensor.MotionActive,
				"door", snap.Sensor.DoorOpen,
				"count", snap.Sensor.EventCount)
		}
	}
}

// publishSystem sends a lifecycle event carrying the full status snapshot
// and returns that snapshot.
func publishSystem(ctx context.Context, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, event, reason string, retained bool) status.Snapshot {
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
	snap := tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := publisher.PublishSystem(ev); err != nil {
		logger.WarnKV(ctx, "system event publish failed", "event", event, "error", err)
	} else {
		logger.DebugKV(ctx, "published system event", "event", event)
	}
	return snap
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

func pins(cfg *config.Config) monitor.Pins {
	return monitor.Pins{Motion: cfg.MotionPin, LED: cfg.LEDPin, Door: cfg.DoorPin, Reset: cfg.ResetPin}
}

// openController returns nil when the chip cannot be opened, which makes
// the monitor run disabled.
func openController(ctx context.Context, chip string) gpio.Controller {
	ctx = logger.WithKV(ctx, "chip", chip)
	c, err := gpio.Open(chip)
	if err != nil {
		logger.WarnKV(ctx, "gpio unavailable", "error", err)
		return nil
	}
	return c
}

func openPublisher(ctx context.Context, cfg *config.Config, tracker *status.Tracker) (mqtt.Publisher, mqtt.ConnectionStatus, error) {
	if cfg.Broker == "" {
		logger.Info(ctx, "mqtt disabled")
		return mqtt.NopPublisher{}, mqtt.NopPublisher{}, nil
	}

	p, err := mqtt.NewRealPublisher(ctx, mqtt.Options{
		Broker:             cfg.Broker,
		ClientID:           cfg.ClientID,
		OnConnectionChange: tracker.SetMQTTConnected,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init mqtt: %w", err)
	}
	return p, p, nil
}

// printState opens the lines once and prints their levels.
func printState(w io.Writer, cfg *config.Config) error {
	ctx := context.Background()

	ctrl := openController(ctx, cfg.Chip)
	if ctrl == nil {
		return fmt.Errorf("open %s: %w", cfg.Chip, gpio.ErrControllerUnavailable)
	}

	mon, err := monitor.Open(ctx, ctrl, pins(cfg), cfg.PollInterval, nil)
	if err != nil {
		_ = ctrl.Close()
		return fmt.Errorf("init monitor: %w", err)
	}
	defer mon.Close()

	levels, err := mon.Levels()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	_, err = fmt.Fprintln(w, formatLevels(levels))
	return err
}

func formatLevels(lv monitor.Levels) string {
	door := "CLOSED"
	if lv.Door == gpio.High {
		door = "OPEN"
	}
	reset := "RELEASED"
	if lv.Reset == gpio.Low {
		reset = "PRESSED"
	}
	return fmt.Sprintf("Motion: %s, Door: %s, Reset: %s", lv.Motion, door, reset)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the ws_broker setting into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" and
// an unusable broker disable it.
func resolveWSBroker(ctx context.Context, ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	if broker == "" {
		return ""
	}
	u, err := url.Parse(broker)
	if err != nil || u.Hostname() == "" {
		logger.WarnKV(ctx, "cannot derive websocket broker", "broker", broker, "error", err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
