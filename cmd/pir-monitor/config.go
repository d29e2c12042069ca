package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sweeney/pir-monitor/internal/config"
)

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("chip") {
		cfg.Chip = f.chip
	}
	if changed("pin-motion") {
		cfg.MotionPin = f.pinMotion
	}
	if changed("pin-led") {
		cfg.LEDPin = f.pinLED
	}
	if changed("pin-door") {
		cfg.DoorPin = f.pinDoor
	}
	if changed("pin-reset") {
		cfg.ResetPin = f.pinReset
	}
	if changed("poll") {
		cfg.PollInterval = f.poll
	}
	if changed("broker") {
		cfg.Broker = f.broker
	}
	if changed("heartbeat") {
		cfg.Heartbeat = f.heartbeat
	}
	if changed("http") {
		cfg.HTTPAddr = f.httpAddr
	}
	if changed("ws-broker") {
		cfg.WSBroker = f.wsBroker
	}
	if changed("mqtt-js") {
		cfg.MQTTJS = f.mqttJS
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// saveConfig writes cfg to path so the flags used can become a settings file.
func saveConfig(w io.Writer, path string, cfg *config.Config) error {
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	_, err := fmt.Fprintf(w, "settings written to %s\n", path)
	return err
}
