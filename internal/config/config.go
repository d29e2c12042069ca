// Package config loads and validates pir-monitor settings from YAML.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/pir-monitor/internal/gpio"
	"github.com/sweeney/pir-monitor/internal/logger"
)

// Config holds daemon settings. Zero durations and empty strings are
// replaced by defaults in Validate, except where noted.
type Config struct {
	// Chip is the GPIO character device name.
	Chip string `yaml:"chip"`
	// MotionPin is the PIR input, watched for edges.
	MotionPin int `yaml:"motion_pin"`
	// LEDPin is the motion indicator output.
	LEDPin int `yaml:"led_pin"`
	// DoorPin is the door switch input (pull-up, high = open).
	DoorPin int `yaml:"door_pin"`
	// ResetPin is the counter reset button input (pull-up, low = pressed).
	ResetPin int `yaml:"reset_pin"`
	// PollInterval is the door/reset polling cadence.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Broker is the MQTT broker URL. Empty disables MQTT.
	Broker string `yaml:"broker"`
	// ClientID is the MQTT client identifier.
	ClientID string `yaml:"client_id"`
	// Heartbeat is the interval between HEARTBEAT events. 0 disables.
	Heartbeat time.Duration `yaml:"heartbeat"`
	// HTTPAddr is the status server address. Empty disables it.
	HTTPAddr string `yaml:"http_addr"`
	// WSBroker is the MQTT websocket URL for the live status page.
	// "=broker" derives it from Broker, "off" disables.
	WSBroker string `yaml:"ws_broker"`
	// MQTTJS is a local mqtt.js bundle served to the live page. Empty loads
	// it from a CDN.
	MQTTJS string `yaml:"mqtt_js,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is looked up in the working directory when no
	// path is given.
	DefaultConfigFilename = "pir-monitor.yaml"

	DefaultPollInterval = 500 * time.Millisecond
	DefaultHeartbeat    = 15 * time.Minute
	DefaultBroker       = "tcp://192.168.1.200:1883"
	DefaultClientID     = "pir-monitor"
	DefaultHTTPAddr     = ":80"
	DefaultWSBroker     = "=broker"
	DefaultLogLevel     = "info"
)

var (
	errConfigIsNotSet   = errors.New("configuration is not set")
	errPollInterval     = errors.New("poll_interval must be greater than zero")
	errNegativeInterval = errors.New("heartbeat must not be negative")
)

// Default returns a Config populated with the default pins and settings.
func Default() *Config {
	return &Config{
		Chip:         gpio.DefaultChip,
		MotionPin:    gpio.DefaultPinMotion,
		LEDPin:       gpio.DefaultPinLED,
		DoorPin:      gpio.DefaultPinDoor,
		ResetPin:     gpio.DefaultPinReset,
		PollInterval: DefaultPollInterval,
		Broker:       DefaultBroker,
		ClientID:     DefaultClientID,
		Heartbeat:    DefaultHeartbeat,
		HTTPAddr:     DefaultHTTPAddr,
		WSBroker:     DefaultWSBroker,
		LogLevel:     DefaultLogLevel,
	}
}

// Load reads configuration from path on top of Default and validates it.
// An empty path reads DefaultConfigFilename if it exists and falls back to
// defaults otherwise; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case !explicit && errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks pins, intervals and URLs, filling in defaults for
// fields left empty.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Chip == "" {
		cfg.Chip = gpio.DefaultChip
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	pins := map[string]int{
		"motion_pin": cfg.MotionPin,
		"led_pin":    cfg.LEDPin,
		"door_pin":   cfg.DoorPin,
		"reset_pin":  cfg.ResetPin,
	}
	seen := make(map[int]string, len(pins))
	for _, name := range []string{"motion_pin", "led_pin", "door_pin", "reset_pin"} {
		pin := pins[name]
		if pin < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, pin)
		}
		if other, dup := seen[pin]; dup {
			return fmt.Errorf("%s and %s both use pin %d", other, name, pin)
		}
		seen[pin] = name
	}

	if cfg.PollInterval <= 0 {
		return errPollInterval
	}
	if cfg.Heartbeat < 0 {
		return errNegativeInterval
	}

	if cfg.Broker != "" {
		u, err := url.Parse(cfg.Broker)
		if err != nil {
			return fmt.Errorf("invalid broker: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid broker %q: want scheme://host:port", cfg.Broker)
		}
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}

	return nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}
	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}
