// Command pir-monitor watches a PIR motion sensor, a door switch and a
// reset button, and publishes the derived state over HTTP and MQTT.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sweeney/pir-monitor/internal/config"
	"github.com/sweeney/pir-monitor/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flags holds command-line values. They override the config file only
// when set explicitly.
type flags struct {
	configPath string
	chip       string
	pinMotion  int
	pinLED     int
	pinDoor    int
	pinReset   int
	poll       time.Duration
	broker     string
	heartbeat  time.Duration
	httpAddr   string
	wsBroker   string
	mqttJS     string
	logLevel   string
	printState bool
	saveConfig string
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "pir-monitor",
		Short: "Watch PIR motion, door and reset inputs and publish their state.",
		Long: `Watches a PIR motion sensor (edge events), a door switch and a counter
reset button (polled) on a GPIO chip. Motion drives an indicator LED.
The derived state is served on an HTTP status page and published to MQTT.

Settings come from a YAML file (--config, default pir-monitor.yaml if present);
flags given on the command line override it.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, &f)
			if err != nil {
				return err
			}
			if f.saveConfig != "" {
				return saveConfig(cmd.OutOrStdout(), f.saveConfig, cfg)
			}
			if f.printState {
				return printState(cmd.OutOrStdout(), cfg)
			}
			return run(cmd.Context(), cfg)
		},
	}

	bindFlags(root.Flags(), &f)

	version.AttachCobraVersionCommand(root)

	return root
}

func bindFlags(fl *pflag.FlagSet, f *flags) {
	def := config.Default()

	fl.StringVarP(&f.configPath, "config", "c", "", "path to configuration file")
	fl.StringVar(&f.chip, "chip", def.Chip, "GPIO chip name")
	fl.IntVar(&f.pinMotion, "pin-motion", def.MotionPin, "BCM pin of the PIR sensor")
	fl.IntVar(&f.pinLED, "pin-led", def.LEDPin, "BCM pin of the motion LED")
	fl.IntVar(&f.pinDoor, "pin-door", def.DoorPin, "BCM pin of the door switch")
	fl.IntVar(&f.pinReset, "pin-reset", def.ResetPin, "BCM pin of the reset button")
	fl.DurationVar(&f.poll, "poll", def.PollInterval, "door/reset polling interval")
	fl.StringVar(&f.broker, "broker", def.Broker, "MQTT broker address (empty to disable)")
	fl.DurationVar(&f.heartbeat, "heartbeat", def.Heartbeat, "heartbeat interval (0 to disable)")
	fl.StringVar(&f.httpAddr, "http", def.HTTPAddr, "HTTP status address (empty to disable)")
	fl.StringVar(&f.wsBroker, "ws-broker", def.WSBroker,
		`MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	fl.StringVar(&f.mqttJS, "mqtt-js", def.MQTTJS, "local mqtt.js bundle for the live page (empty loads it from a CDN)")
	fl.StringVar(&f.logLevel, "log-level", def.LogLevel, "log level: debug, info, warn, error")
	fl.BoolVar(&f.printState, "print-state", false, "print current line levels and exit")
	fl.StringVar(&f.saveConfig, "save-config", "", "write the effective settings to this file and exit")
}
