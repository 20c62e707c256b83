// Command convoy shares the device location with a ride group and serves
// the other participants on a local map view.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/groupride/convoy/internal/config"
	"github.com/groupride/convoy/internal/logging"
	intOtel "github.com/groupride/convoy/internal/otel"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"log-level":  "logLevel",
	"logs-dir":   "logsDir",
	"transport":  "api.transport",
	"server-url": "api.serverUrl",
	"api-key":    "api.apiKey",
	"nats-url":   "nats.url",
	"interval":   "sync.interval",
	"vendor-id":  "device.vendorId",
	"position":   "device.position",
	"permission": "permission.initial",
	"theme":      "map.theme",
	"listen":     "map.listenAddr",
	"storage":    "storage.type",
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("convoy", pflag.ContinueOnError)
	flags.String("config-dir", ".", "directory containing "+config.FileName)
	flags.Bool("version", false, "print version and exit")

	flags.String("log-level", "info", "trace, debug, info, warn or error")
	flags.String("logs-dir", "./convoylogs", "directory for rolling log files")
	flags.String("transport", "http", "location service transport: http or nats")
	flags.String("server-url", "http://localhost:5000", "location service base URL")
	flags.String("api-key", "", "location service API key")
	flags.String("nats-url", "nats://127.0.0.1:4222", "NATS server URL")
	flags.Duration("interval", 5*time.Second, "sync interval")
	flags.String("vendor-id", "", "vendor device UUID; generated when empty")
	flags.String("position", "", "initial device position as long,lat")
	flags.String("permission", "undetermined", "initial location permission")
	flags.String("theme", "light", "initial theme: light or dark")
	flags.String("listen", ":8090", "map view listen address")
	flags.String("storage", "none", "ride log: none, memory, sqlite, postgres or influx")
	return flags
}

func bindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "convoy:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if v, _ := flags.GetBool("version"); v {
		fmt.Printf("convoy %s (%s)\n", Version, BuildDate)
		return nil
	}
	if err := bindFlags(flags); err != nil {
		return err
	}

	configDir, _ := flags.GetString("config-dir")
	cfgErr := config.Load(configDir)

	logger, logCloser, err := logging.Setup(config.GetLogConfig(), time.Now(), os.Stdout)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	if cfgErr != nil {
		logger.Warn().Err(cfgErr).Msg("No config file, using defaults and flags")
	}
	logger.Info().Str("version", Version).Str("buildDate", BuildDate).Msg("Starting up")

	mc := config.GetMetricsConfig()
	provider, err := intOtel.New(intOtel.Config{Enabled: mc.Enabled, ServiceName: mc.ServiceName})
	if err != nil {
		return fmt.Errorf("setting up metrics: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Metrics shutdown failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runApp(ctx, logger, provider.Handler())
}
