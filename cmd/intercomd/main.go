// Command intercomd runs the intercom mixing core as a standalone
// process: it loads a YAML topology/config file, drives the periodic
// mixing tick on a ticker matching the configured sample rate and frame
// size, and prints a health record to stdout at a fixed interval
// (--stats-every). It does not print state records.
//
// Audio transport is intentionally absent — this binary demonstrates and
// exercises the core's control surface; a real deployment wires
// PushTabletFramePCM16/PullTabletFramePCM16 to whatever carries audio
// to/from tablets and channels (RTP, WebSocket, USB device, etc).
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/opsdesk/intercom"
	"github.com/opsdesk/intercom/internal/telemetry"
)

// fileConfig is the on-disk YAML shape for a topology and initial mix
// configuration.
type fileConfig struct {
	Fs          int     `yaml:"fs"`
	FrameSize   int     `yaml:"frame_size"`
	HeadroomDB  float64 `yaml:"headroom_db"`
	NumChannels int     `yaml:"num_channels"`
	NumTablets  int     `yaml:"num_tablets"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Fs:          48000,
		FrameSize:   960,
		HeadroomDB:  0,
		NumChannels: 4,
		NumTablets:  16,
	}
}

func loadConfig(path string) (fileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to a YAML config file")
		logLevel   = pflag.String("log-level", "info", "log level (debug, info, warn, error)")
		statsEvery = pflag.Duration("stats-every", 5*time.Second, "how often to print a health record to stdout")
		help       = pflag.BoolP("help", "h", false, "show usage")
	)
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "intercomd runs the intercom mixing core against a YAML config file.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Usage:")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logrus.WithField("log_level", *logLevel).Warn("unrecognized log level, defaulting to info")
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	fcfg, err := loadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	sink := telemetry.NewLogrusSink()
	core, err := intercom.New(intercom.Config{
		Fs:         fcfg.Fs,
		FrameSize:  fcfg.FrameSize,
		HeadroomDB: fcfg.HeadroomDB,
	}, fcfg.NumChannels, fcfg.NumTablets, sink)
	if err != nil {
		logrus.WithError(err).Fatal("failed to construct core")
	}

	if err := core.SetUniformRouting(-12); err != nil {
		logrus.WithError(err).Fatal("failed to apply initial routing")
	}

	frameTime := time.Duration(float64(fcfg.FrameSize) / float64(fcfg.Fs) * float64(time.Second))
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	statsTicker := time.NewTicker(*statsEvery)
	defer statsTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	logrus.WithFields(logrus.Fields{
		"fs":           fcfg.Fs,
		"frame_size":   fcfg.FrameSize,
		"frame_period": frameTime,
		"channels":     fcfg.NumChannels,
		"tablets":      fcfg.NumTablets,
	}).Info("intercomd starting")

	for {
		select {
		case <-ticker.C:
			core.Tick()
		case <-statsTicker.C:
			printHealth(core)
		case s := <-sig:
			logrus.WithField("signal", s.String()).Info("intercomd shutting down")
			return
		}
	}
}

func printHealth(core *intercom.Core) {
	h := core.HealthRecord()
	data, err := json.Marshal(h)
	if err != nil {
		logrus.WithError(err).Warn("failed to marshal health record")
		return
	}
	fmt.Fprintln(os.Stdout, string(data))
}
