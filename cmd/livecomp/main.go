package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dooshek/livecomp/internal/audio"
	"github.com/dooshek/livecomp/internal/compressor"
	"github.com/dooshek/livecomp/internal/config"
	"github.com/dooshek/livecomp/internal/dbus"
	"github.com/dooshek/livecomp/internal/fileops"
	"github.com/dooshek/livecomp/internal/logger"
	"github.com/dooshek/livecomp/internal/metrics"
	"github.com/dooshek/livecomp/internal/state"
	"github.com/dooshek/livecomp/internal/stats"
	"github.com/dooshek/livecomp/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	// Set custom usage message to show -- prefix
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(out, "  %s [flags]            run the live compressor\n", os.Args[0])
		fmt.Fprintf(out, "  %s render [flags]     compress a mono WAV file\n\n", os.Args[0])
		printFlags(flag.CommandLine)
	}
}

func printFlags(fs *flag.FlagSet) {
	out := fs.Output()
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Fprintf(out, "  --%s", f.Name)
		name, usage := flag.UnquoteUsage(f)
		if len(name) > 0 {
			fmt.Fprintf(out, " %s", name)
		}
		fmt.Fprintf(out, "\n    \t%s", usage)
		if f.DefValue != "" && f.DefValue != "false" {
			fmt.Fprintf(out, " (default %q)", f.DefValue)
		}
		fmt.Fprintf(out, "\n")
	})
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "render" {
		os.Exit(runRender(os.Args[2:]))
	}
	os.Exit(run())
}

func run() int {
	logLevel := flag.String("log-level", "", "Set log level (debug|info|warn|error), overrides the config file")
	logFilename := flag.String("log-filename", "", "Log to file instead of stdout")
	configPath := flag.String("config", "", "Read configuration from this file instead of ~/.config/livecomp/livecomp.yaml")
	initConfig := flag.Bool("init-config", false, "Write a configuration file with all defaults and exit")
	flag.Parse()

	if *initConfig {
		if err := config.SaveConfig(config.Defaults()); err != nil {
			logger.Error("Failed to write configuration", err)
			return 1
		}
		logger.Info("✅ Configuration written")
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("Error loading config", err)
		return 1
	}

	// Set up logging level and output; flags win over the config file
	logCfg := cfg.GetLogConfig()
	if *logLevel != "" {
		logCfg.Level = *logLevel
	}
	if *logFilename != "" {
		logCfg.Filename = *logFilename
	}
	logger.SetLevel(logCfg.Level)
	if logCfg.Filename != "" {
		if err := logger.SetOutputFile(logCfg.Filename); err != nil {
			fmt.Printf("Error setting log file: %v\n", err)
			return 1
		}
		defer logger.CloseLogFile()
	}

	params, err := config.CompressorParams(cfg)
	if err != nil {
		logger.Error("Invalid compressor configuration", err)
		return 1
	}
	state.Init(cfg, params)

	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		logger.Error("Failed to initialize file operations", err)
		return 1
	}
	if err := fileOps.EnsureDirectories(); err != nil {
		logger.Error("Failed to create necessary directories", err)
		return 1
	}

	// Two instances would fight over the default devices
	if err := fileOps.CheckPID(); err != nil {
		if errors.Is(err, fileops.ErrProcessAlreadyRunning) {
			logger.Error("Another instance of livecomp is already running", err)
			return 1
		}
		logger.Warnf("Could not check PID file: %v", err)
	}
	if err := fileOps.SavePID(); err != nil {
		logger.Error("Failed to save PID file", err)
		return 1
	}
	defer func() {
		if err := fileOps.CleanupPID(); err != nil {
			logger.Error("Failed to cleanup PID file", err)
		}
	}()

	return runLive(state.Get())
}

func loadConfig(path string) (*types.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		logger.Debug("No configuration file found, using defaults")
		cfg = &types.Config{}
	}
	return cfg, nil
}

func runLive(app *state.AppState) int {
	comp, err := compressor.New(app.Params)
	if err != nil {
		logger.Error("Failed to create compressor", err)
		return 1
	}

	host, err := audio.NewMalgoHost()
	if err != nil {
		logger.Error("Failed to initialize audio backend", err)
		return 1
	}
	defer func() {
		if err := host.Close(); err != nil {
			logger.Error("Failed to terminate audio backend", err)
		}
	}()

	streamCfg := app.GetStreamConfig()
	sessionStats := stats.NewSession(streamCfg.SampleRate)
	registry := prometheus.NewRegistry()
	opts := []audio.Option{
		audio.WithObserver(sessionStats),
		audio.WithObserver(metrics.New(registry)),
	}

	var meter *audio.LevelMeter
	if app.Config.Meter.Enabled {
		meter = audio.NewLevelMeter()
		opts = append(opts, audio.WithObserver(meter))
	}

	session, err := audio.NewSession(host, comp, audio.StreamConfig{
		SampleRate:      streamCfg.SampleRate,
		FramesPerBuffer: streamCfg.FramesPerBuffer,
	}, opts...)
	if err != nil {
		logger.Error("Invalid stream configuration", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if metricsCfg := app.Config.GetMetricsConfig(); metricsCfg.Enabled {
		go func() {
			if err := metrics.Serve(ctx, metricsCfg.Address, registry); err != nil {
				logger.Error("Metrics server stopped", err)
			}
		}()
	}

	var bus *dbus.Server
	if app.Config.DBus.Enabled {
		bus = dbus.NewServer(session, sessionStats, stop)
		if err := bus.Start(); err != nil {
			// The stream is still usable without remote control
			logger.Warnf("D-Bus control unavailable: %v", err)
			bus = nil
		} else {
			defer bus.Close()
		}
	}

	if err := session.Start(); err != nil {
		logger.Error("Failed to start audio stream", err)
		return 1
	}
	sessionStats.Begin()
	if bus != nil {
		bus.StreamStarted()
	}

	printBanner(os.Stdout, app.Params, streamCfg)
	go waitForEnter(os.Stdin, stop)
	if meter != nil {
		go showLevels(ctx, os.Stdout, meter.Levels())
	}

	<-ctx.Done()

	if err := session.Stop(); err != nil {
		logger.Error("Errors while stopping the stream", err)
	}
	sessionStats.End()
	if bus != nil {
		bus.StreamStopped()
	}

	printSummary(os.Stdout, sessionStats.Snapshot())
	return 0
}

// waitForEnter calls stop when a line is read from r. Without a terminal
// (EOF right away) the stream keeps running until a signal arrives.
func waitForEnter(r *os.File, stop context.CancelFunc) {
	if _, err := bufio.NewReader(r).ReadString('\n'); err != nil {
		logger.Debugf("Stdin closed (%v), waiting for a signal to stop", err)
		return
	}
	stop()
}
