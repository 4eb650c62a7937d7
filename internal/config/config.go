package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/dooshek/livecomp/internal/compressor"
	"github.com/dooshek/livecomp/internal/fileops"
	"github.com/dooshek/livecomp/internal/logger"
	"github.com/dooshek/livecomp/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	configFilename = "livecomp.yaml"

	maxSampleRate      = 384000
	maxFramesPerBuffer = 16384
)

// LoadConfig reads livecomp.yaml from the default config directory.
// A missing file yields (nil, nil).
func LoadConfig() (*types.Config, error) {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file operations: %w", err)
	}
	return loadFrom(fileOps)
}

func loadFrom(fileOps fileops.FileOps) (*types.Config, error) {
	data, err := fileOps.LoadConfig(configFilename)
	if err != nil {
		if errors.Is(err, fileops.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parse(data)
}

// LoadFile reads a config from an explicit path. Unlike LoadConfig a missing
// file is an error.
func LoadFile(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*types.Config, error) {
	var config types.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Validate checks the values a user can set. Zero values are left to the
// defaults applied by the types getters.
func Validate(c *types.Config) error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	s := c.Stream
	if s.SampleRate < 0 || s.SampleRate > maxSampleRate {
		return fmt.Errorf("stream.sample_rate must be between 1 and %d, got %d", maxSampleRate, s.SampleRate)
	}
	if s.FramesPerBuffer < 0 || s.FramesPerBuffer > maxFramesPerBuffer {
		return fmt.Errorf("stream.frames_per_buffer must be between 1 and %d, got %d", maxFramesPerBuffer, s.FramesPerBuffer)
	}

	if _, err := compressor.ParseMode(c.Compressor.Mode); err != nil {
		return fmt.Errorf("compressor.mode: %w", err)
	}

	if c.Metrics.Enabled && c.Metrics.Address != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			return fmt.Errorf("metrics.address: %w", err)
		}
	}

	return nil
}

// SaveConfig merges config into the existing file, if any, and writes it back.
func SaveConfig(config *types.Config) error {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return fmt.Errorf("failed to initialize file operations: %w", err)
	}
	return saveTo(fileOps, config)
}

func saveTo(fileOps fileops.FileOps, config *types.Config) error {
	if err := fileOps.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	existingConfig, err := loadFrom(fileOps)
	if err != nil {
		logger.Warnf("Failed to load existing config: %v", err)
	} else if existingConfig != nil {
		mergeConfigs(existingConfig, config)
		config = existingConfig
	}

	if err := Validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileOps.SaveConfig(configFilename, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Defaults returns a config with every default spelled out, suitable for
// writing a starter file.
func Defaults() *types.Config {
	empty := &types.Config{}
	return &types.Config{
		Log:        empty.GetLogConfig(),
		Stream:     empty.GetStreamConfig(),
		Compressor: types.CompressorConfig{Mode: string(compressor.ModeReference)},
		Metrics:    empty.GetMetricsConfig(),
	}
}

// mergeConfigs copies explicitly set fields of sourceConfig into targetConfig.
// Booleans always win since false cannot be told apart from unset.
func mergeConfigs(targetConfig, sourceConfig *types.Config) {
	if sourceConfig.Log.Level != "" {
		targetConfig.Log.Level = sourceConfig.Log.Level
	}
	if sourceConfig.Log.Filename != "" {
		targetConfig.Log.Filename = sourceConfig.Log.Filename
	}

	if sourceConfig.Stream.SampleRate != 0 {
		targetConfig.Stream.SampleRate = sourceConfig.Stream.SampleRate
	}
	if sourceConfig.Stream.FramesPerBuffer != 0 {
		targetConfig.Stream.FramesPerBuffer = sourceConfig.Stream.FramesPerBuffer
	}

	if sourceConfig.Compressor.Mode != "" {
		targetConfig.Compressor.Mode = sourceConfig.Compressor.Mode
	}

	if sourceConfig.Metrics.Address != "" {
		targetConfig.Metrics.Address = sourceConfig.Metrics.Address
	}
	targetConfig.Metrics.Enabled = sourceConfig.Metrics.Enabled
	targetConfig.DBus.Enabled = sourceConfig.DBus.Enabled
	targetConfig.Meter.Enabled = sourceConfig.Meter.Enabled
}

// CompressorParams returns the compiled-in compressor settings with the
// configured release mode applied.
func CompressorParams(c *types.Config) (compressor.Params, error) {
	mode, err := compressor.ParseMode(c.Compressor.Mode)
	if err != nil {
		return compressor.Params{}, err
	}
	p := compressor.DefaultParams()
	p.Mode = mode
	return p, nil
}
