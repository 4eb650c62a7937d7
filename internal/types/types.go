package types

const (
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 256
	DefaultMetricsAddress  = "127.0.0.1:9464"
	DefaultLogLevel        = "info"
)

type LogConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Filename string `yaml:"filename"` // empty logs to stdout
}

// StreamConfig holds the fixed session settings of the duplex stream
type StreamConfig struct {
	SampleRate      int `yaml:"sample_rate"`
	FramesPerBuffer int `yaml:"frames_per_buffer"`
}

// CompressorConfig only exposes the release behaviour; the numeric
// parameters are compiled in.
type CompressorConfig struct {
	Mode string `yaml:"mode"` // "reference" or "continuous-release"
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type DBusConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MeterConfig struct {
	Enabled bool `yaml:"enabled"` // print the output level while running
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Stream     StreamConfig     `yaml:"stream"`
	Compressor CompressorConfig `yaml:"compressor"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	DBus       DBusConfig       `yaml:"dbus"`
	Meter      MeterConfig      `yaml:"meter"`
}

// GetStreamConfig returns stream settings with defaults
func (c *Config) GetStreamConfig() StreamConfig {
	config := c.Stream
	if config.SampleRate == 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.FramesPerBuffer == 0 {
		config.FramesPerBuffer = DefaultFramesPerBuffer
	}
	return config
}

func (c *Config) GetLogConfig() LogConfig {
	config := c.Log
	if config.Level == "" {
		config.Level = DefaultLogLevel
	}
	return config
}

// GetMetricsConfig returns metrics settings with the default listen address
func (c *Config) GetMetricsConfig() MetricsConfig {
	config := c.Metrics
	if config.Address == "" {
		config.Address = DefaultMetricsAddress
	}
	return config
}
