package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	output  io.Writer = os.Stdout
	logFile *os.File
	logger  zerolog.Logger
)

// SetOutputFile sets the logger output to a file
func SetOutputFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	output = f

	initLogger()
	return nil
}

// SetOutput redirects the logger to w. Colors are disabled for anything but stdout.
func SetOutput(w io.Writer) {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	output = w
	initLogger()
}

// CloseLogFile closes the log file if it's open
func CloseLogFile() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
		output = os.Stdout
		initLogger()
	}
}

func initLogger() {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: "15:04:05",
		NoColor:    output != os.Stdout,
	}

	logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
}

func init() {
	initLogger()
}

// SetLevel sets the global log level. Unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := ParseLevel(level)
	if err != nil {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger.Warn().Str("level", level).Msg("Unknown log level, using info")
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// With returns a child logger tagged with the given component name
func With(component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// Debug logs a debug message
func Debug(msg string) {
	logger.Debug().Msg(msg)
}

// Debugf logs a debug message with formatting
func Debugf(format string, v ...interface{}) {
	logger.Debug().Msgf(format, v...)
}

// Info logs an info message
func Info(msg string) {
	logger.Info().Msg(msg)
}

// Infof logs an info message with formatting
func Infof(format string, v ...interface{}) {
	logger.Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(msg string) {
	logger.Warn().Msg(msg)
}

// Warnf logs a warning message with formatting
func Warnf(format string, v ...interface{}) {
	logger.Warn().Msgf(format, v...)
}

// Error logs an error message with the error object
func Error(msg string, err error) {
	logger.Error().Err(err).Msg(msg)
}

// Errorf logs an error message with formatting and the error object
func Errorf(format string, err error, v ...interface{}) {
	logger.Error().Err(err).Msgf(format, v...)
}
