package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dooshek/livecomp/internal/logger"
)

// ErrConfigNotFound is returned when a configuration file does not exist
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrProcessAlreadyRunning is returned when another livecomp process holds the audio devices
var ErrProcessAlreadyRunning = errors.New("livecomp process is already running")

// FileOps defines operations on the livecomp config directory
type FileOps interface {
	// GetConfigDir returns the full path to the livecomp config directory
	GetConfigDir() string

	// GetLogsDir returns the directory used for log files
	GetLogsDir() string

	// SaveConfig saves data to a file in the config directory
	SaveConfig(filename string, data []byte) error

	// LoadConfig loads data from a file in the config directory
	LoadConfig(filename string) ([]byte, error)

	// EnsureDirectories creates necessary directories if they don't exist
	EnsureDirectories() error

	// SavePID saves the current process ID to a file
	SavePID() error

	// CheckPID returns ErrProcessAlreadyRunning if another instance is running
	CheckPID() error

	// CleanupPID removes the PID file
	CleanupPID() error
}

// DefaultFileOps implements FileOps on top of a single config directory
type DefaultFileOps struct {
	configDir string
}

// NewDefaultFileOps uses ~/.config/livecomp
func NewDefaultFileOps() (*DefaultFileOps, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewFileOps(filepath.Join(homeDir, ".config", "livecomp")), nil
}

// NewFileOps roots all files under configDir
func NewFileOps(configDir string) *DefaultFileOps {
	return &DefaultFileOps{configDir: configDir}
}

func (f *DefaultFileOps) GetConfigDir() string {
	return f.configDir
}

func (f *DefaultFileOps) GetLogsDir() string {
	return filepath.Join(f.configDir, "logs")
}

func (f *DefaultFileOps) SaveConfig(filename string, data []byte) error {
	path := filepath.Join(f.configDir, filename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename temp config file: %w", err)
	}
	return nil
}

func (f *DefaultFileOps) LoadConfig(filename string) ([]byte, error) {
	path := filepath.Join(f.configDir, filename)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	return data, err
}

func (f *DefaultFileOps) EnsureDirectories() error {
	for _, dir := range []string{f.configDir, f.GetLogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (f *DefaultFileOps) getPIDFilePath() string {
	return filepath.Join(f.configDir, "livecomp.pid")
}

func (f *DefaultFileOps) SavePID() error {
	return os.WriteFile(f.getPIDFilePath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func (f *DefaultFileOps) CheckPID() error {
	data, err := os.ReadFile(f.getPIDFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("invalid PID in file: %w", err)
	}
	if pid == os.Getpid() {
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}

	// Signal 0 only probes for existence
	if err := process.Signal(syscall.Signal(0)); err == nil {
		return ErrProcessAlreadyRunning
	}

	logger.Debug("Found stale PID file, will be overwritten")
	return nil
}

func (f *DefaultFileOps) CleanupPID() error {
	err := os.Remove(f.getPIDFilePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
