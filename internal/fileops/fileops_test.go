package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissing(t *testing.T) {
	f := NewFileOps(t.TempDir())
	if _, err := f.LoadConfig("livecomp.yaml"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig() error = %v, want ErrConfigNotFound", err)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	f := NewFileOps(filepath.Join(t.TempDir(), "livecomp"))
	if err := f.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	if _, err := os.Stat(f.GetLogsDir()); err != nil {
		t.Fatalf("logs dir missing: %v", err)
	}

	want := []byte("stream:\n  sample_rate: 48000\n")
	if err := f.SaveConfig("livecomp.yaml", want); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	got, err := f.LoadConfig("livecomp.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("LoadConfig() = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(f.GetConfigDir(), "livecomp.yaml.tmp")); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestPIDLifecycle(t *testing.T) {
	f := NewFileOps(t.TempDir())

	if err := f.CheckPID(); err != nil {
		t.Fatalf("CheckPID() without file = %v", err)
	}
	if err := f.SavePID(); err != nil {
		t.Fatalf("SavePID() error = %v", err)
	}
	// Our own PID is not another instance.
	if err := f.CheckPID(); err != nil {
		t.Errorf("CheckPID() with own PID = %v", err)
	}
	if err := f.CleanupPID(); err != nil {
		t.Fatalf("CleanupPID() error = %v", err)
	}
	if err := f.CleanupPID(); err != nil {
		t.Errorf("second CleanupPID() = %v, want nil", err)
	}
}

func TestCheckPIDInvalid(t *testing.T) {
	f := NewFileOps(t.TempDir())
	if err := os.WriteFile(f.getPIDFilePath(), []byte("not-a-pid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.CheckPID(); err == nil {
		t.Error("CheckPID() with garbage = nil, want error")
	}
}
