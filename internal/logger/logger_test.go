package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"verbose", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestSetOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	SetLevel("warn")
	Info("hidden")
	Error("stream failed", errors.New("device gone"))

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("info message logged at warn level: %q", got)
	}
	if !strings.Contains(got, "stream failed") || !strings.Contains(got, "device gone") {
		t.Errorf("error message missing from output: %q", got)
	}
}

func TestSetOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "livecomp.log")
	if err := SetOutputFile(path); err != nil {
		t.Fatalf("SetOutputFile() error = %v", err)
	}
	Warnf("buffer size %d", 512)
	CloseLogFile()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "buffer size 512") {
		t.Errorf("log file content = %q", data)
	}
}
