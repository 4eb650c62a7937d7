package dbus

import (
	"errors"
	"testing"
)

type fixedGain float32

func (g fixedGain) Gain() float32 { return float32(g) }

type fakeStats struct {
	json string
	err  error
}

func (f fakeStats) JSON() (string, error) { return f.json, f.err }

func TestGetGain(t *testing.T) {
	obj := &compressorObject{NewServer(fixedGain(0.75), fakeStats{}, nil)}
	got, dErr := obj.GetGain()
	if dErr != nil {
		t.Fatalf("GetGain() error = %v", dErr)
	}
	if got != 0.75 {
		t.Errorf("GetGain() = %v, want 0.75", got)
	}
}

func TestGetStats(t *testing.T) {
	tests := []struct {
		name    string
		stats   fakeStats
		want    string
		wantErr bool
	}{
		{"ok", fakeStats{json: `{"buffers":3}`}, `{"buffers":3}`, false},
		{"marshal failure", fakeStats{err: errors.New("boom")}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := &compressorObject{NewServer(fixedGain(1), tt.stats, nil)}
			got, dErr := obj.GetStats()
			if (dErr != nil) != tt.wantErr {
				t.Fatalf("GetStats() error = %v, wantErr %v", dErr, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetStats() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStopCallsCancelOnce(t *testing.T) {
	calls := 0
	obj := &compressorObject{NewServer(fixedGain(1), fakeStats{}, func() { calls++ })}

	for i := 0; i < 3; i++ {
		if dErr := obj.Stop(); dErr != nil {
			t.Fatalf("Stop() error = %v", dErr)
		}
	}
	if calls != 1 {
		t.Errorf("stop callback called %d times, want 1", calls)
	}
}

func TestSignalsWithoutConnection(t *testing.T) {
	s := NewServer(fixedGain(1), fakeStats{}, nil)
	// Must not panic before Start or after Close.
	s.StreamStarted()
	s.Close()
	s.StreamStopped()
}

func TestIntrospectionDescribesMethods(t *testing.T) {
	node := introspectNode()
	var methods, signals []string
	for _, iface := range node.Interfaces {
		if iface.Name != dbusInterface {
			continue
		}
		for _, m := range iface.Methods {
			methods = append(methods, m.Name)
		}
		for _, sig := range iface.Signals {
			signals = append(signals, sig.Name)
		}
	}
	if len(methods) != 3 || methods[0] != "Stop" || methods[1] != "GetGain" || methods[2] != "GetStats" {
		t.Errorf("methods = %v", methods)
	}
	if len(signals) != 2 {
		t.Errorf("signals = %v", signals)
	}
}
