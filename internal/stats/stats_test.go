package stats

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dooshek/livecomp/internal/audio"
)

func TestSessionSnapshot(t *testing.T) {
	s := NewSession(100)

	buffers := []audio.BufferStats{
		{Frames: 50, Expected: 50, Gain: 0.9, Peak: 1.2, Elapsed: 3 * time.Microsecond},
		{Frames: 30, Expected: 50, Gain: 0.7, Peak: 0.4, Elapsed: 9 * time.Microsecond},
		{Frames: 50, Expected: 50, Gain: 0.8, Peak: 0.9, Elapsed: 5 * time.Microsecond},
	}
	for _, b := range buffers {
		s.ObserveBuffer(b)
	}

	snap := s.Snapshot()
	if snap.Buffers != 3 || snap.Frames != 130 || snap.ShortBuffers != 1 {
		t.Errorf("counts = %+v", snap)
	}
	if snap.MinGain != 0.7 {
		t.Errorf("MinGain = %v, want 0.7", snap.MinGain)
	}
	if snap.MaxPeak != 1.2 {
		t.Errorf("MaxPeak = %v, want 1.2", snap.MaxPeak)
	}
	if snap.AudioSeconds != 1.3 {
		t.Errorf("AudioSeconds = %v, want 1.3", snap.AudioSeconds)
	}
	if snap.MaxCallbackUsec != 9 {
		t.Errorf("MaxCallbackUsec = %d, want 9", snap.MaxCallbackUsec)
	}
	if snap.WallSeconds != 0 {
		t.Errorf("WallSeconds = %v before Begin, want 0", snap.WallSeconds)
	}
}

func TestSessionDefaults(t *testing.T) {
	snap := NewSession(44100).Snapshot()
	if snap.MinGain != 1 || snap.MaxPeak != 0 || snap.Buffers != 0 {
		t.Errorf("empty snapshot = %+v", snap)
	}
}

func TestSessionWallClock(t *testing.T) {
	s := NewSession(44100)
	s.Begin()
	time.Sleep(5 * time.Millisecond)
	s.End()

	first := s.Snapshot().WallSeconds
	if first <= 0 {
		t.Fatalf("WallSeconds = %v, want > 0", first)
	}
	time.Sleep(5 * time.Millisecond)
	if again := s.Snapshot().WallSeconds; again != first {
		t.Errorf("WallSeconds moved after End: %v -> %v", first, again)
	}
}

func TestSessionConcurrentReaders(t *testing.T) {
	s := NewSession(44100)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.ObserveBuffer(audio.BufferStats{Frames: 256, Expected: 256, Gain: 0.5, Peak: 0.5})
		}
	}()
	for i := 0; i < 100; i++ {
		_ = s.Snapshot()
	}
	wg.Wait()

	if got := s.Snapshot().Frames; got != 256000 {
		t.Errorf("Frames = %d, want 256000", got)
	}
}

func TestSessionJSON(t *testing.T) {
	s := NewSession(44100)
	s.ObserveBuffer(audio.BufferStats{Frames: 256, Expected: 256, Gain: 0.5, Peak: 0.75})

	data, err := s.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", data, err)
	}
	if decoded["frames"] != float64(256) || decoded["min_gain"] != 0.5 {
		t.Errorf("decoded = %v", decoded)
	}
}
