package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dooshek/livecomp/internal/audio"
)

// Snapshot is a point-in-time copy of the session statistics
type Snapshot struct {
	Buffers         uint64  `json:"buffers"`
	Frames          uint64  `json:"frames"`
	ShortBuffers    uint64  `json:"short_buffers"`
	MinGain         float32 `json:"min_gain"`
	MaxPeak         float32 `json:"max_peak"`
	AudioSeconds    float64 `json:"audio_seconds"`
	WallSeconds     float64 `json:"wall_seconds"`
	MaxCallbackUsec int64   `json:"max_callback_us"`
}

// Session collects statistics for one stream. ObserveBuffer runs on the audio
// thread and only touches atomics; everything else may be called from any
// goroutine.
type Session struct {
	sampleRate int

	buffers      atomic.Uint64
	frames       atomic.Uint64
	shortBuffers atomic.Uint64
	minGain      atomic.Uint32 // float32 bits
	maxPeak      atomic.Uint32 // float32 bits
	maxCallback  atomic.Int64  // nanoseconds

	mu      sync.Mutex
	started time.Time
	stopped time.Time
}

// NewSession creates empty statistics for a stream running at sampleRate
func NewSession(sampleRate int) *Session {
	s := &Session{sampleRate: sampleRate}
	s.minGain.Store(math.Float32bits(1))
	return s
}

// Begin marks the start of the stream
func (s *Session) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = time.Now()
	s.stopped = time.Time{}
}

// End marks the end of the stream
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = time.Now()
}

// ObserveBuffer implements audio.Observer
func (s *Session) ObserveBuffer(b audio.BufferStats) {
	s.buffers.Add(1)
	s.frames.Add(uint64(b.Frames))
	if b.Frames != b.Expected {
		s.shortBuffers.Add(1)
	}
	storeIf(&s.minGain, b.Gain, func(cur, v float32) bool { return v < cur })
	storeIf(&s.maxPeak, b.Peak, func(cur, v float32) bool { return v > cur })

	elapsed := int64(b.Elapsed)
	for {
		cur := s.maxCallback.Load()
		if elapsed <= cur || s.maxCallback.CompareAndSwap(cur, elapsed) {
			break
		}
	}
}

func storeIf(a *atomic.Uint32, v float32, better func(cur, v float32) bool) {
	for {
		old := a.Load()
		if !better(math.Float32frombits(old), v) || a.CompareAndSwap(old, math.Float32bits(v)) {
			return
		}
	}
}

// Snapshot returns a copy of the current statistics
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Buffers:         s.buffers.Load(),
		Frames:          s.frames.Load(),
		ShortBuffers:    s.shortBuffers.Load(),
		MinGain:         math.Float32frombits(s.minGain.Load()),
		MaxPeak:         math.Float32frombits(s.maxPeak.Load()),
		MaxCallbackUsec: time.Duration(s.maxCallback.Load()).Microseconds(),
	}
	if s.sampleRate > 0 {
		snap.AudioSeconds = float64(snap.Frames) / float64(s.sampleRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started.IsZero() {
		end := s.stopped
		if end.IsZero() {
			end = time.Now()
		}
		snap.WallSeconds = end.Sub(s.started).Seconds()
	}
	return snap
}

// JSON returns the current statistics as a JSON string (for D-Bus)
func (s *Session) JSON() (string, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats to JSON: %w", err)
	}
	return string(data), nil
}
