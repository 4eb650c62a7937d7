package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dooshek/livecomp/internal/compressor"
	"github.com/dooshek/livecomp/internal/logger"
	"github.com/rs/zerolog"
)

var (
	ErrAlreadyStarted = errors.New("stream already started")
	ErrNotStarted     = errors.New("stream not started")
)

// BufferStats describes one processed buffer.
type BufferStats struct {
	Frames   int           // frames delivered by the host
	Expected int           // frames per buffer the stream was opened with
	Gain     float32       // processor gain after the buffer, 1 if unknown
	Peak     float32       // largest output magnitude in the buffer
	Elapsed  time.Duration // time spent inside the callback
}

// Observer is notified from the audio thread after every buffer. It must
// not block or allocate.
type Observer interface {
	ObserveBuffer(BufferStats)
}

type gainReporter interface {
	Gain() float32
}

// Option configures a Session.
type Option func(*Session)

// WithObserver adds an observer called after every buffer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observers = append(s.observers, o)
	}
}

// Session runs one duplex stream through a SampleProcessor. The processor is
// only ever touched from the host callback.
type Session struct {
	host      Host
	processor compressor.SampleProcessor
	cfg       StreamConfig
	observers []Observer
	log       zerolog.Logger

	mu      sync.Mutex
	stream  Stream
	started bool

	// callback-owned scratch
	in  []float32
	out []float32

	gain atomic.Uint32
}

// NewSession prepares a session. Nothing is opened until Start.
func NewSession(host Host, processor compressor.SampleProcessor, cfg StreamConfig, opts ...Option) (*Session, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}
	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("invalid frames per buffer %d", cfg.FramesPerBuffer)
	}

	s := &Session{
		host:      host,
		processor: processor,
		cfg:       cfg,
		log:       logger.With("audio"),
		in:        make([]float32, cfg.FramesPerBuffer),
		out:       make([]float32, cfg.FramesPerBuffer),
	}
	s.gain.Store(math.Float32bits(1))
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the stream settings.
func (s *Session) Config() StreamConfig {
	return s.cfg
}

// Gain returns the processor gain published after the last buffer. Safe to
// call from any goroutine.
func (s *Session) Gain() float32 {
	return math.Float32frombits(s.gain.Load())
}

// Running reports whether the stream has been started and not yet stopped.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Start opens the stream and starts it. On failure nothing stays open.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	stream, err := s.host.Open(s.cfg, s.onData)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		if closeErr := stream.Close(); closeErr != nil {
			s.log.Error().Err(closeErr).Msg("Failed to close stream after start failure")
		}
		return fmt.Errorf("failed to start stream: %w", err)
	}

	s.stream = stream
	s.started = true
	s.log.Info().
		Int("sample_rate", s.cfg.SampleRate).
		Int("frames_per_buffer", s.cfg.FramesPerBuffer).
		Msg("Stream started")
	return nil
}

// Stop stops and closes the stream. Both steps are attempted even if the
// first fails; their errors are joined.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}

	var errs []error
	if err := s.stream.Stop(); err != nil {
		s.log.Error().Err(err).Msg("Failed to stop stream")
		errs = append(errs, fmt.Errorf("failed to stop stream: %w", err))
	}
	if err := s.stream.Close(); err != nil {
		s.log.Error().Err(err).Msg("Failed to close stream")
		errs = append(errs, fmt.Errorf("failed to close stream: %w", err))
	}

	s.stream = nil
	s.started = false
	s.log.Info().Msg("Stream stopped")
	return errors.Join(errs...)
}

// Run starts the stream, blocks until ctx is done and stops it.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

func (s *Session) onData(out, in []byte, frames uint32) {
	start := time.Now()
	n := int(frames)
	if n > len(s.in) {
		// Only reachable if the host ignores the requested period size.
		s.in = make([]float32, n)
		s.out = make([]float32, n)
	}

	got := decodeF32(s.in[:n], in)
	processed := s.processor.ProcessBuffer(s.in[:got], s.out[:got])
	written := encodeF32(out, s.out[:processed])
	clear(out[written*bytesPerSample:])

	var peak float32
	for _, v := range s.out[:processed] {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}

	gain := float32(1)
	if g, ok := s.processor.(gainReporter); ok {
		gain = g.Gain()
	}
	s.gain.Store(math.Float32bits(gain))

	if len(s.observers) == 0 {
		return
	}
	stats := BufferStats{
		Frames:   n,
		Expected: s.cfg.FramesPerBuffer,
		Gain:     gain,
		Peak:     peak,
		Elapsed:  time.Since(start),
	}
	for _, o := range s.observers {
		o.ObserveBuffer(stats)
	}
}
