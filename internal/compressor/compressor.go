// Package compressor implements a mono feed-forward dynamic-range compressor
// that runs sample by sample on the real-time audio thread.
package compressor

import "math"

// SampleProcessor transforms one buffer of mono samples. Implementations are
// called from the audio callback and must not block or allocate.
type SampleProcessor interface {
	// ProcessBuffer writes one output sample per input sample, in order,
	// and returns the number of samples written.
	ProcessBuffer(in, out []float32) int
}

// Compressor carries the smoothed gain between samples and between buffers.
//
// It is not safe for concurrent use. The host invokes callbacks for a given
// stream one at a time, which is the only access pattern supported.
type Compressor struct {
	params Params
	gain   float32
}

// New creates a compressor with unity gain.
func New(p Params) (*Compressor, error) {
	if p.Mode == "" {
		p.Mode = ModeReference
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Compressor{params: p, gain: 1}, nil
}

// NewDefault creates a compressor with DefaultParams.
func NewDefault() *Compressor {
	return &Compressor{params: DefaultParams(), gain: 1}
}

// Params returns the settings the compressor was built with.
func (c *Compressor) Params() Params {
	return c.params
}

// Gain returns the current smoothed gain.
func (c *Compressor) Gain() float32 {
	return c.gain
}

// Reset returns the gain to unity.
func (c *Compressor) Reset() {
	c.gain = 1
}

// Process compresses a single sample and advances the gain state.
func (c *Compressor) Process(sample float32) float32 {
	p := &c.params
	abs := float32(math.Abs(float64(sample)))

	if abs > p.Threshold {
		target := p.Threshold + (abs-p.Threshold)/p.Ratio

		// target < abs holds for every ratio > 1, so the release branch only
		// runs at ratio == 1. Kept to match the reference update rule.
		if target < abs {
			c.gain -= p.Attack * (c.gain - target)
		} else {
			c.gain += p.Release * (target - c.gain)
		}

		sample = float32(math.Copysign(float64(c.gain), float64(sample)))
	} else if p.Mode == ModeContinuousRelease {
		c.gain += p.Release * (1 - c.gain)
	}

	return sample * p.MakeupGain
}

// ProcessBuffer runs Process over min(len(in), len(out)) samples. in and out
// may be the same slice.
func (c *Compressor) ProcessBuffer(in, out []float32) int {
	n := min(len(in), len(out))
	for i := 0; i < n; i++ {
		out[i] = c.Process(in[i])
	}
	return n
}
