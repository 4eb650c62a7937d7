package compressor

import (
	"errors"
	"fmt"
	"math"
)

// Mode selects how the smoothed gain behaves while the signal is below threshold.
type Mode string

const (
	// ModeReference freezes the gain below threshold.
	ModeReference Mode = "reference"
	// ModeContinuousRelease relaxes the gain toward unity below threshold
	// using the release coefficient.
	ModeContinuousRelease Mode = "continuous-release"
)

const (
	DefaultThreshold  float32 = 0.1
	DefaultRatio      float32 = 4.0
	DefaultAttack     float32 = 0.01
	DefaultRelease    float32 = 0.1
	DefaultMakeupGain float32 = 1.5
)

var ErrInvalidParams = errors.New("invalid compressor parameters")

// Params holds the fixed settings of a Compressor.
type Params struct {
	Threshold  float32 // absolute magnitude above which compression engages
	Ratio      float32 // input:output ratio applied to the excess over threshold
	Attack     float32 // per-sample interpolation coefficient while gain decreases
	Release    float32 // per-sample interpolation coefficient while gain recovers
	MakeupGain float32 // post-compression multiplier
	Mode       Mode
}

// DefaultParams returns the stock settings: 0.1 threshold, 4:1 ratio,
// 0.01 attack, 0.1 release, 1.5 makeup gain, reference mode.
func DefaultParams() Params {
	return Params{
		Threshold:  DefaultThreshold,
		Ratio:      DefaultRatio,
		Attack:     DefaultAttack,
		Release:    DefaultRelease,
		MakeupGain: DefaultMakeupGain,
		Mode:       ModeReference,
	}
}

// ParseMode maps a configuration string onto a Mode. Empty selects the reference mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeReference:
		return ModeReference, nil
	case ModeContinuousRelease:
		return ModeContinuousRelease, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidParams, s)
	}
}

// Validate checks that every parameter is finite and within its usable range.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float32
	}{
		{"threshold", p.Threshold},
		{"ratio", p.Ratio},
		{"attack", p.Attack},
		{"release", p.Release},
		{"makeup gain", p.MakeupGain},
	}
	for _, f := range fields {
		v := float64(f.value)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidParams, f.name)
		}
	}

	if p.Threshold <= 0 {
		return fmt.Errorf("%w: threshold must be positive, got %g", ErrInvalidParams, p.Threshold)
	}
	if p.Ratio < 1 {
		return fmt.Errorf("%w: ratio must be at least 1, got %g", ErrInvalidParams, p.Ratio)
	}
	if p.Attack <= 0 || p.Attack > 1 {
		return fmt.Errorf("%w: attack must be in (0, 1], got %g", ErrInvalidParams, p.Attack)
	}
	if p.Release <= 0 || p.Release > 1 {
		return fmt.Errorf("%w: release must be in (0, 1], got %g", ErrInvalidParams, p.Release)
	}
	if p.MakeupGain <= 0 {
		return fmt.Errorf("%w: makeup gain must be positive, got %g", ErrInvalidParams, p.MakeupGain)
	}
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	return nil
}
