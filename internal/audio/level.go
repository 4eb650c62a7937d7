package audio

import (
	"time"
)

const (
	levelThrottle = 25 * time.Millisecond

	// Auto-range: recentMax decay per emit (~40 emits/s)
	// 0.993^40 ≈ 0.75 per second
	levelDecay      = 0.993
	levelNoiseFloor = 0.01 // below = silence
	levelSmoothing  = 0.4  // EMA alpha (higher = more responsive)
)

// LevelMeter turns per-buffer output peaks into a normalised [0,1] level for
// display. It auto-ranges to the recent maximum, so a compressed signal with
// makeup gain above 1.0 still fits the scale.
type LevelMeter struct {
	recentMax float64
	smoothed  float64
	peakSince float64 // max peak between emits
	lastEmit  time.Time
	now       func() time.Time
	levels    chan float64
}

func NewLevelMeter() *LevelMeter {
	return &LevelMeter{
		recentMax: 0.01,
		now:       time.Now,
		levels:    make(chan float64, 16),
	}
}

// Levels returns the channel levels are emitted on. Values are dropped when
// nobody reads.
func (lm *LevelMeter) Levels() <-chan float64 {
	return lm.levels
}

// ObserveBuffer implements Observer.
func (lm *LevelMeter) ObserveBuffer(b BufferStats) {
	peak := float64(b.Peak)
	if peak > lm.peakSince {
		lm.peakSince = peak
	}

	now := lm.now()
	if now.Sub(lm.lastEmit) < levelThrottle {
		return
	}
	lm.lastEmit = now

	peak = lm.peakSince
	lm.peakSince = 0

	if peak > lm.recentMax {
		lm.recentMax = peak // instant attack
	} else {
		lm.recentMax *= levelDecay
	}
	if lm.recentMax < levelNoiseFloor {
		lm.recentMax = levelNoiseFloor
	}

	level := 0.0
	if peak > levelNoiseFloor {
		level = peak / lm.recentMax
		if level > 1.0 {
			level = 1.0
		}
	}

	lm.smoothed = levelSmoothing*level + (1-levelSmoothing)*lm.smoothed

	select {
	case lm.levels <- lm.smoothed:
	default:
	}
}
