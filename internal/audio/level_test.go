package audio

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMeter() (*LevelMeter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	lm := NewLevelMeter()
	lm.now = clock.now
	return lm, clock
}

func drain(lm *LevelMeter) []float64 {
	var out []float64
	for {
		select {
		case v := <-lm.Levels():
			out = append(out, v)
		default:
			return out
		}
	}
}

func TestLevelMeterThrottles(t *testing.T) {
	lm, clock := newTestMeter()

	lm.ObserveBuffer(BufferStats{Peak: 0.5})
	for i := 0; i < 5; i++ {
		clock.advance(time.Millisecond)
		lm.ObserveBuffer(BufferStats{Peak: 0.9})
	}
	if got := drain(lm); len(got) != 1 {
		t.Fatalf("emitted %d levels within the throttle window, want 1", len(got))
	}

	clock.advance(levelThrottle)
	lm.ObserveBuffer(BufferStats{Peak: 0.1})
	got := drain(lm)
	if len(got) != 1 {
		t.Fatalf("emitted %d levels after the window, want 1", len(got))
	}
	// The 0.9 peak seen inside the window is carried into this emit.
	if want := float64(float32(0.9)); lm.recentMax != want {
		t.Errorf("recentMax = %v, want %v", lm.recentMax, want)
	}
}

func TestLevelMeterSilenceAndRange(t *testing.T) {
	lm, clock := newTestMeter()

	for i := 0; i < 50; i++ {
		lm.ObserveBuffer(BufferStats{Peak: 1.5})
		clock.advance(levelThrottle)
	}
	for _, v := range drain(lm) {
		if v < 0 || v > 1 {
			t.Fatalf("level %v outside [0, 1]", v)
		}
	}
	if lm.smoothed < 0.99 {
		t.Errorf("smoothed level = %v for a steady signal, want ~1", lm.smoothed)
	}

	for i := 0; i < 50; i++ {
		lm.ObserveBuffer(BufferStats{Peak: 0})
		clock.advance(levelThrottle)
	}
	drain(lm)
	if lm.smoothed > 0.01 {
		t.Errorf("smoothed level = %v after silence, want ~0", lm.smoothed)
	}
}

func TestLevelMeterDropsWhenFull(t *testing.T) {
	lm, clock := newTestMeter()
	for i := 0; i < cap(lm.levels)*2; i++ {
		lm.ObserveBuffer(BufferStats{Peak: 0.5})
		clock.advance(levelThrottle)
	}
	if got := len(drain(lm)); got != cap(lm.levels) {
		t.Errorf("buffered %d levels, want %d", got, cap(lm.levels))
	}
}
