package state

import (
	"testing"

	"github.com/dooshek/livecomp/internal/compressor"
	"github.com/dooshek/livecomp/internal/types"
)

func TestInitOnce(t *testing.T) {
	first := &types.Config{Stream: types.StreamConfig{SampleRate: 48000}}
	params := compressor.DefaultParams()
	params.Mode = compressor.ModeContinuousRelease

	Init(first, params)
	Init(&types.Config{}, compressor.DefaultParams())

	s := Get()
	if s.Config != first {
		t.Error("second Init replaced the config")
	}
	if got := s.GetStreamConfig(); got.SampleRate != 48000 || got.FramesPerBuffer != types.DefaultFramesPerBuffer {
		t.Errorf("GetStreamConfig() = %+v", got)
	}
	if s.GetMode() != compressor.ModeContinuousRelease {
		t.Errorf("GetMode() = %q", s.GetMode())
	}
}
