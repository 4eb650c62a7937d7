package audio

import (
	"fmt"
	"strings"

	"github.com/dooshek/livecomp/internal/logger"
	"github.com/gen2brain/malgo"
)

// MalgoHost opens streams on the default capture and playback devices through miniaudio.
type MalgoHost struct {
	ctx *malgo.AllocatedContext
}

// NewMalgoHost initialises the audio subsystem.
func NewMalgoHost() (*MalgoHost, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debugf("miniaudio: %s", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	return &MalgoHost{ctx: ctx}, nil
}

// Open creates a mono float32 duplex device with output clipping disabled.
func (h *MalgoHost) Open(cfg StreamConfig, cb DataCallback) (Stream, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = channels
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = channels
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerBuffer)
	deviceConfig.PerformanceProfile = malgo.LowLatency
	deviceConfig.NoClip = 1
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(h.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(outputBuffer, inputBuffer []byte, frameCount uint32) {
			cb(outputBuffer, inputBuffer, frameCount)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize duplex device: %w", err)
	}

	if rate := int(device.SampleRate()); rate != cfg.SampleRate {
		logger.Warnf("Device runs at %d Hz instead of the requested %d Hz", rate, cfg.SampleRate)
	}

	return &malgoStream{device: device}, nil
}

// Close shuts the audio subsystem down.
func (h *MalgoHost) Close() error {
	if h.ctx == nil {
		return nil
	}
	err := h.ctx.Uninit()
	h.ctx.Free()
	h.ctx = nil
	if err != nil {
		return fmt.Errorf("failed to uninitialize audio context: %w", err)
	}
	return nil
}

type malgoStream struct {
	device *malgo.Device
}

func (s *malgoStream) Start() error {
	return s.device.Start()
}

func (s *malgoStream) Stop() error {
	return s.device.Stop()
}

func (s *malgoStream) Close() error {
	s.device.Uninit()
	return nil
}
