package audio

import (
	"encoding/binary"
	"math"
)

const (
	channels       = 1
	bytesPerSample = 4
)

// StreamConfig is fixed for the lifetime of a session.
type StreamConfig struct {
	SampleRate      int
	FramesPerBuffer int
}

// DataCallback receives one buffer of interleaved little-endian float32
// frames. out has room for the same number of frames as in.
type DataCallback func(out, in []byte, frames uint32)

// Host is the audio runtime: it owns the devices and calls back on its own
// real-time thread, one buffer at a time.
type Host interface {
	Open(cfg StreamConfig, cb DataCallback) (Stream, error)
	Close() error
}

// Stream is an opened duplex stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// decodeF32 fills dst from little-endian float32 bytes and returns the
// number of samples decoded.
func decodeF32(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/bytesPerSample)
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*bytesPerSample:]))
	}
	return n
}

// encodeF32 writes src as little-endian float32 bytes and returns the number
// of samples encoded.
func encodeF32(dst []byte, src []float32) int {
	n := min(len(dst)/bytesPerSample, len(src))
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(dst[i*bytesPerSample:], math.Float32bits(src[i]))
	}
	return n
}
