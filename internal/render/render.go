// Package render runs a mono WAV file through a SampleProcessor offline,
// buffer by buffer, exactly as the live stream would deliver it.
package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dooshek/livecomp/internal/compressor"
	"github.com/dooshek/livecomp/internal/logger"
)

const wavFormatPCM = 1

var (
	ErrNotWavFile         = errors.New("not a valid WAV file")
	ErrUnsupportedFormat  = errors.New("unsupported WAV format")
	ErrInvalidBufferFrame = errors.New("frames per buffer must be positive")
)

// Result summarises a render.
type Result struct {
	Frames     int
	SampleRate int
	BitDepth   int
	Buffers    int
	Saturated  int // samples that exceeded the integer range of the output format
}

// File reads inPath, processes it in buffers of frames samples and writes the
// result to outPath with the same sample rate and bit depth.
func File(ctx context.Context, inPath, outPath string, p compressor.SampleProcessor, frames int) (Result, error) {
	if frames <= 0 {
		return Result{}, ErrInvalidBufferFrame
	}

	in, err := os.Open(inPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		return Result{}, fmt.Errorf("%s: %w", inPath, ErrNotWavFile)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return Result{}, fmt.Errorf("%w: audio format %d, only PCM is supported", ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if dec.NumChans != 1 {
		return Result{}, fmt.Errorf("%w: %d channels, only mono is supported", ErrUnsupportedFormat, dec.NumChans)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return Result{}, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode input: %w", err)
	}

	res := Result{
		Frames:     len(pcm.Data),
		SampleRate: int(dec.SampleRate),
		BitDepth:   bitDepth,
	}

	scale := float32(int(1) << (bitDepth - 1))
	maxInt := int(scale) - 1
	minInt := -int(scale)

	inBuf := make([]float32, frames)
	outBuf := make([]float32, frames)
	for start := 0; start < len(pcm.Data); start += frames {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		chunk := pcm.Data[start:min(start+frames, len(pcm.Data))]
		for i, v := range chunk {
			inBuf[i] = float32(v) / scale
		}
		n := p.ProcessBuffer(inBuf[:len(chunk)], outBuf[:len(chunk)])
		for i := 0; i < n; i++ {
			v := int(math.Round(float64(outBuf[i] * scale)))
			if v > maxInt {
				v = maxInt
				res.Saturated++
			} else if v < minInt {
				v = minInt
				res.Saturated++
			}
			chunk[i] = v
		}
		res.Buffers++
	}

	if err := writeWAV(outPath, pcm.Data, res.SampleRate, bitDepth); err != nil {
		return res, err
	}

	if res.Saturated > 0 {
		logger.Warnf("%d of %d samples exceeded the %d-bit range and were saturated", res.Saturated, res.Frames, bitDepth)
	}
	return res, nil
}

func writeWAV(path string, data []int, sampleRate, bitDepth int) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	enc := wav.NewEncoder(out, sampleRate, bitDepth, 1, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		out.Close()
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to finalize output: %w", err)
	}
	return out.Close()
}
