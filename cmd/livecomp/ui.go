package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dooshek/livecomp/internal/compressor"
	"github.com/dooshek/livecomp/internal/stats"
	"github.com/dooshek/livecomp/internal/types"
	"github.com/fatih/color"
)

const meterWidth = 40

var (
	bold   = color.New(color.Bold)
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

func printBanner(w io.Writer, p compressor.Params, cfg types.StreamConfig) {
	bold.Fprintln(w, "🎚️  livecomp")
	cyan.Fprintf(w, "  threshold %.2f  ratio %.1f:1  attack %.2f  release %.2f  makeup %.2f\n",
		p.Threshold, p.Ratio, p.Attack, p.Release, p.MakeupGain)
	cyan.Fprintf(w, "  %d Hz, %d frames per buffer, mono, %s mode\n",
		cfg.SampleRate, cfg.FramesPerBuffer, p.Mode)
	yellow.Fprintln(w, "Press Enter to stop")
}

// levelBar renders a [0,1] level as a fixed-width bar.
func levelBar(level float64) string {
	n := int(level*meterWidth + 0.5)
	n = max(0, min(n, meterWidth))
	return "[" + strings.Repeat("#", n) + strings.Repeat(" ", meterWidth-n) + "]"
}

func showLevels(ctx context.Context, w io.Writer, levels <-chan float64) {
	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(w, "\r"+strings.Repeat(" ", meterWidth+2)+"\r")
			return
		case level := <-levels:
			fmt.Fprint(w, "\r"+green.Sprint(levelBar(level)))
		}
	}
}

func printSummary(w io.Writer, snap stats.Snapshot) {
	bold.Fprintln(w, "\n📊 Session summary")
	fmt.Fprintf(w, "  duration        %.1fs (%.1fs of audio)\n", snap.WallSeconds, snap.AudioSeconds)
	fmt.Fprintf(w, "  buffers         %d (%d frames)\n", snap.Buffers, snap.Frames)
	fmt.Fprintf(w, "  lowest gain     %.4f\n", snap.MinGain)
	fmt.Fprintf(w, "  output peak     %.4f\n", snap.MaxPeak)
	fmt.Fprintf(w, "  slowest buffer  %dµs\n", snap.MaxCallbackUsec)
	if snap.ShortBuffers > 0 {
		yellow.Fprintf(w, "  ⚠️  %d buffers differed from the requested size\n", snap.ShortBuffers)
	}
	if snap.MaxPeak > 1 {
		yellow.Fprintln(w, "  ⚠️  output exceeded full scale, the device may have clipped it")
	}
}
