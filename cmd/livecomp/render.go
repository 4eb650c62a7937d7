package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dooshek/livecomp/internal/compressor"
	"github.com/dooshek/livecomp/internal/logger"
	"github.com/dooshek/livecomp/internal/render"
	"github.com/dooshek/livecomp/internal/types"
)

// runRender handles `livecomp render`, the offline counterpart of the live stream
func runRender(args []string) int {
	renderCmd := flag.NewFlagSet("render", flag.ExitOnError)
	logLevel := renderCmd.String("log-level", "info", "Set log level (debug|info|warn|error)")
	logFilename := renderCmd.String("log-filename", "", "Log to file instead of stdout")
	inPath := renderCmd.String("in", "", "Mono PCM WAV file to compress")
	outPath := renderCmd.String("out", "", "Where to write the compressed WAV file")
	frames := renderCmd.Int("frames", types.DefaultFramesPerBuffer, "Frames per processing buffer")
	mode := renderCmd.String("mode", string(compressor.ModeReference), "Release mode (reference|continuous-release)")
	renderCmd.Usage = func() {
		fmt.Fprintf(renderCmd.Output(), "Usage of %s render:\n", os.Args[0])
		printFlags(renderCmd)
	}

	if err := renderCmd.Parse(args); err != nil {
		fmt.Printf("Error parsing render flags: %v\n", err)
		return 1
	}

	logger.SetLevel(*logLevel)
	if *logFilename != "" {
		if err := logger.SetOutputFile(*logFilename); err != nil {
			fmt.Printf("Error setting log file: %v\n", err)
			return 1
		}
		defer logger.CloseLogFile()
	}

	if *inPath == "" || *outPath == "" {
		renderCmd.Usage()
		return 1
	}

	m, err := compressor.ParseMode(*mode)
	if err != nil {
		logger.Error("Invalid release mode", err)
		return 1
	}
	p := compressor.DefaultParams()
	p.Mode = m
	comp, err := compressor.New(p)
	if err != nil {
		logger.Error("Failed to create compressor", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := render.File(ctx, *inPath, *outPath, comp, *frames)
	if err != nil {
		logger.Error("Render failed", err)
		return 1
	}

	logger.Infof("✅ Rendered %d frames (%d Hz, %d-bit) in %d buffers to %s, final gain %.4f",
		res.Frames, res.SampleRate, res.BitDepth, res.Buffers, *outPath, comp.Gain())
	return 0
}
