package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dooshek/livecomp/internal/audio"
	"github.com/dooshek/livecomp/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus metrics for one compressor stream.
// ObserveBuffer only touches atomic collectors, so it is safe on the audio thread.
type Metrics struct {
	Buffers         prometheus.Counter
	Frames          prometheus.Counter
	ShortBuffers    prometheus.Counter
	Gain            prometheus.Gauge
	OutputPeak      prometheus.Gauge
	CallbackSeconds prometheus.Histogram
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Buffers: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecomp_buffers_total",
			Help: "Total number of audio buffers processed",
		}),
		Frames: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecomp_frames_total",
			Help: "Total number of frames processed",
		}),
		ShortBuffers: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecomp_short_buffers_total",
			Help: "Buffers whose frame count differed from the configured buffer size",
		}),
		Gain: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livecomp_gain",
			Help: "Smoothed compressor gain after the last buffer",
		}),
		OutputPeak: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livecomp_output_peak",
			Help: "Largest output magnitude in the last buffer, before any host clipping",
		}),
		CallbackSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "livecomp_callback_seconds",
			Help:    "Time spent inside the audio callback",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10), // 1µs .. ~0.26s
		}),
	}
}

// ObserveBuffer implements audio.Observer
func (m *Metrics) ObserveBuffer(b audio.BufferStats) {
	m.Buffers.Inc()
	m.Frames.Add(float64(b.Frames))
	if b.Frames != b.Expected {
		m.ShortBuffers.Inc()
	}
	m.Gain.Set(float64(b.Gain))
	m.OutputPeak.Set(float64(b.Peak))
	m.CallbackSeconds.Observe(b.Elapsed.Seconds())
}

// Serve exposes gatherer on /metrics at addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("📈 Metrics available at http://%s/metrics", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown failed: %w", err)
		}
		return nil
	}
}
