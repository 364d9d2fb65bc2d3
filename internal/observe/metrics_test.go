// SPDX-License-Identifier: EPL-2.0

package observe

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ik5/fluxplay/internal/audiotest"
	"github.com/ik5/fluxplay/output"
	"github.com/ik5/fluxplay/output/null"
	"github.com/ik5/fluxplay/playback"
)

// newTestMetrics returns Metrics for p backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T, p Player) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp, p)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is %T, want Sum[int64]", name, m.Data)
	}
	if len(sum.DataPoints) != 1 {
		t.Fatalf("metric %q has %d data points, want 1", name, len(sum.DataPoints))
	}
	if !sum.IsMonotonic {
		t.Errorf("metric %q is not monotonic", name)
	}
	return sum.DataPoints[0].Value
}

func stateValues(t *testing.T, rm metricdata.ResourceMetrics) map[string]int64 {
	t.Helper()
	m := findMetric(rm, "fluxplay.state")
	if m == nil {
		t.Fatal("metric fluxplay.state not found")
	}
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("fluxplay.state is %T, want Gauge[int64]", m.Data)
	}

	out := make(map[string]int64)
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value("state")
		out[v.AsString()] = dp.Value
	}
	return out
}

func newTestPlayer() *playback.Player {
	return playback.NewPlayer(null.New(false),
		output.Settings{SampleRate: 48000, Channels: 2, FramesPerBuffer: 256},
		playback.Options{
			PollInterval: time.Millisecond,
			Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
}

func TestNewMetrics_Idle(t *testing.T) {
	p := newTestPlayer()
	_, reader := newTestMetrics(t, p)

	rm := collect(t, reader)
	for _, name := range []string{
		"fluxplay.frames.decoded",
		"fluxplay.frames.played",
		"fluxplay.underruns",
		"fluxplay.backpressure.waits",
		"fluxplay.decode.errors",
		"fluxplay.callbacks",
	} {
		if got := sumValue(t, rm, name); got != 0 {
			t.Errorf("%s = %d, want 0", name, got)
		}
	}

	states := stateValues(t, rm)
	if len(states) != 4 {
		t.Errorf("state has %d series, want 4", len(states))
	}
	if states["idle"] != 1 || states["stopped"] != 0 {
		t.Errorf("state = %v, want idle=1", states)
	}
}

func TestNewMetrics_AfterPlayback(t *testing.T) {
	p := newTestPlayer()
	_, reader := newTestMetrics(t, p)

	if err := p.Play(context.Background(), audiotest.NewSineSource(48000, 2, 4800, 440)); err != nil {
		t.Fatalf("Play: %v", err)
	}

	rm := collect(t, reader)
	if got := sumValue(t, rm, "fluxplay.frames.decoded"); got != 4800 {
		t.Errorf("frames decoded = %d, want 4800", got)
	}
	if got, want := sumValue(t, rm, "fluxplay.frames.played"), int64(p.Status().FramesPlayed()); got != want {
		t.Errorf("frames played = %d, want %d", got, want)
	}
	if got, want := sumValue(t, rm, "fluxplay.callbacks"), int64(p.Stats().Callbacks()); got != want || got == 0 {
		t.Errorf("callbacks = %d, want %d (non-zero)", got, want)
	}
	if states := stateValues(t, rm); states["stopped"] != 1 || states["idle"] != 0 {
		t.Errorf("state = %v, want stopped=1", states)
	}
}

func TestMetrics_Unregister(t *testing.T) {
	m, reader := newTestMetrics(t, newTestPlayer())

	if err := m.Unregister(); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if err := m.Unregister(); err != nil {
		t.Fatalf("second Unregister: %v", err)
	}

	rm := collect(t, reader)
	if m := findMetric(rm, "fluxplay.frames.decoded"); m != nil {
		if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) != 0 {
			t.Errorf("unregistered metric still reports %d data points", len(sum.DataPoints))
		}
	}
}
