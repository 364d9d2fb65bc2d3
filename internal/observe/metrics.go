// SPDX-License-Identifier: EPL-2.0

// Package observe provides the command's observability: structured logging
// and OpenTelemetry metrics exported for Prometheus.
//
// Playback counters live in atomics owned by the player. They are exposed as
// observable instruments read at collection time, so nothing is recorded on
// the real-time path.
package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ik5/fluxplay/playback"
)

// meterName is the instrumentation scope name used for all fluxplay metrics.
const meterName = "github.com/ik5/fluxplay"

// Player is what the metrics read from.
type Player interface {
	Status() *playback.Status
	Stats() *playback.Stats
	State() playback.State
}

// Metrics holds the observable instruments for one player.
type Metrics struct {
	FramesDecoded     metric.Int64ObservableCounter
	FramesPlayed      metric.Int64ObservableCounter
	Underruns         metric.Int64ObservableCounter
	BackpressureWaits metric.Int64ObservableCounter
	DecodeErrors      metric.Int64ObservableCounter
	Callbacks         metric.Int64ObservableCounter

	// State is 1 for the player's current state and 0 for the others. Use
	// with attribute.String("state", ...).
	State metric.Int64ObservableGauge

	reg metric.Registration
}

var allStates = []playback.State{playback.Idle, playback.Streaming, playback.Draining, playback.Stopped}

// NewMetrics creates the instruments on mp and registers a callback that
// reads p. Call Unregister when p is done.
func NewMetrics(mp metric.MeterProvider, p Player) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	counters := []struct {
		dst  *metric.Int64ObservableCounter
		name string
		desc string
		unit string
	}{
		{&met.FramesDecoded, "fluxplay.frames.decoded", "Frames pushed into the sample ring.", "{frame}"},
		{&met.FramesPlayed, "fluxplay.frames.played", "Frames handed to the output device, silence included.", "{frame}"},
		{&met.Underruns, "fluxplay.underruns", "Output callbacks that received fewer samples than requested.", "{callback}"},
		{&met.BackpressureWaits, "fluxplay.backpressure.waits", "Feeder sleeps on a full ring.", "{wait}"},
		{&met.DecodeErrors, "fluxplay.decode.errors", "Decode units skipped after an error.", "{error}"},
		{&met.Callbacks, "fluxplay.callbacks", "Output callback invocations.", "{callback}"},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64ObservableCounter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		); err != nil {
			return nil, fmt.Errorf("observe: %s: %w", c.name, err)
		}
	}

	if met.State, err = m.Int64ObservableGauge("fluxplay.state",
		metric.WithDescription("Player lifecycle state; 1 for the current state."),
	); err != nil {
		return nil, fmt.Errorf("observe: fluxplay.state: %w", err)
	}

	met.reg, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		status, stats := p.Status(), p.Stats()
		o.ObserveInt64(met.FramesDecoded, int64(status.FramesDecoded()))
		o.ObserveInt64(met.FramesPlayed, int64(status.FramesPlayed()))
		o.ObserveInt64(met.Underruns, int64(stats.Underruns()))
		o.ObserveInt64(met.BackpressureWaits, int64(stats.BackpressureWaits()))
		o.ObserveInt64(met.DecodeErrors, int64(stats.DecodeErrors()))
		o.ObserveInt64(met.Callbacks, int64(stats.Callbacks()))

		current := p.State()
		for _, s := range allStates {
			var v int64
			if s == current {
				v = 1
			}
			o.ObserveInt64(met.State, v, metric.WithAttributes(attribute.String("state", s.String())))
		}

		return nil
	},
		met.FramesDecoded, met.FramesPlayed, met.Underruns,
		met.BackpressureWaits, met.DecodeErrors, met.Callbacks, met.State,
	)
	if err != nil {
		return nil, fmt.Errorf("observe: register callback: %w", err)
	}

	return met, nil
}

// Unregister stops reading the player.
func (m *Metrics) Unregister() error {
	if m.reg == nil {
		return nil
	}
	if err := m.reg.Unregister(); err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	m.reg = nil

	return nil
}
