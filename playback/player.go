// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/fluxplay/audio"
	"github.com/ik5/fluxplay/output"
	"github.com/ik5/fluxplay/ring"
)

const (
	DefaultGain         = 0.5
	DefaultRingSeconds  = 1.0
	DefaultPollInterval = 100 * time.Millisecond
)

// State is the lifecycle stage of a Player.
type State int32

const (
	Idle State = iota
	Streaming
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

type Options struct {
	// Gain scales every sample. Nil means DefaultGain.
	Gain *float32
	// RingSeconds sizes the ring in seconds of audio.
	RingSeconds float64

	Backoff         time.Duration
	StallTimeout    time.Duration
	ChunkFrames     int
	MaxDecodeErrors int

	// PollInterval is how often teardown checks for completion.
	PollInterval time.Duration

	// Progress receives the progress line. Nil disables it.
	Progress         io.Writer
	ProgressInterval time.Duration

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Gain == nil {
		g := float32(DefaultGain)
		o.Gain = &g
	}
	if o.RingSeconds <= 0 {
		o.RingSeconds = DefaultRingSeconds
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	return o
}

// Gain returns a pointer to g, for Options.Gain.
func Gain(g float32) *float32 { return &g }

// Player streams one source to one output device:
// Idle, then Streaming once the device runs, Draining once the source is
// exhausted, and Stopped after the last sample was played and the device
// was released. A Player plays once.
type Player struct {
	dev      output.Device
	settings output.Settings
	opts     Options
	log      *slog.Logger

	status *Status
	stats  *Stats
	state  atomic.Int32
	used   atomic.Bool
}

func NewPlayer(dev output.Device, settings output.Settings, opts Options) *Player {
	opts = opts.withDefaults()

	return &Player{
		dev:      dev,
		settings: settings,
		opts:     opts,
		log:      opts.Logger.With(slog.String("component", "player")),
		status:   NewStatus(),
		stats:    NewStats(),
	}
}

func (p *Player) Status() *Status { return p.status }
func (p *Player) Stats() *Stats   { return p.stats }
func (p *Player) State() State    { return State(p.state.Load()) }

// Play streams src until it has been played out, ctx is cancelled, or the
// feeder fails. Device open and start failures wrap ErrSinkStart and are
// returned before anything runs. src must already match the output format;
// see audio.Normalize. Play does not close src.
//
// The decoding flag is raised before the device starts, so an empty source
// may be answered with one silent buffer before the stream completes.
//
// A stream that exposes Done() <-chan struct{}, like output.Pump, ends
// playback with ErrDeviceEnded when it stops before the last sample.
func (p *Player) Play(ctx context.Context, src audio.Source) error {
	if !p.used.CompareAndSwap(false, true) {
		return fmt.Errorf("%s: %w", p.State(), ErrNotIdle)
	}

	if err := p.settings.Validate(); err != nil {
		p.state.Store(int32(Stopped))
		return fmt.Errorf("%w: %w", ErrSinkStart, err)
	}
	if got := audio.FormatOf(src); got.SampleRate != p.settings.SampleRate || got.Channels != p.settings.Channels {
		p.state.Store(int32(Stopped))
		return fmt.Errorf("source %d Hz/%d ch, output %d Hz/%d ch: %w",
			got.SampleRate, got.Channels, p.settings.SampleRate, p.settings.Channels, ErrFormatMismatch)
	}

	frames := max(int(p.opts.RingSeconds*float64(p.settings.SampleRate)), 1)
	prod, cons, err := ring.New(frames*p.settings.Channels, p.settings.Channels)
	if err != nil {
		p.state.Store(int32(Stopped))
		return fmt.Errorf("ring: %w", err)
	}

	feeder := NewFeeder(prod, src, p.status, p.stats, FeederOptions{
		Backoff:         p.opts.Backoff,
		StallTimeout:    p.opts.StallTimeout,
		ChunkFrames:     p.opts.ChunkFrames,
		MaxDecodeErrors: p.opts.MaxDecodeErrors,
		Logger:          p.opts.Logger,
	})
	feeder.Prime()
	sink := NewSink(cons, p.status, p.stats, *p.opts.Gain)

	stream, err := p.start(sink)
	if err != nil {
		p.status.setDecoding(false)
		p.state.Store(int32(Stopped))
		return err
	}

	p.status.setPlaying(true)
	p.state.Store(int32(Streaming))
	p.log.Info("playback started",
		slog.Int("sample_rate", p.settings.SampleRate),
		slog.Int("channels", p.settings.Channels),
		slog.Int("frames_per_buffer", p.settings.FramesPerBuffer),
		slog.Int("ring_samples", prod.Cap()),
	)

	runErr := p.run(ctx, stream, feeder, audio.Len(src))

	var errs []error
	errs = append(errs, runErr)
	if err := stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop: %w", err))
	}
	if err := stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	p.state.Store(int32(Stopped))

	snap := p.status.Snapshot()
	p.log.Info("playback stopped",
		slog.Uint64("frames_decoded", snap.FramesDecoded),
		slog.Uint64("frames_played", snap.FramesPlayed),
		slog.Uint64("underruns", p.stats.Underruns()),
		slog.Uint64("decode_errors", p.stats.DecodeErrors()),
	)

	return errors.Join(errs...)
}

func (p *Player) start(sink *Sink) (output.Stream, error) {
	stream, err := p.dev.Open(p.settings, sink.Process)
	if err != nil {
		return nil, fmt.Errorf("open: %w: %w", ErrSinkStart, err)
	}

	if err := stream.Start(); err != nil {
		if cerr := stream.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return nil, fmt.Errorf("start: %w: %w", ErrSinkStart, err)
	}

	return stream, nil
}

// doner is implemented by streams that can end on their own.
type doner interface {
	Done() <-chan struct{}
}

// run drives the feeder and the progress observer and waits for the sink
// to finish the stream.
func (p *Player) run(ctx context.Context, stream output.Stream, feeder *Feeder, totalFrames int64) error {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		if err := feeder.Run(gctx); err != nil {
			return fmt.Errorf("feeder: %w", err)
		}
		if p.state.CompareAndSwap(int32(Streaming), int32(Draining)) {
			p.log.Debug("draining", slog.Uint64("frames_decoded", p.status.FramesDecoded()))
		}
		return nil
	})

	if p.opts.Progress != nil {
		prog := NewProgress(p.opts.Progress, p.status, p.settings.SampleRate, totalFrames, p.opts.ProgressInterval)
		g.Go(func() error {
			return prog.Run(gctx)
		})
	}

	var deviceDone <-chan struct{}
	if d, ok := stream.(doner); ok {
		deviceDone = d.Done()
	}
	deviceEnded := false

	t := time.NewTicker(p.opts.PollInterval)
	defer t.Stop()

	for p.status.IsPlaying() {
		select {
		case <-gctx.Done():
			p.log.Warn("aborting playback", slog.Any("cause", context.Cause(gctx)))
			p.status.setPlaying(false)
		case <-deviceDone:
			deviceDone = nil
			// the sink may have completed on the device's last buffer
			if p.status.IsPlaying() {
				p.log.Warn("output ended early", slog.Uint64("frames_played", p.status.FramesPlayed()))
				deviceEnded = true
				p.status.setPlaying(false)
				cancel(ErrDeviceEnded)
			}
		case <-t.C:
		}
	}

	err := g.Wait()
	if deviceEnded {
		return ErrDeviceEnded
	}

	return err
}
