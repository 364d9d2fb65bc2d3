// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ik5/fluxplay/audio"
	"github.com/ik5/fluxplay/ring"
)

const (
	DefaultBackoff         = 10 * time.Microsecond
	DefaultChunkFrames     = 1024
	DefaultMaxDecodeErrors = 32
)

type FeederOptions struct {
	// Backoff is the sleep between push attempts on a full ring.
	Backoff time.Duration
	// StallTimeout bounds how long a full ring may go without draining.
	// Zero waits forever.
	StallTimeout time.Duration
	// ChunkFrames is the size of one decode unit.
	ChunkFrames int
	// MaxDecodeErrors is how many consecutive failed reads end the stream.
	// Negative disables the bound.
	MaxDecodeErrors int
	Logger          *slog.Logger
}

func (o FeederOptions) withDefaults() FeederOptions {
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	if o.ChunkFrames <= 0 {
		o.ChunkFrames = DefaultChunkFrames
	}
	if o.MaxDecodeErrors == 0 {
		o.MaxDecodeErrors = DefaultMaxDecodeErrors
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	return o
}

// Feeder moves decoded units from a source into the ring, waiting while the
// ring is full.
type Feeder struct {
	prod   *ring.Producer
	src    audio.Source
	status *Status
	stats  *Stats
	opts   FeederOptions
	log    *slog.Logger

	channels   int
	chunk      []float32
	warnedTail bool
}

func NewFeeder(prod *ring.Producer, src audio.Source, status *Status, stats *Stats, opts FeederOptions) *Feeder {
	opts = opts.withDefaults()
	channels := prod.Channels()

	return &Feeder{
		prod:     prod,
		src:      src,
		status:   status,
		stats:    stats,
		opts:     opts,
		log:      opts.Logger.With(slog.String("component", "feeder")),
		channels: channels,
		chunk:    make([]float32, opts.ChunkFrames*channels),
	}
}

// Prime raises the decoding flag before the output starts, so the sink does
// not take an empty ring at startup for the end of the stream.
func (f *Feeder) Prime() { f.status.setDecoding(true) }

// Run feeds the ring until the source is exhausted, ctx is done, or the
// ring stalls. The decoding flag is cleared when Run returns, whatever the
// reason.
func (f *Feeder) Run(ctx context.Context) error {
	defer f.status.setDecoding(false)

	consecutive := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := f.src.ReadSamples(f.chunk)
		if n > 0 {
			if ferr := f.forward(ctx, f.aligned(f.chunk[:n])); ferr != nil {
				return ferr
			}
			f.status.markDecoding()
		}

		switch {
		case err == nil:
			consecutive = 0
		case errors.Is(err, io.EOF):
			f.log.Debug("source exhausted", slog.Uint64("frames", f.status.FramesDecoded()))
			return nil
		default:
			consecutive++
			f.stats.decodeErrors.Add(1)
			f.log.Warn("skipping decode unit", slog.Any("error", err), slog.Int("consecutive", consecutive))

			if f.opts.MaxDecodeErrors > 0 && consecutive > f.opts.MaxDecodeErrors {
				f.log.Error("too many decode errors, ending stream",
					slog.Int("consecutive", consecutive),
					slog.Uint64("frames", f.status.FramesDecoded()),
				)
				return nil
			}
		}
	}
}

// aligned drops a trailing partial frame.
func (f *Feeder) aligned(data []float32) []float32 {
	tail := len(data) % f.channels
	if tail == 0 {
		return data
	}

	if !f.warnedTail {
		f.warnedTail = true
		f.log.Warn("dropping partial frame", slog.Int("samples", tail), slog.Int("channels", f.channels))
	}

	return data[:len(data)-tail]
}

// forward pushes data until all of it is in the ring.
func (f *Feeder) forward(ctx context.Context, data []float32) error {
	sent := 0
	var stalledSince time.Time

	for {
		n := f.prod.Push(data[sent:])
		if n > 0 {
			sent += n
			f.status.addDecoded(uint64(n / f.channels))
			stalledSince = time.Time{}
		}
		if sent >= len(data) {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		now := time.Now()
		switch {
		case stalledSince.IsZero():
			stalledSince = now
		case f.opts.StallTimeout > 0 && now.Sub(stalledSince) >= f.opts.StallTimeout:
			return fmt.Errorf("%d samples pending after %v: %w", len(data)-sent, f.opts.StallTimeout, ErrStalled)
		}

		f.stats.backpressureWaits.Add(1)
		time.Sleep(f.opts.Backoff)
	}
}
