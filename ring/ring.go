// SPDX-License-Identifier: EPL-2.0

package ring

import (
	"sync/atomic"
)

// cacheLinePad keeps the producer and consumer indexes on separate cache
// lines so the two sides do not contend on the same line.
type cacheLinePad [64]byte

type buffer struct {
	data     []float32
	capacity uint64
	channels uint64

	_     cacheLinePad
	write atomic.Uint64 // owned by Producer
	_     cacheLinePad
	read  atomic.Uint64 // owned by Consumer
	_     cacheLinePad
}

// Producer is the write half of a sample ring. Exactly one goroutine may use it.
type Producer struct {
	b *buffer
}

// Consumer is the read half of a sample ring. Exactly one goroutine may use it.
type Consumer struct {
	b *buffer
}

// New allocates a ring holding capacity float32 samples of interleaved audio
// with the given channel count, and splits it into its two halves.
//
// capacity must be a positive multiple of channels.
func New(capacity, channels int) (*Producer, *Consumer, error) {
	if channels <= 0 {
		return nil, nil, ErrInvalidChannels
	}
	if capacity <= 0 || capacity%channels != 0 {
		return nil, nil, ErrInvalidCapacity
	}

	b := &buffer{
		data:     make([]float32, capacity),
		capacity: uint64(capacity),
		channels: uint64(channels),
	}

	return &Producer{b: b}, &Consumer{b: b}, nil
}

// Push copies as many whole frames of samples as currently fit and returns
// the number of samples written. It never blocks and never allocates.
func (p *Producer) Push(samples []float32) int {
	b := p.b
	w := b.write.Load()
	r := b.read.Load()

	n := min(uint64(len(samples)), b.capacity-(w-r))
	n -= n % b.channels
	if n == 0 {
		return 0
	}

	start := w % b.capacity
	first := min(n, b.capacity-start)
	copy(b.data[start:start+first], samples[:first])
	copy(b.data[:n-first], samples[first:n])

	b.write.Store(w + n)

	return int(n)
}

// Len returns the number of queued samples.
func (p *Producer) Len() int { return p.b.len() }

// Free returns the number of samples that can be pushed right now.
func (p *Producer) Free() int { return int(p.b.capacity) - p.b.len() }

// Cap returns the ring capacity in samples.
func (p *Producer) Cap() int { return int(p.b.capacity) }

// Channels returns the interleaved channel count of the ring.
func (p *Producer) Channels() int { return int(p.b.channels) }

// PopInto moves up to len(dst) queued samples, truncated to whole frames,
// into dst and returns how many were read. It returns 0 when the ring is
// empty. It never blocks and never allocates.
func (c *Consumer) PopInto(dst []float32) int {
	b := c.b
	r := b.read.Load()
	w := b.write.Load()

	n := min(uint64(len(dst)), w-r)
	n -= n % b.channels
	if n == 0 {
		return 0
	}

	start := r % b.capacity
	first := min(n, b.capacity-start)
	copy(dst[:first], b.data[start:start+first])
	copy(dst[first:n], b.data[:n-first])

	b.read.Store(r + n)

	return int(n)
}

// Len returns the number of queued samples.
func (c *Consumer) Len() int { return c.b.len() }

// Empty reports whether nothing is queued.
func (c *Consumer) Empty() bool { return c.b.len() == 0 }

// Cap returns the ring capacity in samples.
func (c *Consumer) Cap() int { return int(c.b.capacity) }

// Channels returns the interleaved channel count of the ring.
func (c *Consumer) Channels() int { return int(c.b.channels) }

func (b *buffer) len() int {
	// Load read first: write only grows, so the difference never underflows.
	r := b.read.Load()
	w := b.write.Load()

	return int(w - r)
}
