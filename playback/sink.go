// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"github.com/ik5/fluxplay/output"
	"github.com/ik5/fluxplay/ring"
)

// Sink is the output callback. It drains the ring into device buffers,
// applies gain, pads underruns with silence and signals the end of the
// stream. Process never blocks and never allocates.
type Sink struct {
	cons     *ring.Consumer
	status   *Status
	stats    *Stats
	gain     float32
	channels int
}

func NewSink(cons *ring.Consumer, status *Status, stats *Stats, gain float32) *Sink {
	return &Sink{
		cons:     cons,
		status:   status,
		stats:    stats,
		gain:     gain,
		channels: cons.Channels(),
	}
}

// Process fills out with frames frames. It matches output.Callback.
//
// The stream is complete only when the feeder has finished, the ring is
// empty and this call received nothing, so the last samples are always
// played before Complete is returned.
func (s *Sink) Process(out []float32, frames int) output.Result {
	want := min(frames*s.channels, len(out)-len(out)%s.channels)
	buf := out[:want]

	received := s.cons.PopInto(buf)
	for i := range buf[:received] {
		buf[i] *= s.gain
	}
	clear(out[received:])

	s.stats.callbacks.Add(1)
	s.status.addPlayed(uint64(frames))

	// decoding is read before emptiness: once it is false every sample has
	// already been pushed
	if !s.status.IsDecoding() && s.cons.Empty() && received == 0 {
		s.status.setPlaying(false)
		return output.Complete
	}

	if received < want {
		s.stats.underruns.Add(1)
	}

	return output.Continue
}
