// SPDX-License-Identifier: EPL-2.0

package playback

import "sync/atomic"

// Status is the progress shared between the feeder, the sink and
// observers. Every field is an independent atomic; a Snapshot is only
// approximately consistent across fields.
//
// The feeder owns frames decoded and the decoding flag. The sink owns frames
// played and the transition of the playing flag to false.
type Status struct {
	decoding      atomic.Bool
	playing       atomic.Bool
	framesDecoded atomic.Uint64
	framesPlayed  atomic.Uint64
}

func NewStatus() *Status { return &Status{} }

// IsDecoding reports whether the feeder may still push samples.
func (s *Status) IsDecoding() bool { return s.decoding.Load() }

// IsPlaying reports whether the output stream is live.
func (s *Status) IsPlaying() bool { return s.playing.Load() }

// FramesDecoded is the number of frames pushed into the ring.
func (s *Status) FramesDecoded() uint64 { return s.framesDecoded.Load() }

// FramesPlayed is the number of frames handed to the device, silence
// included.
func (s *Status) FramesPlayed() uint64 { return s.framesPlayed.Load() }

func (s *Status) setDecoding(v bool) { s.decoding.Store(v) }

// markDecoding sets the decoding flag if it is not set yet.
func (s *Status) markDecoding() { s.decoding.CompareAndSwap(false, true) }

func (s *Status) setPlaying(v bool) { s.playing.Store(v) }

func (s *Status) addDecoded(frames uint64) { s.framesDecoded.Add(frames) }

func (s *Status) addPlayed(frames uint64) { s.framesPlayed.Add(frames) }

type Snapshot struct {
	Decoding      bool
	Playing       bool
	FramesDecoded uint64
	FramesPlayed  uint64
}

func (s *Status) Snapshot() Snapshot {
	return Snapshot{
		Decoding:      s.IsDecoding(),
		Playing:       s.IsPlaying(),
		FramesDecoded: s.FramesDecoded(),
		FramesPlayed:  s.FramesPlayed(),
	}
}

// Stats counts events worth observing that are not errors.
type Stats struct {
	underruns         atomic.Uint64
	backpressureWaits atomic.Uint64
	decodeErrors      atomic.Uint64
	callbacks         atomic.Uint64
}

func NewStats() *Stats { return &Stats{} }

// Underruns counts callbacks that received fewer samples than requested
// without completing the stream.
func (s *Stats) Underruns() uint64 { return s.underruns.Load() }

// BackpressureWaits counts sleeps of the feeder on a full ring.
func (s *Stats) BackpressureWaits() uint64 { return s.backpressureWaits.Load() }

// DecodeErrors counts skipped decode units.
func (s *Stats) DecodeErrors() uint64 { return s.decodeErrors.Load() }

// Callbacks counts sink invocations.
func (s *Stats) Callbacks() uint64 { return s.callbacks.Load() }
