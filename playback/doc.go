// SPDX-License-Identifier: EPL-2.0

// Package playback streams a decoded source to a real-time output device.
//
// # Overview
//
// Three flows of control cooperate through a lock-free ring and a set of
// atomic counters:
//
//   - The Feeder goroutine reads decode units from an audio.Source and
//     pushes them into the ring, sleeping briefly while the ring is full.
//   - The Sink runs on the device's callback thread. It pops samples,
//     applies gain, fills underruns with silence and decides when the
//     stream is over. It never blocks and never allocates.
//   - The Progress goroutine prints decode and play positions.
//
// The Player wires these together and owns the device lifecycle:
//
//	Idle -> Streaming -> Draining -> Stopped
//
// Streaming begins once the device has started, Draining once the source is
// exhausted, and Stopped after the sink has played the last sample and the
// device was stopped and closed.
//
// # Completion
//
// The sink completes the stream on the first callback where the feeder has
// finished, the ring is empty and nothing was received. The final audio is
// therefore always played in full, and the terminal callback itself delivers
// a buffer of silence.
//
// # Usage
//
//	src, _, err := audio.Normalize(decoded, audio.Format{SampleRate: 48000, Channels: 2})
//	if err != nil {
//		return err
//	}
//	p := playback.NewPlayer(dev, output.Settings{
//		SampleRate:      48000,
//		Channels:        2,
//		FramesPerBuffer: 512,
//	}, playback.Options{Progress: os.Stderr})
//	if err := p.Play(ctx, src); err != nil {
//		return err
//	}
//
// # Errors
//
// Device open and start failures wrap ErrSinkStart. Decode errors are
// logged and skipped. Running out of data is never an error: the sink plays
// silence and counts an underrun in Stats.
package playback
