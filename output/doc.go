// SPDX-License-Identifier: EPL-2.0

// Package output defines the callback-driven audio device abstraction.
//
// A Device is opened with Settings and a Callback. Once the returned Stream
// is started, the device invokes the callback on its own goroutine each
// time it needs another buffer of FramesPerBuffer interleaved float32
// frames. The callback returns Continue to keep going or Complete to end
// the stream after the buffer it just filled:
//
//	stream, err := dev.Open(output.Settings{
//	    SampleRate:      48000,
//	    Channels:        2,
//	    FramesPerBuffer: 512,
//	}, func(out []float32, frames int) output.Result {
//	    clear(out)
//	    return output.Continue
//	})
//
// Implementations live in subpackages: oto and portaudio drive real
// hardware, null runs a software clock, and wavfile renders to a file.
package output
