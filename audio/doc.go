// SPDX-License-Identifier: EPL-2.0

// Package audio provides the decoding chain primitives that feed playback.
//
// This package contains:
//   - Source, the pull interface every decoder and converter implements
//   - Format and Normalize, which fold any input into the output format
//   - ChannelMixer for channel count conversion
//   - Resampler for sample rate conversion
//   - Registry, mapping file extensions to decoders
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Sources may also implement Lengther when the number of frames is known
// up front; Len returns -1 otherwise.
//
// # Normalization
//
// Playback runs at one fixed format. Normalize inserts a ChannelMixer
// and a Resampler as needed:
//
//	src, converted, err := audio.Normalize(decoded, audio.Format{SampleRate: 48000, Channels: 2})
//
// Channels are converted before the rate, so a multichannel file is
// resampled after it has been folded down.
//
// # Sample Format
//
// Samples are interleaved float32 in the range [-1.0, 1.0]. ReadSamples
// returns io.EOF, possibly together with the final samples, at the end of
// the stream:
//
//	for {
//	    n, err := source.ReadSamples(buf)
//	    process(buf[:n])
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
package audio
