// SPDX-License-Identifier: EPL-2.0

// Package wav decodes integer PCM WAV files into audio.Source values and
// writes 16-bit PCM WAV data.
//
// Decoding is built on github.com/go-audio/wav and accepts 8, 16, 24 and
// 32-bit integer PCM with any channel count and sample rate:
//
//	f, _ := os.Open("audio.wav")
//	source, err := wav.Decoder{}.Decode(f)
//	if errors.Is(err, wav.ErrNotWavFile) {
//	    // not a RIFF/WAVE file
//	}
//
// The returned source implements audio.Lengther, reporting the frame count
// taken from the data chunk size.
//
// WriteWAV16 emits a canonical 44-byte header followed by the samples and
// does not require a seekable writer:
//
//	err := wav.WriteWAV16(os.Stdout, 48000, 2, samples)
package wav
