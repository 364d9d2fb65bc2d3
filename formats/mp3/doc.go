// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio file decoding.
//
// This package uses github.com/hajimehoshi/go-mp3 to decode MP3 files:
//
//	f, _ := os.Open("audio.mp3")
//	source, err := mp3.Decoder{}.Decode(f)
//
// go-mp3 always produces 16-bit stereo, so the source reports two channels
// even for mono files. Samples are converted to float32 in [-1.0, 1.0].
//
// When the input is an io.Seeker, go-mp3 measures the stream up front and
// the source implements audio.Lengther with the exact frame count. For
// plain readers Len reports -1.
//
// Every read returns whole frames. A trailing partial frame in a truncated
// stream is dropped.
package mp3
