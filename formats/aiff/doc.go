// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files.
// Integer PCM at 8, 16, 24 and 32 bits is supported, with any channel
// count and sample rate:
//
//	f, _ := os.Open("audio.aif")
//	source, err := aiff.Decoder{}.Decode(f)
//
// The decoder returns an audio.Source with samples normalized to
// [-1.0, 1.0]. It also implements audio.Lengther using the frame count
// from the COMM chunk, so the total duration is known before playback.
//
// go-audio needs an io.ReadSeeker. Readers that cannot seek are buffered
// in memory first.
package aiff
