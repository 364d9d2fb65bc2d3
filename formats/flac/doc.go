// SPDX-License-Identifier: EPL-2.0

// Package flac decodes FLAC files through github.com/gopxl/beep/v2/flac.
//
// beep represents every stream as stereo float64 pairs. Mono files are
// returned as one channel by taking the left value, stereo files keep both.
// Files with more channels are rejected with ErrUnsupportedChannels.
//
//	f, _ := os.Open("album.flac")
//	source, err := flac.Decoder{}.Decode(f)
//
// The source implements audio.Lengther with the frame count from the
// STREAMINFO block.
package flac
