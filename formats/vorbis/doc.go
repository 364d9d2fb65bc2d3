// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis audio file decoding.
//
// This package uses github.com/jfreymuth/oggvorbis, which decodes straight
// to float32, so samples are handed to the caller without conversion:
//
//	f, _ := os.Open("audio.ogg")
//	source, err := vorbis.Decoder{}.Decode(f)
//
// Reads may return fewer samples than requested when a packet boundary is
// reached; every read is a whole number of frames. For seekable inputs the
// source also implements audio.Lengther.
package vorbis
