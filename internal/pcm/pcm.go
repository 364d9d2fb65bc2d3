// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts go-audio integer PCM decoders to audio.Source.
package pcm

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// IntReader is the subset of the go-audio wav and aiff decoders used here.
type IntReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source converts integer PCM read from an IntReader into float32 samples.
type Source struct {
	dec        IntReader
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	scale      float32
	intBuf     *goaudio.IntBuffer
	closer     io.Closer
}

// NewSource wraps dec. frames is the total length in frames, or -1.
func NewSource(dec IntReader, sampleRate, channels, bitDepth int, frames int64) *Source {
	return &Source{
		dec:        dec,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		frames:     frames,
		scale:      Scale(bitDepth),
	}
}

// WithCloser makes Close release c.
func (s *Source) WithCloser(c io.Closer) *Source {
	s.closer = c
	return s
}

// Scale returns the divisor that maps a signed sample of the given bit
// depth into [-1, 1).
func Scale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 16:
		return 32768.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BitDepth() int   { return s.bitDepth }
func (s *Source) Len() int64      { return s.frames }
func (s *Source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// ReadSamples fills dst with whole frames. A short read without an error
// from the decoder marks the end of the stream.
func (s *Source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:want]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	n -= n % s.channels
	eof := err == io.EOF || (err == nil && n < want)
	if err == io.EOF {
		err = nil
	}

	for i, v := range s.intBuf.Data[:n] {
		dst[i] = float32(v) / s.scale
	}

	if err != nil {
		return n, fmt.Errorf("%w", err)
	}
	if eof {
		return n, io.EOF
	}

	return n, nil
}
