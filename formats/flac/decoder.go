// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2/flac"
	"github.com/ik5/fluxplay/audio"
)

// streamer is the subset of beep.StreamSeekCloser used here, to allow testing
type streamer interface {
	Stream(samples [][2]float64) (int, bool)
	Err() error
	Len() int
	Close() error
}

type source struct {
	s          streamer
	sampleRate int
	channels   int
	frames     [][2]float64
	done       bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return len(s.frames) * s.channels }
func (s *source) Len() int64      { return int64(s.s.Len()) }

func (s *source) Close() error {
	if err := s.s.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.done {
		return 0, io.EOF
	}

	want := len(dst) / s.channels
	if want == 0 {
		return 0, nil
	}
	if len(s.frames) < want {
		s.frames = make([][2]float64, want)
	}

	n, ok := s.s.Stream(s.frames[:want])
	if s.channels == 1 {
		for i, f := range s.frames[:n] {
			dst[i] = float32(f[0])
		}
	} else {
		for i, f := range s.frames[:n] {
			dst[2*i] = float32(f[0])
			dst[2*i+1] = float32(f[1])
		}
	}

	if !ok {
		s.done = true
		if err := s.s.Err(); err != nil {
			return n * s.channels, fmt.Errorf("%w", err)
		}
		return n * s.channels, io.EOF
	}

	return n * s.channels, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	s, format, err := flac.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	if format.NumChannels > 2 {
		s.Close()
		return nil, fmt.Errorf("%d channels: %w", format.NumChannels, ErrUnsupportedChannels)
	}

	return &source{
		s:          s,
		sampleRate: int(format.SampleRate),
		channels:   max(format.NumChannels, 1),
		frames:     make([][2]float64, 2048),
	}, nil
}
