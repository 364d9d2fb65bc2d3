// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/fluxplay/utils"
)

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// Includes basic anti-aliasing filtering when downsampling.
type Resampler struct {
	src      Source
	srcRate  float64
	dstRate  float64
	ratio    float64 // srcRate / dstRate - how many source frames per output frame
	channels int

	// Sliding window of 4 frames for cubic interpolation
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool

	// Position between frames[1] and frames[2], in source frames
	pos float64

	srcBuf []float32
	eof    bool

	// One-pole low-pass state, only used when downsampling
	filterState []float32
	useFilter   bool
	filterAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:         src,
		srcRate:     float64(src.SampleRate()),
		dstRate:     float64(dstRate),
		ratio:       ratio,
		channels:    channels,
		srcBuf:      make([]float32, channels),
		useFilter:   ratio > 1.0,
		filterState: make([]float32, channels),
	}
	if r.useFilter {
		r.filterAlpha = 0.5
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

// Len converts the source length to output frames, or returns -1 when the
// source length is unknown.
func (r *Resampler) Len() int64 {
	frames := Len(r.src)
	if frames < 0 {
		return -1
	}

	return int64(float64(frames)/r.ratio + 0.5)
}

func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// readFrame reads exactly one source frame into dst.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	n, err := r.src.ReadSamples(r.srcBuf)
	got := n >= r.channels
	if got {
		copy(dst, r.srcBuf[:r.channels])
	}

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		r.eof = true
		return got, nil
	}
	if err != nil {
		return got, fmt.Errorf("%w", err)
	}

	return got, nil
}

func (r *Resampler) lowPass(frame []float32) {
	for c := range r.channels {
		frame[c] = r.filterAlpha*frame[c] + (1-r.filterAlpha)*r.filterState[c]
		r.filterState[c] = frame[c]
	}
}

// prime fills the interpolation window. Missing frames at the end of a short
// source duplicate the last valid frame.
func (r *Resampler) prime() error {
	r.primed = true

	for i := range r.frames {
		if r.eof {
			break
		}

		got, err := r.readFrame(r.frames[i])
		if err != nil {
			return err
		}
		if !got {
			break
		}

		r.hasFrame[i] = true
		if i == 0 && r.useFilter {
			// seed the filter to avoid a warm-up transient
			copy(r.filterState, r.frames[0])
		}
	}

	if !r.hasFrame[0] {
		return io.EOF
	}

	for i := 1; i < len(r.frames); i++ {
		if !r.hasFrame[i] {
			copy(r.frames[i], r.frames[i-1])
			r.hasFrame[i] = true
		}
	}

	return nil
}

// advance shifts the window by one source frame.
func (r *Resampler) advance() error {
	copy(r.frames[0], r.frames[1])
	copy(r.frames[1], r.frames[2])
	copy(r.frames[2], r.frames[3])
	r.hasFrame[0] = r.hasFrame[1]
	r.hasFrame[1] = r.hasFrame[2]
	r.hasFrame[2] = r.hasFrame[3]

	if r.eof {
		r.hasFrame[3] = false
	} else {
		got, err := r.readFrame(r.frames[3])
		r.hasFrame[3] = got
		if got && r.useFilter {
			r.lowPass(r.frames[3])
		}
		if err != nil {
			return err
		}
	}

	if !r.hasFrame[2] {
		return io.EOF
	}

	return nil
}

// ReadSamples produces dst samples at r.dstRate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				if err == io.EOF {
					return written * r.channels, io.EOF
				}
				return written * r.channels, err
			}
		}

		if !r.hasFrame[1] || !r.hasFrame[2] {
			return written * r.channels, io.EOF
		}

		// missing outer neighbours repeat the inner frame
		f0, f3 := r.frames[1], r.frames[2]
		if r.hasFrame[0] {
			f0 = r.frames[0]
		}
		if r.hasFrame[3] {
			f3 = r.frames[3]
		}
		base := written * r.channels
		utils.CubicFrame(dst[base:base+r.channels], f0, r.frames[1], r.frames[2], f3, float32(r.pos))

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}
