// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMixer converts an interleaved source to a different channel count.
//
// Downmixing averages every source channel k into output channel k mod out,
// so stereo→mono is (L+R)/2 and 4.0→stereo is ((FL+RL)/2, (FR+RR)/2).
// Upmixing copies source channel c mod in into output channel c, so
// mono→stereo duplicates the signal.
type ChannelMixer struct {
	src Source
	in  int
	out int
	tmp []float32
}

func NewChannelMixer(src Source, channels int) *ChannelMixer {
	return &ChannelMixer{
		src: src,
		in:  src.Channels(),
		out: channels,
		tmp: make([]float32, 4096),
	}
}

func (m *ChannelMixer) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMixer) Channels() int   { return m.out }
func (m *ChannelMixer) BufSize() int    { return m.src.BufSize() }
func (m *ChannelMixer) Len() int64      { return Len(m.src) }
func (m *ChannelMixer) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *ChannelMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%m.out != 0 {
		return 0, ErrInvalidDstSize
	}
	if m.in == m.out {
		return m.src.ReadSamples(dst)
	}

	frames := len(dst) / m.out
	samplesNeeded := frames * m.in

	// Grow but never shrink, to avoid thrashing on varying reads
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}

	n, err := m.src.ReadSamples(m.tmp[:samplesNeeded])
	if n == 0 {
		return 0, err
	}
	frames = n / m.in

	switch {
	case m.in == 2 && m.out == 1:
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	case m.in == 1:
		for f := range frames {
			v := m.tmp[f]
			base := f * m.out
			for c := range m.out {
				dst[base+c] = v
			}
		}
	case m.out > m.in:
		for f := range frames {
			src := m.tmp[f*m.in : f*m.in+m.in]
			base := f * m.out
			for c := range m.out {
				dst[base+c] = src[c%m.in]
			}
		}
	default:
		m.downmix(dst, frames)
	}

	return frames * m.out, err
}

func (m *ChannelMixer) downmix(dst []float32, frames int) {
	for f := range frames {
		src := m.tmp[f*m.in : f*m.in+m.in]
		out := dst[f*m.out : f*m.out+m.out]
		clear(out)
		for k, v := range src {
			out[k%m.out] += v
		}
		for c := range out {
			// number of source channels folded into output channel c
			folded := (m.in - c + m.out - 1) / m.out
			out[c] /= float32(folded)
		}
	}
}
