// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Normalize returns a Source that yields src converted to target.
//
// When src already matches target it is returned unchanged. Otherwise the
// channel count is converted first and the rate second, so a multichannel
// file is only resampled after it has been folded down.
//
// The boolean result reports whether any conversion was inserted.
func Normalize(src Source, target Format) (Source, bool, error) {
	if target.SampleRate <= 0 || target.Channels <= 0 {
		return nil, false, ErrInvalidFormat
	}
	if src.SampleRate() <= 0 || src.Channels() <= 0 {
		return nil, false, fmt.Errorf("source %d Hz/%d ch: %w", src.SampleRate(), src.Channels(), ErrInvalidFormat)
	}

	if FormatOf(src) == target {
		return src, false, nil
	}

	out := src
	if out.Channels() != target.Channels {
		out = NewChannelMixer(out, target.Channels)
	}
	if out.SampleRate() != target.SampleRate {
		out = NewResampler(out, target.SampleRate)
	}

	return out, true, nil
}
