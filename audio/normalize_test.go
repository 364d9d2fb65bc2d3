// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"testing"

	"github.com/ik5/fluxplay/internal/audiotest"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rate, chans int
		target      Format
		wantChanged bool
		wantLen     int64
	}{
		{name: "passthrough", rate: 48000, chans: 2, target: Format{48000, 2}, wantChanged: false, wantLen: 48000},
		{name: "rate only", rate: 44100, chans: 2, target: Format{48000, 2}, wantChanged: true, wantLen: 52245},
		{name: "channels only", rate: 48000, chans: 1, target: Format{48000, 2}, wantChanged: true, wantLen: 48000},
		{name: "both", rate: 22050, chans: 6, target: Format{44100, 2}, wantChanged: true, wantLen: 96000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewSilentSource(tt.rate, tt.chans, 48000)
			out, changed, err := Normalize(src, tt.target)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}

			if changed != tt.wantChanged {
				t.Errorf("Normalize() changed = %v, want %v", changed, tt.wantChanged)
			}
			if got := FormatOf(out); got != tt.target {
				t.Errorf("FormatOf(out) = %+v, want %+v", got, tt.target)
			}
			if !tt.wantChanged && out != Source(src) {
				t.Error("Normalize() wrapped a source that already matched")
			}
			if got := Len(out); got != tt.wantLen {
				t.Errorf("Len(out) = %d, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestNormalize_InvalidFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    Source
		target Format
	}{
		{name: "zero target rate", src: audiotest.NewSilentSource(48000, 2, 1), target: Format{0, 2}},
		{name: "zero target channels", src: audiotest.NewSilentSource(48000, 2, 1), target: Format{48000, 0}},
		{name: "bad source", src: audiotest.NewSilentSource(0, 2, 1), target: Format{48000, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := Normalize(tt.src, tt.target)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Normalize() error = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func TestNormalize_FrameAligned(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSineSource(44100, 1, 4410, 440)
	out, _, err := Normalize(src, Format{SampleRate: 48000, Channels: 2})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	total := 0
	for _, n := range readAll(t, out, 1000) {
		if n%2 != 0 {
			t.Fatalf("read of %d samples is not frame aligned", n)
		}
		total += n
	}
	if total == 0 {
		t.Error("Normalize() output produced no samples")
	}
}

// readAll returns the sample count of each read until EOF.
func readAll(t *testing.T, src Source, size int) []int {
	t.Helper()

	var counts []int
	buf := make([]float32, size)
	for {
		n, err := src.ReadSamples(buf)
		counts = append(counts, n)
		if err != nil {
			return counts
		}
	}
}
