// SPDX-License-Identifier: EPL-2.0

package portaudio

import (
	"testing"

	"github.com/ik5/fluxplay/output"
)

func TestAdapter_Process(t *testing.T) {
	t.Parallel()

	var calls, lastFrames int
	cb := func(out []float32, frames int) output.Result {
		calls++
		lastFrames = frames
		for i := range out {
			out[i] = 0.25
		}
		if calls == 2 {
			return output.Complete
		}
		return output.Continue
	}

	s := output.Settings{SampleRate: 48000, Channels: 2, FramesPerBuffer: 64}
	a := newAdapter(cb, s)
	out := make([]float32, s.BufferSamples())

	a.process(out)
	if a.complete.Load() {
		t.Fatal("complete = true after first buffer")
	}
	if lastFrames != 64 {
		t.Errorf("frames = %d, want 64", lastFrames)
	}

	a.process(out)
	if !a.complete.Load() {
		t.Fatal("complete = false after Complete")
	}

	// once complete, buffers are silenced without calling back
	for i := range out {
		out[i] = 1
	}
	a.process(out)
	if calls != 2 {
		t.Errorf("callback invoked %d times, want 2", calls)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v after completion, want 0", i, v)
		}
	}
}

func TestAdapter_ZeroAllocs(t *testing.T) {
	cb := func(out []float32, frames int) output.Result { return output.Continue }
	s := output.Settings{SampleRate: 48000, Channels: 2, FramesPerBuffer: 256}
	a := newAdapter(cb, s)
	out := make([]float32, s.BufferSamples())

	allocs := testing.AllocsPerRun(100, func() {
		a.process(out)
	})
	if allocs != 0 {
		t.Errorf("process allocated %.1f times per run, want 0", allocs)
	}
}

func TestDevice_Open_InvalidSettings(t *testing.T) {
	t.Parallel()

	cb := func([]float32, int) output.Result { return output.Complete }
	if _, err := New().Open(output.Settings{}, cb); err == nil {
		t.Error("Open() with zero settings error = nil")
	}
	s := output.Settings{SampleRate: 48000, Channels: 2, FramesPerBuffer: 64}
	if _, err := New().Open(s, nil); err == nil {
		t.Error("Open() with nil callback error = nil")
	}
}
