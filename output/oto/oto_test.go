// SPDX-License-Identifier: EPL-2.0

package oto

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ik5/fluxplay/output"
)

// counter fills buffer k with the value k and completes after calls buffers.
func counter(calls int, got *int) output.Callback {
	return func(out []float32, frames int) output.Result {
		*got++
		for i := range out {
			out[i] = float32(*got)
		}
		if *got == calls {
			return output.Complete
		}
		return output.Continue
	}
}

func decode(b []byte) []float32 {
	out := make([]float32, len(b)/bytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*bytesPerSample:]))
	}
	return out
}

func TestCallbackReader_Read(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		readLen int
	}{
		{"exact buffer", 2 * 4 * bytesPerSample},
		{"small reads", 3},
		{"large reads", 1000},
		{"odd size", 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			s := output.Settings{SampleRate: 48000, Channels: 2, FramesPerBuffer: 4}
			r := newCallbackReader(counter(3, &calls), s)

			var all []byte
			p := make([]byte, tt.readLen)
			for range 1000 {
				n, err := r.Read(p)
				all = append(all, p[:n]...)
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("Read() error = %v", err)
				}
			}

			if calls != 3 {
				t.Errorf("callback invoked %d times, want 3", calls)
			}

			samples := decode(all)
			if len(samples) != 3*8 {
				t.Fatalf("read %d samples, want 24", len(samples))
			}
			for i, v := range samples {
				if want := float32(i/8 + 1); v != want {
					t.Fatalf("sample %d = %v, want %v", i, v, want)
				}
			}
		})
	}
}

func TestCallbackReader_LazyCallback(t *testing.T) {
	t.Parallel()

	calls := 0
	s := output.Settings{SampleRate: 48000, Channels: 1, FramesPerBuffer: 10}
	r := newCallbackReader(counter(5, &calls), s)

	if calls != 0 {
		t.Fatalf("callback invoked %d times before Read, want 0", calls)
	}

	// one buffer is 40 bytes; a 20 byte read needs a single callback
	p := make([]byte, 20)
	if _, err := r.Read(p); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if _, err := r.Read(p); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("callback invoked %d times for one buffer, want 1", calls)
	}
}

func TestCallbackReader_EOFIsSticky(t *testing.T) {
	t.Parallel()

	calls := 0
	s := output.Settings{SampleRate: 48000, Channels: 1, FramesPerBuffer: 2}
	r := newCallbackReader(counter(1, &calls), s)

	p := make([]byte, 64)
	n, err := r.Read(p)
	if n != 8 || err != nil {
		t.Fatalf("Read() = %d, %v; want 8, nil", n, err)
	}

	for range 3 {
		if n, err := r.Read(p); n != 0 || err != io.EOF {
			t.Fatalf("Read() after completion = %d, %v; want 0, EOF", n, err)
		}
	}
	if calls != 1 {
		t.Errorf("callback invoked %d times, want 1", calls)
	}
}

func TestCallbackReader_ZeroAllocs(t *testing.T) {
	s := output.Settings{SampleRate: 48000, Channels: 2, FramesPerBuffer: 256}
	cb := func(out []float32, frames int) output.Result { return output.Continue }
	r := newCallbackReader(cb, s)
	p := make([]byte, 4096)

	allocs := testing.AllocsPerRun(100, func() {
		_, _ = r.Read(p)
	})
	if allocs != 0 {
		t.Errorf("Read allocated %.1f times per run, want 0", allocs)
	}
}

// fakePlayer plays out its buffer bytesPerTick at a time once playing,
// pausing itself when empty, the way oto does after EOF.
type fakePlayer struct {
	mtx       sync.Mutex
	playing   bool
	buffered  int
	drainedAt time.Time
	pausedAt  time.Time

	closed atomic.Bool
}

func (p *fakePlayer) Play() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.playing = true
}

func (p *fakePlayer) Pause() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.playing = false
	p.pausedAt = time.Now()
}

func (p *fakePlayer) IsPlaying() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.playing
}

func (p *fakePlayer) BufferedSize() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.buffered
}

func (p *fakePlayer) Err() error { return nil }

func (p *fakePlayer) Close() error {
	p.closed.Store(true)
	return nil
}

// playOut consumes the buffer over steps ticks of interval.
func (p *fakePlayer) playOut(steps int, interval time.Duration) {
	for range steps {
		time.Sleep(interval)
		p.mtx.Lock()
		p.buffered -= p.buffered / steps
		p.mtx.Unlock()
	}

	p.mtx.Lock()
	p.buffered = 0
	p.drainedAt = time.Now()
	p.playing = false
	p.mtx.Unlock()
}

// completedReader returns a reader whose callback has already completed.
func completedReader(t *testing.T, s output.Settings) *callbackReader {
	t.Helper()

	calls := 0
	r := newCallbackReader(counter(1, &calls), s)
	p := make([]byte, 1024)
	for {
		if _, err := r.Read(p); err == io.EOF {
			break
		}
	}
	if !r.Completed() {
		t.Fatal("Completed() = false after EOF")
	}

	return r
}

func TestStream_StopDrainsAfterComplete(t *testing.T) {
	t.Parallel()

	s := output.Settings{SampleRate: 48000, Channels: 2, FramesPerBuffer: 64}
	fp := &fakePlayer{buffered: 48000 * 2 * bytesPerSample / 10}
	st := newStream(fp, completedReader(t, s), s)

	if err := st.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	go fp.playOut(5, 10*time.Millisecond)

	if err := st.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	fp.mtx.Lock()
	drainedAt, pausedAt, buffered := fp.drainedAt, fp.pausedAt, fp.buffered
	fp.mtx.Unlock()

	if buffered != 0 {
		t.Errorf("Stop() returned with %d bytes buffered, want 0", buffered)
	}
	if drainedAt.IsZero() || pausedAt.Before(drainedAt) {
		t.Errorf("paused at %v before buffer drained at %v", pausedAt, drainedAt)
	}

	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fp.closed.Load() {
		t.Error("player not closed")
	}
}

func TestStream_StopBeforeCompleteDoesNotWait(t *testing.T) {
	t.Parallel()

	s := output.Settings{SampleRate: 48000, Channels: 2, FramesPerBuffer: 64}
	cb := func(out []float32, frames int) output.Result { return output.Continue }
	fp := &fakePlayer{buffered: 1 << 20}
	st := newStream(fp, newCallbackReader(cb, s), s)

	if err := st.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	start := time.Now()
	if err := st.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Stop() took %v on a stream that never completed", elapsed)
	}
	if fp.IsPlaying() {
		t.Error("player still playing after Stop()")
	}
}

func TestStream_DrainIsBounded(t *testing.T) {
	t.Parallel()

	s := output.Settings{SampleRate: 48000, Channels: 2, FramesPerBuffer: 64}
	// a player that never plays out its buffer
	fp := &fakePlayer{buffered: 1 << 20}
	st := newStream(fp, completedReader(t, s), s)
	st.drainTimeout = 30 * time.Millisecond

	if err := st.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	start := time.Now()
	if err := st.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 30*time.Millisecond || elapsed > time.Second {
		t.Errorf("Stop() took %v, want about the 30ms drain bound", elapsed)
	}
	if fp.IsPlaying() {
		t.Error("player still playing after Stop()")
	}
}
