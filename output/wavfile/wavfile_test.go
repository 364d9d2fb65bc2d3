// SPDX-License-Identifier: EPL-2.0

package wavfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	fwav "github.com/ik5/fluxplay/formats/wav"
	"github.com/ik5/fluxplay/output"
)

// countdown returns a callback that fills every sample with value and
// completes after calls buffers.
func countdown(calls int, value float32) output.Callback {
	n := 0
	return func(out []float32, frames int) output.Result {
		for i := range out {
			out[i] = value
		}
		n++
		if n == calls {
			return output.Complete
		}
		return output.Continue
	}
}

func waitDone(t *testing.T, s output.Stream) {
	t.Helper()

	select {
	case <-s.(*stream).Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not complete")
	}
}

func TestDevice_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.wav")
	s := output.Settings{SampleRate: 8000, Channels: 2, FramesPerBuffer: 100}

	stream, err := New(path).Open(s, countdown(4, 0.5))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := stream.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, stream)
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open rendered file: %v", err)
	}
	defer f.Close()

	src, err := fwav.Decoder{}.Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 8000 || src.Channels() != 2 {
		t.Errorf("format = %d Hz/%d ch, want 8000 Hz/2 ch", src.SampleRate(), src.Channels())
	}

	buf := make([]float32, 2000)
	total := 0
	for {
		n, err := src.ReadSamples(buf)
		for _, v := range buf[:n] {
			if v < 0.49 || v > 0.51 {
				t.Fatalf("sample = %v, want ~0.5", v)
			}
		}
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	// four buffers of 100 stereo frames
	if total != 800 {
		t.Errorf("rendered %d samples, want 800", total)
	}
}

// pipeWriter hides the Seek method of bytes.Buffer-like writers.
type pipeWriter struct {
	bytes.Buffer
}

func TestDevice_NonSeekableWriter(t *testing.T) {
	t.Parallel()

	var w pipeWriter
	s := output.Settings{SampleRate: 8000, Channels: 1, FramesPerBuffer: 50}

	stream, err := (&Device{Writer: &w}).Open(s, countdown(3, -0.25))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := stream.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, stream)

	if w.Len() != 0 {
		t.Errorf("wrote %d bytes before Close, want 0", w.Len())
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// 44 byte header plus 150 mono 16-bit samples
	if got, want := w.Len(), 44+150*2; got != want {
		t.Errorf("output size = %d, want %d", got, want)
	}
	if got := string(w.Bytes()[:4]); got != "RIFF" {
		t.Errorf("header = %q, want RIFF", got)
	}
}

func TestDevice_Open_Errors(t *testing.T) {
	t.Parallel()

	valid := output.Settings{SampleRate: 8000, Channels: 1, FramesPerBuffer: 50}
	cb := countdown(1, 0)

	tests := []struct {
		name    string
		dev     *Device
		s       output.Settings
		cb      output.Callback
		wantErr error
	}{
		{"no output", &Device{}, valid, cb, ErrNoOutput},
		{"invalid settings", &Device{Writer: io.Discard}, output.Settings{}, cb, output.ErrInvalidSettings},
		{"nil callback", &Device{Writer: io.Discard}, valid, nil, nil},
		{"missing dir", New(filepath.Join(t.TempDir(), "missing", "out.wav")), valid, cb, os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.dev.Open(tt.s, tt.cb)
			if err == nil {
				t.Fatal("Open() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStream_CloseTwice(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.wav")
	s := output.Settings{SampleRate: 8000, Channels: 1, FramesPerBuffer: 50}

	stream, err := New(path).Open(s, countdown(1, 0))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := stream.Start(); !errors.Is(err, output.ErrStreamClosed) {
		t.Errorf("Start() after Close error = %v, want %v", err, output.ErrStreamClosed)
	}
}
