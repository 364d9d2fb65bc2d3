// SPDX-License-Identifier: EPL-2.0

// Package portaudio provides an output device backed by PortAudio's default
// output stream.
//
// PortAudio invokes its own callback on a real-time thread with an
// interleaved float32 buffer, which maps directly onto output.Callback.
// PortAudio has no way for the callback to end the stream, so once the
// callback returns Complete further buffers are filled with silence until
// the stream is stopped.
package portaudio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/ik5/fluxplay/output"
)

type Device struct{}

func New() *Device { return &Device{} }

// Open initializes PortAudio and opens the default output device. The
// matching Terminate happens in Close.
func (d *Device) Open(s output.Settings, cb output.Callback) (output.Stream, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}
	if cb == nil {
		return nil, errors.New("portaudio: nil callback")
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}

	a := newAdapter(cb, s)
	pa, err := portaudio.OpenDefaultStream(0, s.Channels, float64(s.SampleRate), s.FramesPerBuffer, a.process)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("portaudio: %w", err), terminate())
	}

	return &stream{pa: pa, adapter: a}, nil
}

func terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}

	return nil
}

type stream struct {
	pa      *portaudio.Stream
	adapter *adapter

	mtx     sync.Mutex
	running bool
	closed  bool
}

func (s *stream) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return output.ErrStreamClosed
	}
	if s.running {
		return nil
	}
	if err := s.pa.Start(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}
	s.running = true

	return nil
}

func (s *stream) Stop() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.stop()
}

func (s *stream) stop() error {
	if !s.running {
		return nil
	}
	s.running = false
	if err := s.pa.Stop(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}

	return nil
}

func (s *stream) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	errs := []error{s.stop()}
	if err := s.pa.Close(); err != nil {
		errs = append(errs, fmt.Errorf("portaudio: %w", err))
	}
	errs = append(errs, terminate())

	return errors.Join(errs...)
}

// adapter turns output.Callback into PortAudio's interleaved output
// callback and latches completion.
type adapter struct {
	cb       output.Callback
	channels int
	complete atomic.Bool
}

func newAdapter(cb output.Callback, s output.Settings) *adapter {
	return &adapter{cb: cb, channels: s.Channels}
}

func (a *adapter) process(out []float32) {
	if a.complete.Load() {
		clear(out)
		return
	}

	if a.cb(out, len(out)/a.channels) == output.Complete {
		a.complete.Store(true)
	}
}

