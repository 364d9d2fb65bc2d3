// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"errors"
	"sync"

	"github.com/ik5/fluxplay/output"
)

// ManualDevice is an output.Device whose callback only runs when a test
// calls Pull, which makes callback ordering deterministic.
type ManualDevice struct {
	// OpenErr and StartErr make Open and Start fail.
	OpenErr  error
	StartErr error

	mtx      sync.Mutex
	settings output.Settings
	cb       output.Callback
	buf      []float32
	opened   chan struct{}
	started  chan struct{}
	running  bool
	stops    int
	closed   bool
}

func NewManualDevice() *ManualDevice {
	return &ManualDevice{
		opened:  make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (d *ManualDevice) Open(s output.Settings, cb output.Callback) (output.Stream, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	d.mtx.Lock()
	defer d.mtx.Unlock()

	if d.cb != nil {
		return nil, errors.New("audiotest: device already open")
	}
	d.settings = s
	d.cb = cb
	d.buf = make([]float32, s.BufferSamples())
	close(d.opened)

	return &manualStream{d: d}, nil
}

// Opened is closed once Open succeeds.
func (d *ManualDevice) Opened() <-chan struct{} { return d.opened }

// Started is closed once the stream is started.
func (d *ManualDevice) Started() <-chan struct{} { return d.started }

// Settings returns the settings the device was opened with.
func (d *ManualDevice) Settings() output.Settings {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	return d.settings
}

// Pull invokes the callback once with a buffer of FramesPerBuffer frames
// prefilled with garbage, and returns the result with a copy of the buffer.
func (d *ManualDevice) Pull() (output.Result, []float32) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	for i := range d.buf {
		d.buf[i] = -99
	}
	res := d.cb(d.buf, d.settings.FramesPerBuffer)

	return res, append([]float32(nil), d.buf...)
}

// PumpUntilComplete pulls until the callback returns Complete or max calls
// were made. It returns every sample delivered, the number of calls, and
// whether the stream completed.
func (d *ManualDevice) PumpUntilComplete(max int) ([]float32, int, bool) {
	var all []float32
	for calls := 1; calls <= max; calls++ {
		res, buf := d.Pull()
		all = append(all, buf...)
		if res == output.Complete {
			return all, calls, true
		}
	}

	return all, max, false
}

// Running reports whether the stream is started and not stopped.
func (d *ManualDevice) Running() bool {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	return d.running
}

// Stops returns how many times Stop was called.
func (d *ManualDevice) Stops() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	return d.stops
}

// Closed reports whether the stream was closed.
func (d *ManualDevice) Closed() bool {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	return d.closed
}

type manualStream struct {
	d *ManualDevice
}

func (s *manualStream) Start() error {
	d := s.d
	if d.StartErr != nil {
		return d.StartErr
	}

	d.mtx.Lock()
	defer d.mtx.Unlock()

	if d.closed {
		return output.ErrStreamClosed
	}
	if !d.running {
		d.running = true
		select {
		case <-d.started:
		default:
			close(d.started)
		}
	}

	return nil
}

func (s *manualStream) Stop() error {
	s.d.mtx.Lock()
	defer s.d.mtx.Unlock()

	s.d.running = false
	s.d.stops++

	return nil
}

func (s *manualStream) Close() error {
	s.d.mtx.Lock()
	defer s.d.mtx.Unlock()

	s.d.running = false
	s.d.closed = true

	return nil
}

// RecordingWriter is an io.Writer safe for concurrent use that keeps
// everything written to it.
type RecordingWriter struct {
	mtx sync.Mutex
	buf bytes.Buffer
}

func (w *RecordingWriter) Write(p []byte) (int, error) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	return w.buf.Write(p)
}

func (w *RecordingWriter) String() string {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	return w.buf.String()
}
