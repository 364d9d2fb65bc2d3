// SPDX-License-Identifier: EPL-2.0

package output

import (
	"errors"
	"fmt"
	"time"
)

// Result tells a device whether to keep invoking the callback.
type Result int

const (
	// Continue requests another buffer.
	Continue Result = iota
	// Complete ends the stream after the current buffer.
	Complete
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Callback fills out with frames interleaved frames. len(out) is at least
// frames*channels. It runs on the device's own goroutine and must not block.
type Callback func(out []float32, frames int) Result

// Settings describes the stream a device is opened with.
type Settings struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// Validate reports every invalid field, joined.
func (s Settings) Validate() error {
	var errs []error
	if s.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate %d: %w", s.SampleRate, ErrInvalidSettings))
	}
	if s.Channels <= 0 {
		errs = append(errs, fmt.Errorf("channels %d: %w", s.Channels, ErrInvalidSettings))
	}
	if s.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("frames per buffer %d: %w", s.FramesPerBuffer, ErrInvalidSettings))
	}

	return errors.Join(errs...)
}

// BufferSamples is the interleaved length of one callback buffer.
func (s Settings) BufferSamples() int { return s.FramesPerBuffer * s.Channels }

// BufferPeriod is the playing time of one callback buffer.
func (s Settings) BufferPeriod() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}

	return time.Duration(s.FramesPerBuffer) * time.Second / time.Duration(s.SampleRate)
}

// Device opens output streams.
type Device interface {
	Open(s Settings, cb Callback) (Stream, error)
}

// Stream is an opened output. Start begins invoking the callback, Stop
// halts it and Close releases the device. Close on a running stream stops
// it first.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// DeviceFunc adapts a function to the Device interface.
type DeviceFunc func(s Settings, cb Callback) (Stream, error)

func (f DeviceFunc) Open(s Settings, cb Callback) (Stream, error) { return f(s, cb) }
