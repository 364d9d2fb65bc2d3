// SPDX-License-Identifier: EPL-2.0

// Package null provides an output device that discards audio.
//
// In realtime mode the callback is paced by a ticker at the buffer period,
// which makes the device a stand-in for hardware on headless machines.
// Otherwise buffers are requested back to back, which is useful for tests
// and for measuring decode throughput.
package null

import (
	"errors"
	"fmt"

	"github.com/ik5/fluxplay/output"
)

type Device struct {
	Realtime bool
}

func New(realtime bool) *Device {
	return &Device{Realtime: realtime}
}

func (d *Device) Open(s output.Settings, cb output.Callback) (output.Stream, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("null: %w", err)
	}
	if cb == nil {
		return nil, errors.New("null: nil callback")
	}

	var period = s.BufferPeriod()
	if !d.Realtime {
		period = 0
	}

	return output.NewPump(s, cb, period, nil), nil
}
