// SPDX-License-Identifier: EPL-2.0

package playback

import "errors"

var (
	// ErrSinkStart indicates the output device could not be opened or started
	ErrSinkStart = errors.New("audio sink failed to start")

	// ErrStalled indicates the consumer stopped draining the ring for longer than the stall timeout
	ErrStalled = errors.New("audio sink stalled")

	// ErrFormatMismatch indicates a source whose rate or channel count differs from the output settings
	ErrFormatMismatch = errors.New("source format does not match output")

	// ErrNotIdle indicates Play on a player that already ran
	ErrNotIdle = errors.New("player is not idle")

	// ErrDeviceEnded indicates an output stream that stopped calling back before the stream completed
	ErrDeviceEnded = errors.New("output device ended before the stream")
)
