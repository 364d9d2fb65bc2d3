// SPDX-License-Identifier: EPL-2.0

package output

import "errors"

var (
	// ErrUnknownDevice indicates a device name missing from the registry
	ErrUnknownDevice = errors.New("unknown output device")

	// ErrInvalidSettings indicates a non-positive rate, channel count or buffer size
	ErrInvalidSettings = errors.New("invalid output settings")

	// ErrStreamClosed indicates use of a stream after Close
	ErrStreamClosed = errors.New("output stream closed")
)
