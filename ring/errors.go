// SPDX-License-Identifier: EPL-2.0

package ring

import "errors"

var (
	// ErrInvalidCapacity indicates a capacity that is not a positive multiple of the channel count
	ErrInvalidCapacity = errors.New("ring capacity must be a positive multiple of channels")
	// ErrInvalidChannels indicates a non-positive channel count
	ErrInvalidChannels = errors.New("ring channels must be positive")
)
