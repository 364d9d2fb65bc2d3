// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")
	// ErrInvalidFormat indicates a target format with a non-positive rate or channel count
	ErrInvalidFormat = errors.New("format needs a positive sample rate and channel count")
)
