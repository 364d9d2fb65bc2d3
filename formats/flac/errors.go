// SPDX-License-Identifier: EPL-2.0

package flac

import "errors"

// ErrUnsupportedChannels indicates a layout beep cannot represent. beep
// streams are at most stereo.
var ErrUnsupportedChannels = errors.New("FLAC files with more than two channels are not supported")
