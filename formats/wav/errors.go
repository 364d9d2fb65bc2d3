// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	// ErrNotWavFile indicates the input has no RIFF/WAVE header or fmt chunk
	ErrNotWavFile = errors.New("not a WAV file")

	// ErrUnsupportedEncoding indicates a compressed or floating point WAV
	ErrUnsupportedEncoding = errors.New("only integer PCM WAV is supported")

	// ErrUnsupportedBitDepth indicates a sample size other than 8, 16, 24 or 32 bits
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")

	// ErrNoPCMData indicates the file has no data chunk
	ErrNoPCMData = errors.New("WAV data chunk not found")
)
