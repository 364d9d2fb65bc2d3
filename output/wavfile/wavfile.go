// SPDX-License-Identifier: EPL-2.0

// Package wavfile provides an output device that renders audio to a 16-bit
// PCM WAV file instead of a sound card.
//
// The callback is paced at one buffer per buffer period, like a sound card,
// so the file holds exactly what a listener would hear. Seekable
// destinations are written incrementally through the go-audio encoder;
// other writers, such as pipes, are buffered in memory and written when the
// stream is closed.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/fluxplay/formats/wav"
	"github.com/ik5/fluxplay/output"
	"github.com/ik5/fluxplay/utils"
)

const (
	bitDepth     = 16
	wavFormatPCM = 1
)

// ErrNoOutput indicates a device with neither a path nor a writer
var ErrNoOutput = errors.New("wavfile: no output path or writer")

// Device writes every buffer it requests to Path, or to Writer when Path is
// empty.
type Device struct {
	Path   string
	Writer io.Writer
}

// New returns a device that writes to path.
func New(path string) *Device {
	return &Device{Path: path}
}

func (d *Device) Open(s output.Settings, cb output.Callback) (output.Stream, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("wavfile: %w", err)
	}
	if cb == nil {
		return nil, errors.New("wavfile: nil callback")
	}

	w := d.Writer
	var file *os.File
	if d.Path != "" {
		f, err := os.Create(d.Path)
		if err != nil {
			return nil, fmt.Errorf("wavfile: %w", err)
		}
		file = f
		w = f
	}
	if w == nil {
		return nil, ErrNoOutput
	}

	st := &stream{file: file}
	if ws, ok := w.(io.WriteSeeker); ok && isSeekable(ws) {
		st.sink = newEncoderSink(ws, s)
	} else {
		st.sink = &bufferedSink{w: w, settings: s}
	}
	st.Pump = output.NewPump(s, cb, s.BufferPeriod(), st.sink.write)

	return st, nil
}

// isSeekable reports whether ws really supports seeking. Pipes and
// terminals implement io.Seeker but fail when used.
func isSeekable(ws io.WriteSeeker) bool {
	_, err := ws.Seek(0, io.SeekCurrent)
	return err == nil
}

type sink interface {
	write(buf []float32) error
	finish() error
}

type stream struct {
	*output.Pump

	sink sink
	file *os.File
}

// Close stops the pump, finalizes the WAV header and closes the file when
// the device created it.
func (s *stream) Close() error {
	errs := []error{s.Pump.Close()}
	errs = append(errs, s.sink.finish())
	if s.file != nil {
		errs = append(errs, s.file.Close())
		s.file = nil
	}

	return errors.Join(errs...)
}

type encoderSink struct {
	enc    *gowav.Encoder
	intBuf *goaudio.IntBuffer
	done   bool
}

func newEncoderSink(ws io.WriteSeeker, s output.Settings) *encoderSink {
	return &encoderSink{
		enc: gowav.NewEncoder(ws, s.SampleRate, bitDepth, s.Channels, wavFormatPCM),
		intBuf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: s.Channels,
				SampleRate:  s.SampleRate,
			},
			Data:           make([]int, s.BufferSamples()),
			SourceBitDepth: bitDepth,
		},
	}
}

func (e *encoderSink) write(buf []float32) error {
	if len(e.intBuf.Data) < len(buf) {
		e.intBuf.Data = make([]int, len(buf))
	}
	n := utils.Float32sToInts(e.intBuf.Data[:len(buf)], buf)

	data := e.intBuf.Data
	e.intBuf.Data = data[:n]
	err := e.enc.Write(e.intBuf)
	e.intBuf.Data = data
	if err != nil {
		return fmt.Errorf("wavfile: %w", err)
	}

	return nil
}

func (e *encoderSink) finish() error {
	if e.done {
		return nil
	}
	e.done = true

	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("wavfile: %w", err)
	}

	return nil
}

type bufferedSink struct {
	w        io.Writer
	settings output.Settings
	samples  []int16
	done     bool
}

func (b *bufferedSink) write(buf []float32) error {
	start := len(b.samples)
	b.samples = append(b.samples, make([]int16, len(buf))...)
	utils.Float32sToInt16s(b.samples[start:], buf)

	return nil
}

func (b *bufferedSink) finish() error {
	if b.done {
		return nil
	}
	b.done = true

	err := wav.WriteWAV16(b.w, b.settings.SampleRate, b.settings.Channels, b.samples)
	b.samples = nil
	if err != nil {
		return fmt.Errorf("wavfile: %w", err)
	}

	return nil
}
