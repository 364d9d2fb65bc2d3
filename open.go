// SPDX-License-Identifier: EPL-2.0

package fluxplay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ik5/fluxplay/audio"
	"github.com/ik5/fluxplay/formats/aiff"
	"github.com/ik5/fluxplay/formats/flac"
	"github.com/ik5/fluxplay/formats/mp3"
	"github.com/ik5/fluxplay/formats/vorbis"
	"github.com/ik5/fluxplay/formats/wav"
)

// DefaultRegistry returns a registry with every bundled decoder.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register(wav.Decoder{}, "wav", "wave")
	reg.Register(mp3.Decoder{}, "mp3")
	reg.Register(vorbis.Decoder{}, "ogg", "oga")
	reg.Register(aiff.Decoder{}, "aif", "aiff", "aifc")
	reg.Register(flac.Decoder{}, "flac")

	return reg
}

// Info describes an opened input and the conversion applied to it.
type Info struct {
	Path      string
	Container string

	// Source is the decoded format, Target the format played.
	Source audio.Format
	Target audio.Format

	// Frames is the decoded length, or -1 when unknown.
	Frames int64
	// BitDepth is the PCM sample size, or 0 for compressed formats.
	BitDepth int
}

// Converted reports whether a ChannelMixer or Resampler was inserted.
func (i Info) Converted() bool { return i.Source != i.Target }

// Duration returns the playing time and whether it is known.
func (i Info) Duration() (time.Duration, bool) {
	if i.Frames < 0 || i.Source.SampleRate <= 0 {
		return 0, false
	}

	return time.Duration(i.Frames) * time.Second / time.Duration(i.Source.SampleRate), true
}

const reportIndent = 17

// Report writes a human readable summary of the input and the conversion.
func (i Info) Report(w io.Writer) error {
	var b strings.Builder
	section := func(name string) {
		fmt.Fprintf(&b, "%s[%s]\n", strings.Repeat(" ", reportIndent), name)
	}
	field := func(name string, format string, args ...any) {
		fmt.Fprintf(&b, "%16s: %s\n", name, fmt.Sprintf(format, args...))
	}

	section("Input")
	field("File Path", "%s", i.Path)
	field("Container", "%s", i.Container)
	field("Sample Rate", "%d", i.Source.SampleRate)
	field("Channels", "%d", i.Source.Channels)
	if i.BitDepth > 0 {
		field("Bit Depth", "%d", i.BitDepth)
	}
	if d, ok := i.Duration(); ok {
		field("Duration", "%v (%d frames)", d.Round(time.Millisecond), i.Frames)
	} else {
		field("Duration", "unknown")
	}

	b.WriteString("\n")
	section("Resampler")
	field("Enabled", "%t", i.Converted())
	if i.Converted() {
		field("Sample Rate", "%d -> %d", i.Source.SampleRate, i.Target.SampleRate)
		field("Channels", "%d -> %d", i.Source.Channels, i.Target.Channels)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

type bitDepther interface {
	BitDepth() int
}

// Decode picks a decoder for container from reg, decodes r and normalizes
// the result to target.
func Decode(reg *audio.Registry, r io.Reader, container string, target audio.Format) (audio.Source, Info, error) {
	dec, ok := reg.Get(container)
	if !ok {
		return nil, Info{}, fmt.Errorf("%q (have %s): %w", container, strings.Join(reg.Formats(), ", "), ErrUnsupportedFormat)
	}

	src, err := dec.Decode(r)
	if err != nil {
		return nil, Info{}, fmt.Errorf("decode %s: %w", container, err)
	}

	info := Info{
		Container: strings.ToLower(container),
		Source:    audio.FormatOf(src),
		Target:    target,
		Frames:    audio.Len(src),
	}
	if bd, ok := src.(bitDepther); ok {
		info.BitDepth = bd.BitDepth()
	}

	out, _, err := audio.Normalize(src, target)
	if err != nil {
		return nil, Info{}, errors.Join(err, src.Close())
	}

	return out, info, nil
}

// Open decodes the file at path with DefaultRegistry, choosing the decoder
// by extension, and normalizes it to target. Closing the returned source
// closes the file.
func Open(path string, target audio.Format) (audio.Source, Info, error) {
	return OpenWith(DefaultRegistry(), path, target)
}

// OpenWith is Open with a custom registry.
func OpenWith(reg *audio.Registry, path string, target audio.Format) (audio.Source, Info, error) {
	_, container, ok := reg.ForPath(path)
	if !ok {
		return nil, Info{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w", err)
	}

	src, info, err := Decode(reg, f, container, target)
	if err != nil {
		return nil, Info{}, errors.Join(err, f.Close())
	}
	info.Path = path

	return &fileSource{Source: src, f: f}, info, nil
}

// fileSource closes the input file after the decoding chain.
type fileSource struct {
	audio.Source
	f *os.File
}

func (s *fileSource) Len() int64 { return audio.Len(s.Source) }

func (s *fileSource) Close() error {
	err := s.Source.Close()
	// some decoders close their reader themselves
	if ferr := s.f.Close(); ferr != nil && !errors.Is(ferr, os.ErrClosed) {
		err = errors.Join(err, ferr)
	}

	return err
}
