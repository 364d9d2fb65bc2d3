// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Lengther is implemented by sources that know their total length.
type Lengther interface {
	// Len returns the total number of frames, or -1 when unknown.
	Len() int64
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Format describes the sample rate and channel count of an audio stream.
type Format struct {
	SampleRate int
	Channels   int
}

// FormatOf returns the format of src.
func FormatOf(src Source) Format {
	return Format{SampleRate: src.SampleRate(), Channels: src.Channels()}
}

// Len returns the total number of frames of src, or -1 when src does not
// implement Lengther.
func Len(src Source) int64 {
	l, ok := src.(Lengther)
	if !ok {
		return -1
	}

	return l.Len()
}

// Duration returns the playing time of src. The second value is false when
// the length is unknown.
func Duration(src Source) (time.Duration, bool) {
	frames := Len(src)
	if frames < 0 || src.SampleRate() <= 0 {
		return 0, false
	}

	return time.Duration(frames) * time.Second / time.Duration(src.SampleRate()), true
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

// Register binds d to one or more format keys. Keys are case insensitive.
func (r *Registry) Register(d Decoder, formats ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, format := range formats {
		r.codecs[strings.ToLower(format)] = d
	}
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[strings.ToLower(format)]
	return d, ok
}

// ForPath looks up a decoder by the extension of path.
func (r *Registry) ForPath(path string) (Decoder, string, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, "", false
	}

	d, ok := r.Get(ext)
	return d, strings.ToLower(ext), ok
}

// Formats lists the registered keys in sorted order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	keys := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
