// SPDX-License-Identifier: EPL-2.0

// Package oto provides an output device backed by the system sound card
// through ebitengine/oto.
//
// oto pulls bytes from an io.Reader on its own goroutine. The device bridges
// that pull model to a callback: every time oto's buffer needs more data the
// callback is asked for exactly one buffer of FramesPerBuffer frames, which
// is then served as float32 little-endian bytes.
//
// oto reads ahead of the sound card and keeps what it read in its own
// buffer. Stop therefore waits, bounded, for that buffer to play out once the
// callback has returned Complete; pausing earlier would drop the tail.
//
// oto allows a single context per process, so the first Open fixes the sample
// rate and channel count; later opens must use the same format.
package oto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/ik5/fluxplay/output"
)

const (
	bytesPerSample = 4

	// drainPoll is how often Stop checks the player buffer.
	drainPoll = 5 * time.Millisecond
	// drainSlack is added to oto's read-ahead when bounding the drain wait.
	drainSlack = 500 * time.Millisecond
)

var (
	// ErrFormatMismatch indicates an Open with a different format than the
	// process wide context was created with
	ErrFormatMismatch = errors.New("oto: context already created with another format")

	mtx        sync.Mutex
	otoCtx     *oto.Context
	otoSetting output.Settings
)

type Device struct{}

func New() *Device { return &Device{} }

func (d *Device) Open(s output.Settings, cb output.Callback) (output.Stream, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("oto: %w", err)
	}
	if cb == nil {
		return nil, errors.New("oto: nil callback")
	}

	ctx, err := sharedContext(s)
	if err != nil {
		return nil, err
	}

	r := newCallbackReader(cb, s)
	return newStream(ctx.NewPlayer(r), r, s), nil
}

func sharedContext(s output.Settings) (*oto.Context, error) {
	mtx.Lock()
	defer mtx.Unlock()

	if otoCtx != nil {
		if otoSetting.SampleRate != s.SampleRate || otoSetting.Channels != s.Channels {
			return nil, fmt.Errorf("have %d Hz/%d ch, want %d Hz/%d ch: %w",
				otoSetting.SampleRate, otoSetting.Channels, s.SampleRate, s.Channels, ErrFormatMismatch)
		}
		return otoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   s.SampleRate,
		ChannelCount: s.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   s.BufferPeriod(),
	})
	if err != nil {
		return nil, fmt.Errorf("oto: %w", err)
	}
	<-ready

	otoCtx = ctx
	otoSetting = s

	return ctx, nil
}

// player is the part of *oto.Player a stream drives.
type player interface {
	Play()
	Pause()
	IsPlaying() bool
	BufferedSize() int
	Err() error
	Close() error
}

type stream struct {
	player player
	reader *callbackReader

	// drainTimeout bounds how long Stop waits for buffered audio.
	drainTimeout time.Duration

	mtx    sync.Mutex
	closed bool
}

func newStream(p player, r *callbackReader, s output.Settings) *stream {
	// oto reads ahead half a second of audio
	return &stream{
		player:       p,
		reader:       r,
		drainTimeout: time.Second/2 + s.BufferPeriod() + drainSlack,
	}
}

func (s *stream) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return output.ErrStreamClosed
	}
	s.player.Play()

	return nil
}

// Stop pauses the player. When the callback has completed, the audio oto
// already read is played out first.
func (s *stream) Stop() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return nil
	}
	if s.reader.Completed() {
		s.drain()
	}
	s.player.Pause()

	return s.playerErr()
}

// drain waits until oto has nothing left to play or drainTimeout passes.
// oto pauses a player by itself once its source hit EOF and its buffer is
// empty.
func (s *stream) drain() {
	deadline := time.Now().Add(s.drainTimeout)
	for s.player.IsPlaying() && s.player.BufferedSize() > 0 {
		if time.Now().After(deadline) {
			return
		}
		time.Sleep(drainPoll)
	}
}

func (s *stream) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.playerErr()
	if cerr := s.player.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("oto: %w", cerr))
	}

	return err
}

func (s *stream) playerErr() error {
	if err := s.player.Err(); err != nil {
		return fmt.Errorf("oto: %w", err)
	}

	return nil
}

// callbackReader serves oto's reads one callback buffer at a time and
// reports io.EOF once a Complete buffer has been fully consumed.
type callbackReader struct {
	cb     output.Callback
	frames int

	samples []float32
	raw     []byte
	off     int
	last    bool

	// complete mirrors last for readers outside oto's goroutine.
	complete atomic.Bool
}

func newCallbackReader(cb output.Callback, s output.Settings) *callbackReader {
	n := s.BufferSamples()
	return &callbackReader{
		cb:      cb,
		frames:  s.FramesPerBuffer,
		samples: make([]float32, n),
		raw:     make([]byte, n*bytesPerSample),
		off:     n * bytesPerSample,
	}
}

func (r *callbackReader) Read(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if r.off == len(r.raw) {
			if r.last {
				break
			}
			r.fill()
		}

		n := copy(p[written:], r.raw[r.off:])
		r.off += n
		written += n
	}

	if written == 0 && r.last && len(p) > 0 {
		return 0, io.EOF
	}

	return written, nil
}

func (r *callbackReader) fill() {
	res := r.cb(r.samples, r.frames)
	for i, v := range r.samples {
		binary.LittleEndian.PutUint32(r.raw[i*bytesPerSample:], math.Float32bits(v))
	}
	r.off = 0
	if res == output.Complete {
		r.last = true
		r.complete.Store(true)
	}
}

// Completed reports whether the callback has returned Complete.
func (r *callbackReader) Completed() bool { return r.complete.Load() }
