// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// mockOggReader simulates oggvorbis.Reader. Each Read returns at most
// packet frames, like the real decoder returning one packet at a time.
type mockOggReader struct {
	sampleRate int
	channels   int
	samples    []float32
	offset     int
	packet     int
	length     int64
	err        error
}

func newMockReader(sampleRate, channels int, samples []float32) *mockOggReader {
	return &mockOggReader{
		sampleRate: sampleRate,
		channels:   channels,
		samples:    samples,
		packet:     1024,
		length:     int64(len(samples) / channels),
	}
}

func (m *mockOggReader) SampleRate() int { return m.sampleRate }
func (m *mockOggReader) Channels() int   { return m.channels }
func (m *mockOggReader) Length() int64   { return m.length }

func (m *mockOggReader) Read(p []float32) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}

	n := min(len(p)/m.channels, m.packet) * m.channels
	n = copy(p[:n], m.samples[m.offset:])
	m.offset += n

	return n, nil
}

func newTestSource(dec oggReader) *source {
	return &source{dec: dec, sampleRate: dec.SampleRate(), channels: dec.Channels()}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "garbage", data: []byte("This is not Ogg Vorbis data")},
		{name: "empty", data: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := (Decoder{}).Decode(bytes.NewReader(tt.data)); err == nil {
				t.Error("Decode() error = nil, want error")
			}
		})
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		sampleRate int
		channels   int
		length     int64
		wantLen    int64
	}{
		{name: "stereo", sampleRate: 44100, channels: 2, length: 1000, wantLen: 1000},
		{name: "mono unknown length", sampleRate: 22050, channels: 1, length: 0, wantLen: -1},
		{name: "5.1", sampleRate: 48000, channels: 6, length: 10, wantLen: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dec := newMockReader(tt.sampleRate, tt.channels, nil)
			dec.length = tt.length
			src := newTestSource(dec)

			if src.SampleRate() != tt.sampleRate {
				t.Errorf("SampleRate() = %d, want %d", src.SampleRate(), tt.sampleRate)
			}
			if src.Channels() != tt.channels {
				t.Errorf("Channels() = %d, want %d", src.Channels(), tt.channels)
			}
			if src.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", src.Len(), tt.wantLen)
			}
		})
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	samples := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	src := newTestSource(newMockReader(44100, 2, samples))

	buf := make([]float32, 16)
	n, err := src.ReadSamples(buf)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != len(samples) {
		t.Fatalf("ReadSamples() n = %d, want %d", n, len(samples))
	}
	for i, s := range samples {
		if buf[i] != s {
			t.Errorf("buf[%d] = %v, want %v", i, buf[i], s)
		}
	}

	n, err = src.ReadSamples(buf)
	if n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() after end = %d, %v; want 0, io.EOF", n, err)
	}
}

func TestSource_ReadSamples_FrameAligned(t *testing.T) {
	t.Parallel()

	src := newTestSource(newMockReader(48000, 2, make([]float32, 200)))
	buf := make([]float32, 7)

	for {
		n, err := src.ReadSamples(buf)
		if n%2 != 0 {
			t.Fatalf("ReadSamples() n = %d, not frame aligned", n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestSource_ReadSamples_ShortPacket(t *testing.T) {
	t.Parallel()

	dec := newMockReader(48000, 1, make([]float32, 5000))
	dec.packet = 128
	src := newTestSource(dec)

	n, err := src.ReadSamples(make([]float32, 4096))
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 128 {
		t.Errorf("ReadSamples() n = %d, want 128", n)
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("invalid packet")
	dec := newMockReader(48000, 2, make([]float32, 10))
	dec.err = boom

	_, err := newTestSource(dec).ReadSamples(make([]float32, 8))
	if !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func TestSource_ReadSamples_EmptyBuffer(t *testing.T) {
	t.Parallel()

	src := newTestSource(newMockReader(48000, 2, make([]float32, 10)))
	if n, err := src.ReadSamples(make([]float32, 1)); n != 0 || err != nil {
		t.Errorf("ReadSamples() = %d, %v; want 0, nil", n, err)
	}
}

func TestSource_Close(t *testing.T) {
	t.Parallel()

	if err := newTestSource(newMockReader(48000, 2, nil)).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
