// SPDX-License-Identifier: EPL-2.0

// Package config provides the configuration schema and loader for the
// fluxplay command.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file, and FLUXPLAY_* environment variables (which may also
// be supplied through a .env file).
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure.
type Config struct {
	// SampleRate and Channels are the output format every input is
	// normalized to.
	SampleRate      int `yaml:"sample_rate"`
	Channels        int `yaml:"channels"`
	FramesPerBuffer int `yaml:"frames_per_buffer"`

	Gain        float32 `yaml:"gain"`
	RingSeconds float64 `yaml:"ring_seconds"`

	Backoff          time.Duration `yaml:"backoff"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	// StallTimeout of zero waits for the device forever.
	StallTimeout time.Duration `yaml:"stall_timeout"`

	DecodeChunkFrames int `yaml:"decode_chunk_frames"`
	MaxDecodeErrors   int `yaml:"max_decode_errors"`

	// Device names an output backend: oto, portaudio, null or wavfile.
	Device string `yaml:"device"`
	// WavOutput is the file the wavfile device renders to.
	WavOutput string `yaml:"wav_output"`

	LogLevel LogLevel `yaml:"log_level"`
	// MetricsAddr is the listen address of the Prometheus endpoint. Empty
	// disables it.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		SampleRate:        48000,
		Channels:          2,
		FramesPerBuffer:   512,
		Gain:              0.5,
		RingSeconds:       1,
		Backoff:           10 * time.Microsecond,
		ProgressInterval:  100 * time.Millisecond,
		PollInterval:      100 * time.Millisecond,
		DecodeChunkFrames: 1024,
		MaxDecodeErrors:   32,
		Device:            "oto",
		WavOutput:         "out.wav",
		LogLevel:          LogInfo,
	}
}

// ValidDevices lists the output backends the command can open.
var ValidDevices = []string{"null", "oto", "portaudio", "wavfile"}
