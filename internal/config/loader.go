// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to the upper-cased YAML key to form the name of
// the overriding environment variable, e.g. FLUXPLAY_SAMPLE_RATE.
const EnvPrefix = "FLUXPLAY_"

// Load builds a validated Config from the defaults, the YAML file at path
// (skipped when path is empty) and the environment. Variables in envFile
// are used for names the process environment does not set; a missing
// envFile is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()

		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	lookup, err := EnvLookup(envFile)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. The environment is not consulted.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}

	return nil
}

// EnvLookup returns a lookup that prefers the process environment and
// falls back to the variables in envFile.
func EnvLookup(envFile string) (func(string) (string, bool), error) {
	var file map[string]string
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %q: %w", envFile, err)
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

// ApplyEnv overrides fields of cfg from lookup. Every malformed value is
// reported, joined.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = n
	}
	float := func(key string, bits int, set func(float64)) {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), bits)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		set(f)
	}
	duration := func(key string, dst *time.Duration) {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = d
	}

	integer("SAMPLE_RATE", &cfg.SampleRate)
	integer("CHANNELS", &cfg.Channels)
	integer("FRAMES_PER_BUFFER", &cfg.FramesPerBuffer)
	float("GAIN", 32, func(f float64) { cfg.Gain = float32(f) })
	float("RING_SECONDS", 64, func(f float64) { cfg.RingSeconds = f })
	duration("BACKOFF", &cfg.Backoff)
	duration("PROGRESS_INTERVAL", &cfg.ProgressInterval)
	duration("POLL_INTERVAL", &cfg.PollInterval)
	duration("STALL_TIMEOUT", &cfg.StallTimeout)
	integer("DECODE_CHUNK_FRAMES", &cfg.DecodeChunkFrames)
	integer("MAX_DECODE_ERRORS", &cfg.MaxDecodeErrors)
	str("DEVICE", &cfg.Device)
	str("WAV_OUTPUT", &cfg.WavOutput)
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = LogLevel(strings.ToLower(v))
	}
	str("METRICS_ADDR", &cfg.MetricsAddr)

	return errors.Join(errs...)
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate %d must be positive", cfg.SampleRate))
	}
	if cfg.Channels <= 0 {
		errs = append(errs, fmt.Errorf("channels %d must be positive", cfg.Channels))
	}
	if cfg.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("frames_per_buffer %d must be positive", cfg.FramesPerBuffer))
	}
	if cfg.Gain < 0 {
		errs = append(errs, fmt.Errorf("gain %.2f must not be negative", cfg.Gain))
	}
	if cfg.RingSeconds <= 0 {
		errs = append(errs, fmt.Errorf("ring_seconds %.2f must be positive", cfg.RingSeconds))
	} else if frames := cfg.RingSeconds * float64(cfg.SampleRate); cfg.FramesPerBuffer > 0 && frames < float64(cfg.FramesPerBuffer) {
		errs = append(errs, fmt.Errorf("ring_seconds %.3f holds %.0f frames, less than frames_per_buffer %d",
			cfg.RingSeconds, frames, cfg.FramesPerBuffer))
	}
	if cfg.Backoff <= 0 {
		errs = append(errs, fmt.Errorf("backoff %v must be positive", cfg.Backoff))
	}
	if cfg.ProgressInterval <= 0 {
		errs = append(errs, fmt.Errorf("progress_interval %v must be positive", cfg.ProgressInterval))
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval %v must be positive", cfg.PollInterval))
	}
	if cfg.StallTimeout < 0 {
		errs = append(errs, fmt.Errorf("stall_timeout %v must not be negative", cfg.StallTimeout))
	}
	if cfg.DecodeChunkFrames <= 0 {
		errs = append(errs, fmt.Errorf("decode_chunk_frames %d must be positive", cfg.DecodeChunkFrames))
	}
	if !slices.Contains(ValidDevices, cfg.Device) {
		errs = append(errs, fmt.Errorf("device %q is invalid; valid values: %s", cfg.Device, strings.Join(ValidDevices, ", ")))
	}
	if cfg.Device == "wavfile" && cfg.WavOutput == "" {
		errs = append(errs, errors.New("wav_output is required when device is wavfile"))
	}
	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	return errors.Join(errs...)
}
