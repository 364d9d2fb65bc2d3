// SPDX-License-Identifier: EPL-2.0

// Command fluxplay plays an audio file on the default output device.
//
//	fluxplay [-config file] [-env file] [-device name] <in_file>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/fluxplay"
	"github.com/ik5/fluxplay/audio"
	"github.com/ik5/fluxplay/internal/config"
	"github.com/ik5/fluxplay/internal/observe"
	"github.com/ik5/fluxplay/output"
	"github.com/ik5/fluxplay/output/null"
	"github.com/ik5/fluxplay/output/oto"
	"github.com/ik5/fluxplay/output/portaudio"
	"github.com/ik5/fluxplay/output/wavfile"
	"github.com/ik5/fluxplay/playback"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fluxplay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	envFile := fs.String("env", ".env", "file with FLUXPLAY_* variables")
	deviceName := fs.String("device", "", "output device: "+fmt.Sprint(config.ValidDevices))
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: fluxplay [-config file] [-env file] [-device name] <in_file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	fmt.Fprint(stdout, "fluxplay cli\n\n")
	if fs.NArg() < 1 {
		fs.SetOutput(stdout)
		fs.Usage()
		return 0
	}
	path := fs.Arg(0)

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *deviceName != "" {
		cfg.Device = *deviceName
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	log, err := observe.NewLogger(stderr, string(cfg.LogLevel))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	slog.SetDefault(log)

	if err := play(ctx, cfg, path, stdout, stderr, log); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("interrupted")
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func devices(cfg *config.Config) *output.Registry {
	reg := output.NewRegistry()
	reg.Register("oto", oto.New())
	reg.Register("portaudio", portaudio.New())
	reg.Register("null", null.New(true))
	reg.Register("wavfile", wavfile.New(cfg.WavOutput))

	return reg
}

func play(ctx context.Context, cfg *config.Config, path string, stdout, stderr io.Writer, log *slog.Logger) error {
	target := audio.Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels}
	src, info, err := fluxplay.Open(path, target)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := info.Report(stdout); err != nil {
		return err
	}

	dev, err := devices(cfg).Get(cfg.Device)
	if err != nil {
		return err
	}

	settings := output.Settings{
		SampleRate:      cfg.SampleRate,
		Channels:        cfg.Channels,
		FramesPerBuffer: cfg.FramesPerBuffer,
	}
	fmt.Fprintf(stdout, "\n%17s[Play Device]\n", "")
	fmt.Fprintf(stdout, "%16s: %s\n", "Output Device", cfg.Device)
	fmt.Fprintf(stdout, "%16s: %d frames (%v)\n", "Buffer", settings.FramesPerBuffer, settings.BufferPeriod())
	if cfg.Device == "wavfile" {
		fmt.Fprintf(stdout, "%16s: %s\n", "Output File", cfg.WavOutput)
	}

	player := playback.NewPlayer(dev, settings, playback.Options{
		Gain:             playback.Gain(cfg.Gain),
		RingSeconds:      cfg.RingSeconds,
		Backoff:          cfg.Backoff,
		StallTimeout:     cfg.StallTimeout,
		ChunkFrames:      cfg.DecodeChunkFrames,
		MaxDecodeErrors:  cfg.MaxDecodeErrors,
		PollInterval:     cfg.PollInterval,
		Progress:         stderr,
		ProgressInterval: cfg.ProgressInterval,
		Logger:           log,
	})

	if cfg.MetricsAddr == "" {
		return player.Play(ctx, src)
	}

	return playWithMetrics(ctx, cfg.MetricsAddr, player, src, log)
}

// playWithMetrics serves /metrics for as long as the player runs.
func playWithMetrics(ctx context.Context, addr string, player *playback.Player, src audio.Source, log *slog.Logger) error {
	mp, shutdown, err := observe.InitProvider(observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("metrics shutdown", slog.Any("error", err))
		}
	}()

	metrics, err := observe.NewMetrics(mp, player)
	if err != nil {
		return err
	}
	defer func() {
		if err := metrics.Unregister(); err != nil {
			log.Warn("metrics unregister", slog.Any("error", err))
		}
	}()

	srv, err := observe.NewMetricsServer(addr, nil, log)
	if err != nil {
		return err
	}

	srvCtx, cancel := context.WithCancel(ctx)
	g := new(errgroup.Group)
	g.Go(func() error { return srv.Serve(srvCtx) })

	playErr := player.Play(ctx, src)
	cancel()

	return errors.Join(playErr, g.Wait())
}
