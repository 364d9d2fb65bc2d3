// SPDX-License-Identifier: EPL-2.0

// Package fluxplay plays audio files through a real-time output device.
//
// The module is split into small packages that can be used on their own:
//
//   - audio: the Source interface, decoder Registry, ChannelMixer,
//     Resampler and Normalize
//   - formats/wav, formats/mp3, formats/vorbis, formats/aiff, formats/flac:
//     decoders returning audio.Source
//   - ring: a lock-free single-producer single-consumer sample ring
//   - playback: the feeder, real-time sink, progress line and the Player
//     that ties them to an output device
//   - output: the callback-driven Device interface, with oto, portaudio,
//     null and wavfile backends in subpackages
//
// This package adds the glue a player needs to go from a file name to a
// Source in the output format:
//
//	src, info, err := fluxplay.Open("song.flac", audio.Format{SampleRate: 48000, Channels: 2})
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//
//	info.Report(os.Stdout)
//	err = playback.NewPlayer(dev, settings, playback.Options{}).Play(ctx, src)
//
// # Supported Formats
//
//   - WAV (PCM 8, 16, 24 and 32-bit)
//   - AIFF (PCM 8, 16, 24 and 32-bit)
//   - MP3
//   - Ogg Vorbis
//   - FLAC (mono and stereo)
//
// The command in cmd/fluxplay plays a file from the command line.
package fluxplay
