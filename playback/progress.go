// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"context"
	"fmt"
	"io"
	"time"
)

const (
	DefaultProgressInterval = 100 * time.Millisecond

	progressHeader = "\n  DECODE  PLAYPOS DURATION\n"
)

// Progress renders decode and play positions on a single terminal line
// while the stream plays. It only reads Status.
type Progress struct {
	w           io.Writer
	status      *Status
	sampleRate  int
	totalFrames int64
	interval    time.Duration
}

// NewProgress reports to w. totalFrames is the stream length, or -1 when
// unknown.
func NewProgress(w io.Writer, status *Status, sampleRate int, totalFrames int64, interval time.Duration) *Progress {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	return &Progress{
		w:           w,
		status:      status,
		sampleRate:  sampleRate,
		totalFrames: totalFrames,
		interval:    interval,
	}
}

// Run renders until the stream stops playing or ctx is done. It prints a
// header first and ends the line on return.
func (p *Progress) Run(ctx context.Context) error {
	fmt.Fprint(p.w, progressHeader)
	defer fmt.Fprintln(p.w)

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for p.status.IsPlaying() {
		fmt.Fprint(p.w, p.Line(p.status.Snapshot()))

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}

	// final positions
	fmt.Fprint(p.w, p.Line(p.status.Snapshot()))

	return nil
}

// Line formats one progress line for snap.
func (p *Progress) Line(snap Snapshot) string {
	duration := "--"
	if p.totalFrames >= 0 {
		duration = fmt.Sprintf("%.1fs", p.seconds(uint64(p.totalFrames)))
	}

	return fmt.Sprintf("\r%7.1fs %7.1fs %8s  [PLAYING]",
		p.seconds(snap.FramesDecoded), p.seconds(snap.FramesPlayed), duration)
}

func (p *Progress) seconds(frames uint64) float64 {
	if p.sampleRate <= 0 {
		return 0
	}

	return float64(frames) / float64(p.sampleRate)
}
