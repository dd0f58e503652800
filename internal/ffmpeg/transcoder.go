// Package ffmpeg implements the audio operations of the pipeline on top of
// the ffmpeg command-line tool.
package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
)

// runner executes an external program. Implemented by tool.Executor.
type runner interface {
	Run(ctx context.Context, path string, args []string) error
}

// Transcoder runs ffmpeg for resampling, preview encoding, cutting,
// padding and trimming. Every method overwrites its output.
type Transcoder struct {
	ffmpegPath string
	run        runner
}

// NewTranscoder creates a Transcoder invoking the ffmpeg binary at ffmpegPath.
func NewTranscoder(ffmpegPath string, r runner) *Transcoder {
	return &Transcoder{ffmpegPath: ffmpegPath, run: r}
}

// Resample converts input to 16 kHz mono PCM at output.
func (t *Transcoder) Resample(ctx context.Context, input, output string) error {
	return t.exec(ctx, "resample", output, ResampleArgs(input, output))
}

// Preview encodes input as a low-bitrate preview at output.
func (t *Transcoder) Preview(ctx context.Context, input, output string) error {
	return t.exec(ctx, "preview", output, PreviewArgs(input, output))
}

// Cut copies [start, end] seconds of input to output without re-encoding.
func (t *Transcoder) Cut(ctx context.Context, input, output string, start, end float64) error {
	return t.exec(ctx, "cut", output, CutArgs(input, output, start, end))
}

// Pad appends padSec seconds of silence to input and writes output.
func (t *Transcoder) Pad(ctx context.Context, input, output string, padSec float64) error {
	return t.exec(ctx, "pad", output, PadArgs(input, output, padSec))
}

// Trim re-encodes [start, end] seconds of input to output.
func (t *Transcoder) Trim(ctx context.Context, input, output string, start, end float64) error {
	return t.exec(ctx, "trim", output, TrimArgs(input, output, start, end))
}

func (t *Transcoder) exec(ctx context.Context, op, output string, args []string) error {
	if err := t.run.Run(ctx, t.ffmpegPath, args); err != nil {
		return fmt.Errorf("%s %s: %w", op, filepath.Base(output), err)
	}
	return nil
}
