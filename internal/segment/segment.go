// Package segment cuts the audio of one diarization turn out of the full
// resampled recording.
package segment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/alnah/go-dtranscript/internal/artifact"
	"github.com/alnah/go-dtranscript/internal/transcript"
)

// MinDuration is the shortest segment the recognizer reliably accepts,
// in seconds. Trimming to exactly one second was not reliable.
const MinDuration = 1.1

// PadDuration is the silence appended to short segments before they are
// trimmed back to MinDuration, in seconds.
const PadDuration = 2

// Transcoder is the subset of audio operations the extractor needs.
type Transcoder interface {
	Cut(ctx context.Context, input, output string, start, end float64) error
	Pad(ctx context.Context, input, output string, padSec float64) error
	Trim(ctx context.Context, input, output string, start, end float64) error
}

// Extractor produces per-turn segment audio inside a working directory.
type Extractor struct {
	dir    artifact.Dir
	tc     Transcoder
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an Extractor writing into dir.
func NewExtractor(dir artifact.Dir, tc Transcoder, opts ...Option) *Extractor {
	e := &Extractor{
		dir:    dir,
		tc:     tc,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract writes the audio of turn to the segment file for index and
// returns its path. Nothing is done when the segment audio or its
// recognition output already exists.
//
// Turns shorter than MinDuration are padded with PadDuration seconds of
// silence into the extended file, then trimmed to [0, MinDuration]. The
// extended file is left for cleanup.
func (e *Extractor) Extract(ctx context.Context, fullAudio string, turn transcript.Turn, index int) (string, error) {
	out := e.dir.Segment(index)
	name := filepath.Base(out)

	if artifact.Exists(out) || artifact.Exists(e.dir.Recognition(index)) {
		e.logger.Info(name + " already exists")
		return out, nil
	}

	e.logger.Info("Creating "+name, "turn", turn.String())
	if err := e.tc.Cut(ctx, fullAudio, out, turn.Start, turn.End); err != nil {
		return "", fmt.Errorf("extract segment %d: %w", index, err)
	}

	if turn.Duration() >= MinDuration {
		return out, nil
	}

	extended := e.dir.Extended()
	e.logger.Info("Extending " + name)
	if err := e.tc.Pad(ctx, out, extended, PadDuration); err != nil {
		return "", fmt.Errorf("pad segment %d: %w", index, err)
	}
	e.logger.Info("Trimming " + name)
	if err := e.tc.Trim(ctx, extended, out, 0, MinDuration); err != nil {
		return "", fmt.Errorf("trim segment %d: %w", index, err)
	}
	return out, nil
}
