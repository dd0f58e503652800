package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/alnah/go-dtranscript/internal/artifact"
	"github.com/alnah/go-dtranscript/internal/diarize"
	"github.com/alnah/go-dtranscript/internal/fingerprint"
	"github.com/alnah/go-dtranscript/internal/segment"
)

// ---------------------------------------------------------------------------
// Interfaces - local to this package, following Go idiom
// ---------------------------------------------------------------------------

// Transcoder performs every audio operation the pipeline needs.
type Transcoder interface {
	segment.Transcoder
	Resample(ctx context.Context, input, output string) error
	Preview(ctx context.Context, input, output string) error
}

// Recognizer writes one recognition sidecar per audio path.
type Recognizer interface {
	Recognize(ctx context.Context, paths []string) error
}

// Fingerprinter identifies the recording a working directory belongs to.
type Fingerprinter interface {
	Check(d artifact.Dir, input string) (string, fingerprint.Status, error)
}

// Catalog indexes processed recordings.
type Catalog interface {
	Upsert(ctx context.Context, name, blake3Hash, workdir string) error
	MarkTranscribed(ctx context.Context, blake3Hash string, segments int, at time.Time) error
}

// LogSwitcher redirects the file log once the working directory is known.
type LogSwitcher interface {
	Open(path string) error
}

// Deps are the collaborators of a Controller. Transcoder, Diarization and
// Recognizer are required; the rest are optional.
type Deps struct {
	Transcoder    Transcoder
	Diarization   diarize.Loader
	Recognizer    Recognizer
	Probe         artifact.StageProbe
	Fingerprinter Fingerprinter
	Catalog       Catalog
	LogSwitcher   LogSwitcher
	Logger        *slog.Logger
	// Polish drops implausibly short or fast parts from the transcript.
	Polish bool
	Now    func() time.Time
}
