// Package pipeline drives one recording from raw audio to complete.json.
//
// Progress is durable: every stage leaves an artifact in the working
// directory, the stage is derived from those artifacts at start, and each
// transition checks its own artifact again before acting. Re-running a
// finished input does no external work.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alnah/go-dtranscript/internal/artifact"
	"github.com/alnah/go-dtranscript/internal/diarize"
	"github.com/alnah/go-dtranscript/internal/fingerprint"
	"github.com/alnah/go-dtranscript/internal/format"
	"github.com/alnah/go-dtranscript/internal/logging"
	"github.com/alnah/go-dtranscript/internal/reconstruct"
	"github.com/alnah/go-dtranscript/internal/segment"
	"github.com/alnah/go-dtranscript/internal/textenc"
	"github.com/alnah/go-dtranscript/internal/transcript"
)

// ErrMissingDependency indicates a required collaborator was not provided.
var ErrMissingDependency = errors.New("missing pipeline dependency")

// Result summarizes one Run.
type Result struct {
	// Stage is the last stage reached.
	Stage artifact.Stage
	// Segments is the number of diarization turns.
	Segments int
	// Skipped is true when the input was already complete.
	Skipped bool
}

// Controller runs the pipeline. A Controller may process many inputs one
// after another and shares one diarization model between them. Concurrent
// runs on the same working directory are not supported.
type Controller struct {
	deps   Deps
	logger *slog.Logger

	mu    sync.Mutex
	model diarize.Model
}

// New creates a Controller.
func New(deps Deps) (*Controller, error) {
	switch {
	case deps.Transcoder == nil:
		return nil, fmt.Errorf("%w: transcoder", ErrMissingDependency)
	case deps.Diarization == nil:
		return nil, fmt.Errorf("%w: diarization loader", ErrMissingDependency)
	case deps.Recognizer == nil:
		return nil, fmt.Errorf("%w: recognizer", ErrMissingDependency)
	}
	if deps.Probe == nil {
		deps.Probe = artifact.FSProbe{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Controller{deps: deps, logger: logger}, nil
}

// Run processes input inside dir and returns once the working audio has
// been cleaned up or a stage failed. Artifacts written before a failure
// are kept so the next Run resumes from them.
func (c *Controller) Run(ctx context.Context, input string, dir artifact.Dir) (Result, error) {
	if artifact.Exists(dir.Complete()) {
		c.logger.Info("complete.json exists")
		removed, err := dir.Cleanup()
		if err != nil {
			return Result{Stage: artifact.Assembled}, err
		}
		if removed > 0 {
			c.logger.Info("Removed leftover wav files", "count", removed)
		}
		return Result{Stage: artifact.CleanedUp, Skipped: true}, nil
	}

	if c.deps.LogSwitcher != nil {
		c.logger.Info("Switching to file log")
		if err := c.deps.LogSwitcher.Open(dir.Log()); err != nil {
			return Result{}, err
		}
	}

	started := c.deps.Now()
	r := &run{c: c, input: input, dir: dir}
	if err := r.identify(ctx); err != nil {
		return Result{}, err
	}

	stage, err := c.deps.Probe.Probe(dir)
	if err != nil {
		return Result{}, fmt.Errorf("probe %s: %w", dir.Path(), err)
	}
	c.logger.Info("Resuming", "stage", stage.String(), "dir", dir.Path())

	for !stage.Done() {
		if err := r.advance(ctx, stage); err != nil {
			return Result{Stage: stage, Segments: len(r.turns)}, err
		}
		stage++
	}

	c.logger.Info("Done", "elapsed", format.Duration(c.deps.Now().Sub(started)))
	return Result{Stage: stage, Segments: len(r.turns)}, nil
}

// loadModel returns the diarization model, loading it on first use.
// A failed load is not cached.
func (c *Controller) loadModel(ctx context.Context) (diarize.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model != nil {
		return c.model, nil
	}
	m, err := c.deps.Diarization.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load diarization model: %w", err)
	}
	c.model = m
	return m, nil
}

// run is the state of one Run call.
type run struct {
	c     *Controller
	input string
	dir   artifact.Dir
	hash  string

	turns       []transcript.Turn
	turnsLoaded bool
}

func (r *run) advance(ctx context.Context, from artifact.Stage) error {
	switch from {
	case artifact.NotStarted:
		return r.resample(ctx)
	case artifact.Resampled:
		return r.diarize(ctx)
	case artifact.Diarized:
		return r.segment(ctx)
	case artifact.Segmented:
		return r.recognize(ctx)
	case artifact.Recognized:
		return r.assemble(ctx)
	case artifact.Assembled:
		return r.cleanup()
	default:
		return fmt.Errorf("unexpected stage %s", from)
	}
}

// identify fingerprints the input and registers it in the catalog.
func (r *run) identify(ctx context.Context) error {
	fp := r.c.deps.Fingerprinter
	if fp == nil {
		return nil
	}
	hash, status, err := fp.Check(r.dir, r.input)
	if err != nil {
		return err
	}
	r.hash = hash
	if status == fingerprint.Mismatch {
		r.c.logger.Warn("Working directory was built from a different recording",
			"input", r.input, "dir", r.dir.Path())
	}

	if cat := r.c.deps.Catalog; cat != nil {
		if err := cat.Upsert(ctx, artifact.Name(r.input), hash, r.dir.Path()); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) resample(ctx context.Context) error {
	if artifact.Exists(r.dir.Converted()) {
		r.c.logger.Info("File " + r.input + " already has been converted")
		return nil
	}
	return r.c.deps.Transcoder.Resample(ctx, r.input, r.dir.Converted())
}

// preview encodes the listening copy from the converted audio unless it exists.
func (r *run) preview(ctx context.Context) error {
	if artifact.Exists(r.dir.Preview()) {
		r.c.logger.Info("File " + filepath.Base(r.dir.Converted()) + " already has been converted")
		return nil
	}
	return r.c.deps.Transcoder.Preview(ctx, r.dir.Converted(), r.dir.Preview())
}

func (r *run) diarize(ctx context.Context) error {
	if err := r.preview(ctx); err != nil {
		return err
	}

	if artifact.Exists(r.dir.Diarization()) {
		r.c.logger.Info("diarization already has been run")
		return nil
	}

	model, err := r.c.loadModel(ctx)
	if err != nil {
		return err
	}
	turns, err := model.Diarize(ctx, r.dir.Converted())
	if err != nil {
		return err
	}
	if err := artifact.WriteJSON(r.dir.Diarization(), turns); err != nil {
		return err
	}
	r.turns, r.turnsLoaded = turns, true
	return nil
}

func (r *run) loadTurns() ([]transcript.Turn, error) {
	if r.turnsLoaded {
		return r.turns, nil
	}
	turns, err := r.dir.ReadTurns()
	if err != nil {
		return nil, err
	}
	r.turns, r.turnsLoaded = turns, true
	return turns, nil
}

func (r *run) segment(ctx context.Context) error {
	turns, err := r.loadTurns()
	if err != nil {
		return err
	}

	if r.needsExtraction(turns) && !artifact.Exists(r.dir.Converted()) {
		r.c.logger.Info("Converted audio is missing, resampling again")
		if err := r.c.deps.Transcoder.Resample(ctx, r.input, r.dir.Converted()); err != nil {
			return err
		}
	}
	if !artifact.Exists(r.dir.Preview()) && artifact.Exists(r.dir.Converted()) {
		if err := r.preview(ctx); err != nil {
			return err
		}
	}

	ex := segment.NewExtractor(r.dir, r.c.deps.Transcoder, segment.WithLogger(r.c.logger))
	for i, turn := range turns {
		r.c.logger.Info(fmt.Sprintf("Converting section %d of %d", i+1, len(turns)))
		if _, err := ex.Extract(ctx, r.dir.Converted(), turn, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) needsExtraction(turns []transcript.Turn) bool {
	for i := range turns {
		if !artifact.Exists(r.dir.Segment(i)) && !artifact.Exists(r.dir.Recognition(i)) {
			return true
		}
	}
	return false
}

func (r *run) recognize(ctx context.Context) error {
	turns, err := r.loadTurns()
	if err != nil {
		return err
	}

	var batch []string
	for i := range turns {
		if artifact.Exists(r.dir.Recognition(i)) {
			r.c.logger.Info(filepath.Base(r.dir.Recognition(i)) + " already exists")
			continue
		}
		batch = append(batch, r.dir.Segment(i))
	}

	if len(batch) == 0 {
		r.c.logger.Info("All files already have been transcribed")
		return nil
	}

	r.c.logger.Info("Started transcription", "files", len(batch))
	if err := r.c.deps.Recognizer.Recognize(ctx, batch); err != nil {
		return err
	}
	r.c.logger.Info("Finished transcription")
	return nil
}

func (r *run) assemble(ctx context.Context) error {
	if artifact.Exists(r.dir.Complete()) {
		return nil
	}
	turns, err := r.loadTurns()
	if err != nil {
		return err
	}

	r.c.logger.Info("Creating complete.json")
	recognitions := make([]transcript.Recognition, len(turns))
	for i := range turns {
		rec, err := r.readRecognition(i)
		if err != nil {
			return err
		}
		recognitions[i] = rec
	}

	rc := reconstruct.New(reconstruct.WithLogger(r.c.logger))
	t, err := rc.Assemble(recognitions, turns)
	if err != nil {
		return err
	}
	if r.c.deps.Polish {
		rc.Polish(&t)
	}

	r.c.logger.Info("Transcription complete, writing file")
	if err := artifact.WriteJSON(r.dir.Complete(), t); err != nil {
		return err
	}

	if cat := r.c.deps.Catalog; cat != nil && r.hash != "" {
		if err := cat.MarkTranscribed(ctx, r.hash, len(turns), r.c.deps.Now()); err != nil {
			r.c.logger.Warn("Could not update catalog", "error", err)
		}
	}
	return nil
}

// readRecognition decodes the sidecar of segment i, falling back to
// Latin-1 when it is not valid UTF-8.
func (r *run) readRecognition(i int) (transcript.Recognition, error) {
	path := r.dir.Recognition(i)
	data, err := os.ReadFile(path)
	if err != nil {
		return transcript.Recognition{}, fmt.Errorf("read recognition %d: %w", i, err)
	}

	name := filepath.Base(path)
	var rec transcript.Recognition
	onFallback := func(failed textenc.Decoder, err error) {
		r.c.logger.Info("Unable to load "+name+" in "+failed.Name(), "error", err)
	}
	if err := textenc.DecodeJSON(data, &rec, onFallback); err != nil {
		return transcript.Recognition{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return rec, nil
}

func (r *run) cleanup() error {
	r.c.logger.Info("Cleaning up wav files")
	removed, err := r.dir.Cleanup()
	if err != nil {
		return err
	}
	r.c.logger.Info("Removed working audio", "count", removed)
	return nil
}
