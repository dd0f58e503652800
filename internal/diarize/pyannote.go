// Package diarize runs speaker diarization through a long-lived Python
// helper hosting a pyannote pipeline.
package diarize

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/alnah/go-dtranscript/internal/transcript"
)

// DefaultModel is the pyannote pipeline used when none is configured.
const DefaultModel = "pyannote/speaker-diarization-3.1"

// DefaultDevice is the torch device used when none is configured.
const DefaultDevice = "cpu"

//go:embed assets/pyannote_helper.py
var helperScript []byte

// Model diarizes audio files.
type Model interface {
	Diarize(ctx context.Context, audioPath string) ([]transcript.Turn, error)
}

// Loader initializes a Model. Loading is expensive (model download, weights
// in memory), so callers load once and reuse the handle.
type Loader interface {
	Load(ctx context.Context) (Model, error)
}

// Compile-time interface verification.
var (
	_ Loader = (*PyannoteLoader)(nil)
	_ Model  = (*helperModel)(nil)
)

// process is a started helper: requests go to stdin, replies come from stdout.
type process struct {
	stdin  io.WriteCloser
	stdout io.Reader
}

// startFn starts the helper.
type startFn func(python, script string, args, env []string) (*process, error)

// PyannoteLoader starts the helper with a Python interpreter.
type PyannoteLoader struct {
	python string
	model  string
	device string
	token  string
	logger *slog.Logger
	start  startFn
}

// LoaderOption configures a PyannoteLoader.
type LoaderOption func(*PyannoteLoader)

// WithPython sets the Python interpreter (default "python3").
func WithPython(path string) LoaderOption {
	return func(l *PyannoteLoader) {
		if path != "" {
			l.python = path
		}
	}
}

// WithModel sets the pyannote pipeline name.
func WithModel(name string) LoaderOption {
	return func(l *PyannoteLoader) {
		if name != "" {
			l.model = name
		}
	}
}

// WithDevice sets the torch device ("cpu", "cuda", "mps").
func WithDevice(device string) LoaderOption {
	return func(l *PyannoteLoader) {
		if device != "" {
			l.device = device
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *PyannoteLoader) { l.logger = logger }
}

// NewPyannoteLoader creates a loader authenticating with the given
// Hugging Face token.
func NewPyannoteLoader(token string, opts ...LoaderOption) *PyannoteLoader {
	l := &PyannoteLoader{
		python: "python3",
		model:  DefaultModel,
		device: DefaultDevice,
		token:  token,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		start:  defaultStart,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load starts the helper and waits until the pipeline is initialized.
// The helper keeps running until the parent process exits.
func (l *PyannoteLoader) Load(ctx context.Context) (Model, error) {
	if l.token == "" {
		return nil, ErrTokenMissing
	}

	script, err := writeScript()
	if err != nil {
		return nil, err
	}

	l.logger.Info("Initializing diarization pipeline", "model", l.model, "device", l.device)
	env := append(os.Environ(), "HF_TOKEN="+l.token)
	p, err := l.start(l.python, script, []string{"--model", l.model, "--device", l.device}, env)
	if err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrHelper, l.python, err)
	}

	m := &helperModel{
		stdin:  p.stdin,
		stdout: bufio.NewReader(p.stdout),
		logger: l.logger,
	}

	var ready reply
	err = m.await(ctx, &ready)
	switch {
	case err != nil:
	case ready.Error != "":
		err = fmt.Errorf("%w: %s", ErrHelper, ready.Error)
	case !ready.Ready:
		err = fmt.Errorf("%w: unexpected greeting", ErrHelper)
	}
	if err != nil {
		// Closing stdin lets the helper exit, which ends the pending read.
		_ = p.stdin.Close()
		return nil, err
	}
	return m, nil
}

type request struct {
	Audio string `json:"audio"`
}

type reply struct {
	Ready bool              `json:"ready,omitempty"`
	Turns []transcript.Turn `json:"turns,omitempty"`
	Error string            `json:"error,omitempty"`
}

// helperModel talks to a running helper. Requests are serialized.
type helperModel struct {
	mu     sync.Mutex
	stdin  io.Writer
	stdout *bufio.Reader
	logger *slog.Logger
	broken error
}

// Diarize sends one request and blocks until the helper answers.
func (m *helperModel) Diarize(ctx context.Context, audioPath string) ([]transcript.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.broken != nil {
		return nil, m.broken
	}

	line, err := json.Marshal(request{Audio: audioPath})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := m.stdin.Write(append(line, '\n')); err != nil {
		m.broken = fmt.Errorf("%w: write request: %v", ErrHelper, err)
		return nil, m.broken
	}

	m.logger.Info("Started diarization", "audio", filepath.Base(audioPath))
	var r reply
	if err := m.await(ctx, &r); err != nil {
		return nil, err
	}
	if r.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrHelper, r.Error)
	}
	m.logger.Info("Finished diarization", "turns", len(r.Turns))

	if r.Turns == nil {
		r.Turns = []transcript.Turn{}
	}
	return r.Turns, nil
}

// await reads one reply line. A canceled context abandons the read and
// leaves the model unusable, since the reply would arrive out of order.
func (m *helperModel) await(ctx context.Context, r *reply) error {
	type result struct {
		line []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := m.stdout.ReadBytes('\n')
		done <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		m.broken = fmt.Errorf("%w: abandoned after cancellation", ErrHelper)
		return ctx.Err()
	case res := <-done:
		if res.err != nil {
			m.broken = fmt.Errorf("%w: helper exited: %v", ErrHelper, res.err)
			return m.broken
		}
		if err := json.Unmarshal(res.line, r); err != nil {
			return fmt.Errorf("%w: invalid reply %q: %v", ErrHelper, res.line, err)
		}
		return nil
	}
}

var (
	scriptOnce sync.Once
	scriptPath string
	scriptErr  error
)

// writeScript materializes the embedded helper once per process.
func writeScript() (string, error) {
	scriptOnce.Do(func() {
		f, err := os.CreateTemp("", "pyannote-helper-*.py")
		if err != nil {
			scriptErr = fmt.Errorf("cannot create helper script: %w", err)
			return
		}
		defer func() { _ = f.Close() }()
		if _, err := f.Write(helperScript); err != nil {
			scriptErr = fmt.Errorf("cannot write helper script: %w", err)
			return
		}
		scriptPath = f.Name()
	})
	return scriptPath, scriptErr
}

// defaultStart runs the helper with stderr passed through so pyannote
// progress stays visible.
func defaultStart(python, script string, args, env []string) (*process, error) {
	// #nosec G204 -- interpreter comes from configuration
	cmd := exec.Command(python, append([]string{"-u", script}, args...)...)
	cmd.Env = env
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	go func() { _ = cmd.Wait() }()

	return &process{stdin: stdin, stdout: stdout}, nil
}
