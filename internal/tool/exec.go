// Package tool locates and runs the external programs the pipeline is
// built on (ffmpeg, whisper.cpp, the Python diarization helper).
package tool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrFailed indicates an external program exited with a non-zero status or
// could not be started. Failures are fatal for the run and never retried.
var ErrFailed = errors.New("external tool failed")

// stderrTail is how much trailing stderr output is kept for error messages.
const stderrTail = 4096

// runFn runs a command and returns its trailing stderr output.
type runFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs external programs with injectable execution.
type Executor struct {
	run    runFn
	logger *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRun sets a custom run function (for testing).
func WithRun(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// WithLogger sets the logger used for "Executing: ..." lines.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		run:    defaultRun,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes path with args and blocks until it exits. There is no
// timeout; only ctx cancellation stops it.
func (e *Executor) Run(ctx context.Context, path string, args []string) error {
	e.logger.Info("Executing: " + CommandLine(path, args))

	output, err := e.run(ctx, path, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), ctxErr)
		}
		output = strings.TrimSpace(output)
		if output == "" {
			return fmt.Errorf("%w: %s: %v", ErrFailed, filepath.Base(path), err)
		}
		return fmt.Errorf("%w: %s: %v\nOutput: %s", ErrFailed, filepath.Base(path), err, output)
	}
	return nil
}

// CommandLine renders a command for logs.
func CommandLine(path string, args []string) string {
	return strings.Join(append([]string{path}, args...), " ")
}

// defaultRun is the production implementation. Stdout is discarded; the
// tools used here report progress and errors on stderr.
func defaultRun(ctx context.Context, path string, args []string) (string, error) {
	// #nosec G204 -- path and args are built by the pipeline, not taken from user input
	cmd := exec.CommandContext(ctx, path, args...)

	tail := &tailBuffer{max: stderrTail}
	cmd.Stderr = tail

	err := cmd.Run()
	return tail.String(), err
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
