// Package logging mirrors log lines to standard output and a log file
// whose location can change once the working directory is known.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// DefaultFile is the log file used before a working directory exists.
const DefaultFile = "transcribe.log"

// filePerm is the permission mode for log files.
const filePerm = 0644

// Sink writes every line to a console writer and, when open, to a file.
// It is safe for concurrent use.
type Sink struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
}

// NewSink creates a Sink writing to console only.
func NewSink(console io.Writer) *Sink {
	return &Sink{console: console}
}

// Open starts appending to path and closes the previous file, if any.
func (s *Sink) Open(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil { // #nosec G301 -- working dir
		return fmt.Errorf("cannot create log directory: %w", err)
	}
	// #nosec G304 -- path is the conventional log location
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("cannot open log file: %w", err)
	}

	s.mu.Lock()
	prev := s.file
	s.file = f
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// Write implements io.Writer. A failing file does not stop console output.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.console.Write(p)
	if s.file != nil {
		if _, ferr := s.file.Write(p); ferr != nil && err == nil {
			err = ferr
		}
	}
	return n, err
}

// Close closes the current file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// New returns a text logger writing to w. Every record carries the run id.
func New(w io.Writer, runID string) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h).With("run", runID)
}

// NewRunID returns a random identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
