package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-dtranscript/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader *mockConfigLoader
	resolver     *mockToolResolver
	components   *mockComponents
	stdout       *syncBuffer
	root         string
	cfg          config.Config
}

// newTestEnv returns an Env whose config points the output directory and
// the startup log into a fresh temp directory.
func newTestEnv(t *testing.T) (*Env, *testMocks) {
	t.Helper()

	root := t.TempDir()
	m := &testMocks{
		resolver:   &mockToolResolver{},
		components: &mockComponents{},
		stdout:     &syncBuffer{},
		root:       root,
	}
	m.cfg = config.Default()
	m.cfg.OutputDir = filepath.Join(root, "output")
	m.configLoader = &mockConfigLoader{
		LoadFunc: func(func(string) string) (config.Config, error) { return m.cfg, nil },
	}

	env := &Env{
		Stdout:       m.stdout,
		Getenv:       func(string) string { return "" },
		Now:          func() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) },
		NewRunID:     func() string { return "test-run" },
		LogFile:      filepath.Join(root, "transcribe.log"),
		ConfigLoader: m.configLoader,
		ToolResolver: m.resolver,
		Components:   m.components,
	}
	return env, m
}
