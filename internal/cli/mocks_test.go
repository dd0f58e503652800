package cli

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/alnah/go-dtranscript/internal/config"
	"github.com/alnah/go-dtranscript/internal/diarize"
	"github.com/alnah/go-dtranscript/internal/pipeline"
	"github.com/alnah/go-dtranscript/internal/tool"
	"github.com/alnah/go-dtranscript/internal/transcript"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func(getenv func(string) string) (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load(getenv func(string) string) (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(getenv)
	}
	return config.Default(), nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock ToolResolver
// ---------------------------------------------------------------------------

type mockToolResolver struct {
	// Errors maps binary names to resolution errors.
	Errors map[string]error

	mu       sync.Mutex
	resolved []string
}

func (m *mockToolResolver) Resolve(b tool.Binary) (string, error) {
	m.mu.Lock()
	m.resolved = append(m.resolved, b.Name)
	m.mu.Unlock()

	if err := m.Errors[b.Name]; err != nil {
		return "", err
	}
	return "/usr/bin/" + b.Name, nil
}

func (m *mockToolResolver) Resolved() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolved...)
}

// ---------------------------------------------------------------------------
// Mock ComponentFactory + fake pipeline collaborators
// ---------------------------------------------------------------------------

type mockComponents struct {
	RecognizerErr error
	CatalogErr    error

	mu           sync.Mutex
	ffmpegPath   string
	whisperPath  string
	recognizeCfg config.Config
	catalogPath  string
	catalog      *mockCatalog
	recognizer   *fakeRecognizer
}

func (m *mockComponents) NewTranscoder(ffmpegPath string, logger *slog.Logger) pipeline.Transcoder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ffmpegPath = ffmpegPath
	return fakeTranscoder{}
}

func (m *mockComponents) NewDiarizationLoader(cfg config.Config, logger *slog.Logger) diarize.Loader {
	return fakeLoader{}
}

func (m *mockComponents) NewRecognizer(cfg config.Config, whisperPath string, logger *slog.Logger) (pipeline.Recognizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recognizeCfg = cfg
	m.whisperPath = whisperPath
	if m.RecognizerErr != nil {
		return nil, m.RecognizerErr
	}
	m.recognizer = &fakeRecognizer{}
	return m.recognizer, nil
}

func (m *mockComponents) OpenCatalog(ctx context.Context, path string) (Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogPath = path
	if m.CatalogErr != nil {
		return nil, m.CatalogErr
	}
	m.catalog = &mockCatalog{}
	return m.catalog, nil
}

type mockCatalog struct {
	upserts int
	marked  int
	closed  bool
}

func (c *mockCatalog) Upsert(ctx context.Context, name, blake3Hash, workdir string) error {
	c.upserts++
	return nil
}

func (c *mockCatalog) MarkTranscribed(ctx context.Context, blake3Hash string, segments int, at time.Time) error {
	c.marked++
	return nil
}

func (c *mockCatalog) Close() error {
	c.closed = true
	return nil
}

// fakeTranscoder writes a placeholder file for every operation.
type fakeTranscoder struct{}

func (fakeTranscoder) write(output string) error { return os.WriteFile(output, []byte("audio"), 0644) }

func (f fakeTranscoder) Resample(ctx context.Context, input, output string) error {
	return f.write(output)
}

func (f fakeTranscoder) Preview(ctx context.Context, input, output string) error {
	return f.write(output)
}

func (f fakeTranscoder) Cut(ctx context.Context, input, output string, start, end float64) error {
	return f.write(output)
}

func (f fakeTranscoder) Pad(ctx context.Context, input, output string, padSec float64) error {
	return f.write(output)
}

func (f fakeTranscoder) Trim(ctx context.Context, input, output string, start, end float64) error {
	return f.write(output)
}

type fakeLoader struct{}

func (fakeLoader) Load(ctx context.Context) (diarize.Model, error) { return fakeModel{}, nil }

type fakeModel struct{}

func (fakeModel) Diarize(ctx context.Context, audioPath string) ([]transcript.Turn, error) {
	return []transcript.Turn{
		{Start: 0, End: 2, Speaker: "SPEAKER_00"},
		{Start: 2.5, End: 5, Speaker: "SPEAKER_01"},
	}, nil
}

const fakeSidecar = `{"transcription":[{"offsets":{"from":0,"to":500},"text":" Ok.","tokens":[{"text":" Ok","offsets":{"from":0,"to":400},"p":0.9},{"text":".","offsets":{"from":400,"to":500},"p":0.9}]}]}`

type fakeRecognizer struct {
	calls int
}

func (r *fakeRecognizer) Recognize(ctx context.Context, paths []string) error {
	r.calls++
	for _, p := range paths {
		if err := os.WriteFile(p+".json", []byte(fakeSidecar), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Compile-time interface verification.
var (
	_ ConfigLoader        = (*mockConfigLoader)(nil)
	_ ToolResolver        = (*mockToolResolver)(nil)
	_ ComponentFactory    = (*mockComponents)(nil)
	_ pipeline.Transcoder = fakeTranscoder{}
	_ pipeline.Recognizer = (*fakeRecognizer)(nil)
)
