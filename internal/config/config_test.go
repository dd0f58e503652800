package config_test

// Notes:
// - LoadFrom takes the file path and a getenv function, so most tests run
//   in parallel without touching the process environment.
// - Tests using t.Setenv are NOT parallel (incompatible with t.Parallel).

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-dtranscript/internal/config"
	"github.com/alnah/go-dtranscript/internal/lang"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return p
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// ---------------------------------------------------------------------------
// LoadFrom
// ---------------------------------------------------------------------------

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "absent.toml"), envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom() unexpected error: %v", err)
	}
	if cfg != config.Default() {
		t.Errorf("LoadFrom() = %+v, want defaults %+v", cfg, config.Default())
	}
}

func TestLoadFrom_FileValues(t *testing.T) {
	t.Parallel()

	p := writeConfig(t, `
output_dir = "/srv/transcripts"
recognizer = "openai"
language = "fr"
openai_parallel = 8
diarization_device = "cuda"
catalog = "/srv/catalog.db"
polish = true
`)
	cfg, err := config.LoadFrom(p, envMap(nil))
	if err != nil {
		t.Fatalf("LoadFrom() unexpected error: %v", err)
	}

	want := config.Default()
	want.OutputDir = "/srv/transcripts"
	want.Recognizer = config.RecognizerOpenAI
	want.Language = "fr"
	want.OpenAIParallel = 8
	want.DiarizationDevice = "cuda"
	want.Catalog = "/srv/catalog.db"
	want.Polish = true
	if cfg != want {
		t.Errorf("LoadFrom() =\n  %+v\nwant\n  %+v", cfg, want)
	}
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	t.Parallel()

	p := writeConfig(t, "output_dir = \"from-file\"\nlanguage = \"fr\"\n")
	cfg, err := config.LoadFrom(p, envMap(map[string]string{
		config.EnvOutputDir:  "from-env",
		config.EnvRecognizer: "openai",
		config.EnvLanguage:   "de",
		config.EnvCatalog:    "cat.db",
		config.EnvHFToken:    "hf_abc",
		config.EnvOpenAIKey:  "sk-xyz",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() unexpected error: %v", err)
	}

	if cfg.OutputDir != "from-env" || cfg.Language != "de" || cfg.Catalog != "cat.db" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.Recognizer != config.RecognizerOpenAI {
		t.Errorf("Recognizer = %q, want openai", cfg.Recognizer)
	}
	if cfg.HFToken != "hf_abc" || cfg.OpenAIAPIKey != "sk-xyz" {
		t.Errorf("secrets = %q, %q", cfg.HFToken, cfg.OpenAIAPIKey)
	}
}

func TestLoadFrom_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown key",
			content: "outputdir = \"x\"\nspeed = 2\n",
			wantErr: config.ErrInvalid,
			wantMsg: "outputdir, speed",
		},
		{
			name:    "unknown recognizer",
			content: "recognizer = \"vosk\"\n",
			wantErr: config.ErrInvalid,
			wantMsg: "vosk",
		},
		{
			name:    "invalid language",
			content: "language = \"klingon\"\n",
			wantErr: lang.ErrInvalid,
		},
		{
			name:    "invalid language from env",
			env:     map[string]string{config.EnvLanguage: "zz"},
			wantErr: config.ErrInvalid,
		},
		{
			name:    "zero parallelism",
			content: "openai_parallel = 0\n",
			wantErr: config.ErrInvalid,
			wantMsg: "openai_parallel",
		},
		{
			name:    "empty output dir",
			content: "output_dir = \"\"\n",
			wantErr: config.ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := writeConfig(t, tt.content)
			_, err := config.LoadFrom(p, envMap(tt.env))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LoadFrom() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadFrom_MalformedFile(t *testing.T) {
	t.Parallel()

	p := writeConfig(t, "output_dir = \n")
	if _, err := config.LoadFrom(p, envMap(nil)); err == nil {
		t.Error("LoadFrom() error = nil, want parse error")
	}
}

// ---------------------------------------------------------------------------
// Load / Path - process environment
// ---------------------------------------------------------------------------

func TestLoad_UsesXDGConfigHome(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	p, err := config.Path()
	if err != nil {
		t.Fatalf("Path() unexpected error: %v", err)
	}
	if want := filepath.Join(xdg, "go-dtranscript", "config.toml"); p != want {
		t.Errorf("Path() = %q, want %q", p, want)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("language = \"es\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	getenv := func(key string) string {
		if key == config.EnvOutputDir {
			return "/srv/transcripts"
		}
		return ""
	}
	got, err := config.Load(getenv)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got.Language != "es" || got.OutputDir != "/srv/transcripts" {
		t.Errorf("Load() = %+v, want file language and env output dir", got)
	}
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/transcripts", filepath.Join(home, "transcripts")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"~user/x", "~user/x"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := config.ExpandPath(tt.input); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
