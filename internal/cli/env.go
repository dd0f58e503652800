package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alnah/go-dtranscript/internal/catalog"
	"github.com/alnah/go-dtranscript/internal/config"
	"github.com/alnah/go-dtranscript/internal/diarize"
	"github.com/alnah/go-dtranscript/internal/ffmpeg"
	"github.com/alnah/go-dtranscript/internal/logging"
	"github.com/alnah/go-dtranscript/internal/pipeline"
	"github.com/alnah/go-dtranscript/internal/recognize"
	"github.com/alnah/go-dtranscript/internal/tool"
)

// Env holds injectable dependencies for the CLI.
// This is the central injection point for testing the command in isolation.
//
// All fields have production defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment. Stdout receives the console log.
	Stdout   io.Writer
	Getenv   func(string) string
	Now      func() time.Time
	NewRunID func() string

	// LogFile is the startup log, used until the working directory is
	// known. Empty disables it.
	LogFile string

	// Factories for domain objects
	ConfigLoader ConfigLoader
	ToolResolver ToolResolver
	Components   ComponentFactory
}

// ConfigLoader loads configuration, reading overrides through getenv.
type ConfigLoader interface {
	Load(getenv func(string) string) (config.Config, error)
}

// ToolResolver locates external binaries.
type ToolResolver interface {
	Resolve(b tool.Binary) (string, error)
}

// Catalog is a pipeline catalog that must be closed after use.
type Catalog interface {
	pipeline.Catalog
	Close() error
}

// ComponentFactory builds the pipeline collaborators.
type ComponentFactory interface {
	NewTranscoder(ffmpegPath string, logger *slog.Logger) pipeline.Transcoder
	NewDiarizationLoader(cfg config.Config, logger *slog.Logger) diarize.Loader
	NewRecognizer(cfg config.Config, whisperPath string, logger *slog.Logger) (pipeline.Recognizer, error)
	OpenCatalog(ctx context.Context, path string) (Catalog, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithLogFile sets the startup log file.
func WithLogFile(path string) EnvOption {
	return func(e *Env) {
		e.LogFile = path
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithToolResolver sets the binary resolver.
func WithToolResolver(r ToolResolver) EnvOption {
	return func(e *Env) {
		e.ToolResolver = r
	}
}

// WithComponents sets the component factory.
func WithComponents(f ComponentFactory) EnvOption {
	return func(e *Env) {
		e.Components = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:       os.Stdout,
		Getenv:       os.Getenv,
		Now:          time.Now,
		NewRunID:     logging.NewRunID,
		LogFile:      logging.DefaultFile,
		ConfigLoader: defaultConfigLoader{},
		ToolResolver: tool.NewResolver(),
		Components:   defaultComponents{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader reads the user config file.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(getenv func(string) string) (config.Config, error) {
	return config.Load(getenv)
}

// defaultComponents wires ffmpeg, pyannote, whisper.cpp or OpenAI, and
// the SQLite catalog.
type defaultComponents struct{}

func (defaultComponents) NewTranscoder(ffmpegPath string, logger *slog.Logger) pipeline.Transcoder {
	return ffmpeg.NewTranscoder(ffmpegPath, tool.NewExecutor(tool.WithLogger(logger)))
}

func (defaultComponents) NewDiarizationLoader(cfg config.Config, logger *slog.Logger) diarize.Loader {
	return diarize.NewPyannoteLoader(cfg.HFToken,
		diarize.WithPython(cfg.Python),
		diarize.WithModel(cfg.DiarizationModel),
		diarize.WithDevice(cfg.DiarizationDevice),
		diarize.WithLogger(logger),
	)
}

func (defaultComponents) NewRecognizer(cfg config.Config, whisperPath string, logger *slog.Logger) (pipeline.Recognizer, error) {
	if cfg.Recognizer == config.RecognizerOpenAI {
		r, err := recognize.NewOpenAI(cfg.OpenAIAPIKey, cfg.Language,
			recognize.WithParallel(clampParallel(cfg.OpenAIParallel)),
			recognize.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	runner := tool.NewExecutor(tool.WithLogger(logger))
	return recognize.NewWhisperCPP(whisperPath, cfg.WhisperModel, cfg.Language, runner), nil
}

func (defaultComponents) OpenCatalog(ctx context.Context, path string) (Catalog, error) {
	c, err := catalog.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// clampParallel constrains parallel request count to [1, MaxRecommendedParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > recognize.MaxRecommendedParallel {
		return recognize.MaxRecommendedParallel
	}
	return n
}

// Compile-time interface verification.
var (
	_ ConfigLoader     = defaultConfigLoader{}
	_ ToolResolver     = (*tool.Resolver)(nil)
	_ ComponentFactory = defaultComponents{}
	_ Catalog          = (*catalog.Catalog)(nil)
)
