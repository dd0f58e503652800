// Package config loads user settings from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/alnah/go-dtranscript/internal/diarize"
	"github.com/alnah/go-dtranscript/internal/lang"
	"github.com/alnah/go-dtranscript/internal/recognize"
)

// ErrInvalid indicates a configuration value is not acceptable.
var ErrInvalid = errors.New("invalid configuration")

// Recognizer backends.
const (
	RecognizerWhisperCPP = "whisper-cpp"
	RecognizerOpenAI     = "openai"
)

// Environment variables. File values are overridden by the environment.
const (
	EnvOutputDir  = "DTRANSCRIPT_OUTPUT_DIR"
	EnvRecognizer = "DTRANSCRIPT_RECOGNIZER"
	EnvLanguage   = "DTRANSCRIPT_LANGUAGE"
	EnvCatalog    = "DTRANSCRIPT_CATALOG"
	EnvHFToken    = "HF_TOKEN"
	EnvOpenAIKey  = "OPENAI_API_KEY"
)

// fileName is the config file inside the configuration directory.
const fileName = "config.toml"

// Config holds user configuration.
type Config struct {
	OutputDir         string `toml:"output_dir"`
	Recognizer        string `toml:"recognizer"`
	WhisperBin        string `toml:"whisper_bin"`
	WhisperModel      string `toml:"whisper_model"`
	Language          string `toml:"language"`
	DiarizationModel  string `toml:"diarization_model"`
	DiarizationDevice string `toml:"diarization_device"`
	Python            string `toml:"python"`
	OpenAIParallel    int    `toml:"openai_parallel"`
	Catalog           string `toml:"catalog"`
	Polish            bool   `toml:"polish"`

	// Secrets are read from the environment only.
	HFToken      string `toml:"-"`
	OpenAIAPIKey string `toml:"-"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		OutputDir:         "output",
		Recognizer:        RecognizerWhisperCPP,
		WhisperModel:      recognize.DefaultWhisperModel,
		Language:          "en",
		DiarizationModel:  diarize.DefaultModel,
		DiarizationDevice: diarize.DefaultDevice,
		Python:            "python3",
		OpenAIParallel:    recognize.DefaultParallel,
	}
}

// Dir returns the configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-dtranscript.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-dtranscript"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-dtranscript"), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, fileName), nil
}

// Load reads the user config file, then applies overrides from getenv.
func Load(getenv func(string) string) (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(p, getenv)
}

// LoadFrom reads the config file at p, then applies overrides from getenv.
// A missing file is not an error. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func LoadFrom(p string, getenv func(string) string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(p, &cfg)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config %s: %w", p, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return cfg, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, p, strings.Join(keys, ", "))
		}
	}

	applyEnv(&cfg, getenv)
	cfg.OutputDir = ExpandPath(cfg.OutputDir)
	cfg.Catalog = ExpandPath(cfg.Catalog)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	override := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.OutputDir, EnvOutputDir)
	override(&cfg.Recognizer, EnvRecognizer)
	override(&cfg.Language, EnvLanguage)
	override(&cfg.Catalog, EnvCatalog)
	cfg.HFToken = getenv(EnvHFToken)
	cfg.OpenAIAPIKey = getenv(EnvOpenAIKey)
}

// Validate checks values that have a closed set of legal forms.
func (c Config) Validate() error {
	switch c.Recognizer {
	case RecognizerWhisperCPP, RecognizerOpenAI:
	default:
		return fmt.Errorf("%w: recognizer %q (expected %s or %s)",
			ErrInvalid, c.Recognizer, RecognizerWhisperCPP, RecognizerOpenAI)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir cannot be empty", ErrInvalid)
	}
	if c.OpenAIParallel < 1 {
		return fmt.Errorf("%w: openai_parallel must be at least 1, got %d", ErrInvalid, c.OpenAIParallel)
	}
	if err := lang.Validate(c.Language); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
