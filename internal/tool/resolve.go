package tool

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrNotFound indicates an external binary could not be located.
var ErrNotFound = errors.New("binary not found")

// installSubdir is where users may drop binaries that take precedence
// over PATH, relative to the home directory.
const installSubdir = ".go-dtranscript/bin"

// Binary describes an external program the pipeline invokes.
type Binary struct {
	// Name is the executable looked up on PATH (e.g. "ffmpeg").
	Name string
	// EnvVar overrides the lookup when set (e.g. "FFMPEG_PATH").
	EnvVar string
	// Fallbacks are extra paths tried after PATH, in order.
	Fallbacks []string
	// Hint is appended to the not-found error.
	Hint string
}

// Well-known binaries.
var (
	FFmpeg = Binary{
		Name:   "ffmpeg",
		EnvVar: "FFMPEG_PATH",
		Hint: `To install FFmpeg:
  macOS:         brew install ffmpeg
  Ubuntu/Debian: sudo apt install ffmpeg
  Windows:       winget install ffmpeg
Or set FFMPEG_PATH to your ffmpeg binary.`,
	}

	WhisperCPP = Binary{
		Name:      "whisper-cli",
		EnvVar:    "WHISPER_CPP_PATH",
		Fallbacks: []string{"./whisper.cpp/build/bin/whisper-cli", "./whisper.cpp/main"},
		Hint: `Build whisper.cpp (https://github.com/ggerganov/whisper.cpp) and either put
whisper-cli on PATH or set WHISPER_CPP_PATH to the binary.`,
	}
)

// envProvider abstracts environment and path lookup operations.
type envProvider interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
	LookPath(file string) (string, error)
	Stat(name string) (os.FileInfo, error)
}

// osEnvProvider implements envProvider using os and exec packages.
type osEnvProvider struct{}

func (osEnvProvider) Getenv(key string) string             { return os.Getenv(key) }
func (osEnvProvider) UserHomeDir() (string, error)         { return os.UserHomeDir() }
func (osEnvProvider) LookPath(file string) (string, error) { return exec.LookPath(file) }
func (osEnvProvider) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

var _ envProvider = osEnvProvider{}

// Resolver finds external binaries.
type Resolver struct {
	env  envProvider
	goos string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithPlatform sets the target OS (for testing Windows naming).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		env:  osEnvProvider{},
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds b using the following precedence:
//  1. b.EnvVar (error if set but the file does not exist)
//  2. ~/.go-dtranscript/bin/<name>
//  3. System PATH
//  4. b.Fallbacks
func (r *Resolver) Resolve(b Binary) (string, error) {
	if b.EnvVar != "" {
		if p := r.env.Getenv(b.EnvVar); p != "" {
			if _, err := r.env.Stat(p); err != nil {
				return "", fmt.Errorf("%w: %s is set to %q but the file does not exist", ErrNotFound, b.EnvVar, p)
			}
			return p, nil
		}
	}

	name := b.Name
	if r.goos == "windows" {
		name += ".exe"
	}

	if home, err := r.env.UserHomeDir(); err == nil {
		p := filepath.Join(home, installSubdir, name)
		if _, err := r.env.Stat(p); err == nil {
			return p, nil
		}
	}

	if p, err := r.env.LookPath(name); err == nil {
		return p, nil
	}

	for _, p := range b.Fallbacks {
		if _, err := r.env.Stat(p); err == nil {
			return p, nil
		}
	}

	msg := fmt.Sprintf("%s not found", b.Name)
	if b.Hint != "" {
		msg += "\n\n" + b.Hint
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, msg)
}
