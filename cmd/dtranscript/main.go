package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/alnah/go-dtranscript/internal/cli"
	"github.com/alnah/go-dtranscript/internal/config"
	"github.com/alnah/go-dtranscript/internal/diarize"
	"github.com/alnah/go-dtranscript/internal/lang"
	"github.com/alnah/go-dtranscript/internal/recognize"
	"github.com/alnah/go-dtranscript/internal/textenc"
	"github.com/alnah/go-dtranscript/internal/tool"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitGeneral     = 1
	ExitUsage       = 2
	ExitSetup       = 3
	ExitValidation  = 4
	ExitToolFailure = 5
	ExitInterrupt   = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := cli.RootCmd(cli.DefaultEnv())
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if errors.Is(err, cli.ErrUsage) || errors.Is(err, cli.ErrFileNotFound) {
		return ExitGeneral
	}

	// Usage errors (ExitUsage = 2): Cobra flag parsing errors.
	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3): something must be installed or configured.
	if errors.Is(err, tool.ErrNotFound) || errors.Is(err, diarize.ErrTokenMissing) ||
		errors.Is(err, recognize.ErrAPIKeyMissing) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, textenc.ErrUndecodable) || errors.Is(err, config.ErrInvalid) ||
		errors.Is(err, lang.ErrInvalid) {
		return ExitValidation
	}

	// External tool and recognition failures (ExitToolFailure = 5).
	if errors.Is(err, tool.ErrFailed) || errors.Is(err, diarize.ErrHelper) ||
		errors.Is(err, recognize.ErrMissingOutput) || errors.Is(err, recognize.ErrRateLimit) ||
		errors.Is(err, recognize.ErrQuotaExceeded) || errors.Is(err, recognize.ErrTimeout) ||
		errors.Is(err, recognize.ErrAuthFailed) || errors.Is(err, recognize.ErrBadRequest) {
		return ExitToolFailure
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"unknown flag",           // Flag doesn't exist
	"unknown shorthand",      // Short flag doesn't exist
	"flag needs an argument", // Flag provided without value
	"invalid argument",       // Invalid flag value type
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
