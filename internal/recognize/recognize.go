// Package recognize turns segment audio into token-level transcriptions.
// Every backend writes one sidecar per input, next to it, named
// "<input>.json", in the whisper.cpp --output-json-full layout.
package recognize

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alnah/go-dtranscript/internal/artifact"
)

// Recognizer transcribes a batch of audio files.
type Recognizer interface {
	// Recognize writes a sidecar for every path. It returns once all
	// sidecars are written or on the first failure.
	Recognize(ctx context.Context, paths []string) error
}

// Compile-time interface verification.
var (
	_ Recognizer = (*WhisperCPP)(nil)
	_ Recognizer = (*OpenAI)(nil)
)

// verifyOutputs checks that a sidecar exists for every input.
func verifyOutputs(paths []string) error {
	for _, p := range paths {
		if !artifact.Exists(artifact.SidecarPath(p)) {
			return fmt.Errorf("%w: %s", ErrMissingOutput, filepath.Base(artifact.SidecarPath(p)))
		}
	}
	return nil
}
