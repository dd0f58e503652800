package recognize

import (
	"context"
	"fmt"

	"github.com/alnah/go-dtranscript/internal/lang"
)

// DefaultWhisperModel is the ggml model used when none is configured.
const DefaultWhisperModel = "./whisper.cpp/models/ggml-large-v3.bin"

// runner executes an external program. Implemented by tool.Executor.
type runner interface {
	Run(ctx context.Context, path string, args []string) error
}

// WhisperCPP runs the whisper.cpp CLI once for the whole batch, which
// loads the model a single time.
type WhisperCPP struct {
	bin      string
	model    string
	language string
	run      runner
}

// NewWhisperCPP creates a whisper.cpp recognizer. An empty model selects
// DefaultWhisperModel.
func NewWhisperCPP(bin, model, language string, r runner) *WhisperCPP {
	if model == "" {
		model = DefaultWhisperModel
	}
	return &WhisperCPP{bin: bin, model: model, language: language, run: r}
}

// Args builds the whisper.cpp command line for paths.
func (w *WhisperCPP) Args(paths []string) []string {
	args := []string{
		"--model", w.model,
		"--output-json-full",
		"--language", lang.BaseCode(w.language),
	}
	return append(args, paths...)
}

// Recognize transcribes paths in one process.
func (w *WhisperCPP) Recognize(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := w.run.Run(ctx, w.bin, w.Args(paths)); err != nil {
		return fmt.Errorf("whisper.cpp: %w", err)
	}
	return verifyOutputs(paths)
}
