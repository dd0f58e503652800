package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alnah/go-dtranscript/internal/artifact"
	"github.com/alnah/go-dtranscript/internal/config"
	"github.com/alnah/go-dtranscript/internal/fingerprint"
	"github.com/alnah/go-dtranscript/internal/lang"
	"github.com/alnah/go-dtranscript/internal/logging"
	"github.com/alnah/go-dtranscript/internal/pipeline"
	"github.com/alnah/go-dtranscript/internal/tool"
)

// overrides are config values set explicitly on the command line.
// A nil field leaves the loaded value untouched.
type overrides struct {
	OutputDir  *string
	Recognizer *string
	Language   *string
	Catalog    *string
	Polish     *bool
}

func (o overrides) apply(cfg *config.Config) {
	if o.OutputDir != nil {
		cfg.OutputDir = config.ExpandPath(*o.OutputDir)
	}
	if o.Recognizer != nil {
		cfg.Recognizer = *o.Recognizer
	}
	if o.Language != nil {
		cfg.Language = *o.Language
	}
	if o.Catalog != nil {
		cfg.Catalog = config.ExpandPath(*o.Catalog)
	}
	if o.Polish != nil {
		cfg.Polish = *o.Polish
	}
}

// RootCmd creates the dtranscript command.
// The env parameter provides injectable dependencies for testing.
func RootCmd(env *Env) *cobra.Command {
	var (
		outputDir  string
		recognizer string
		language   string
		catalogDB  string
		polish     bool
	)

	cmd := &cobra.Command{
		Use:   "dtranscript <audio-file>",
		Short: "Transcribe a recording with speaker labels and word timestamps",
		Long: `Transcribe a recording into complete.json: speaker turns from pyannote,
words and sentences from whisper.cpp (or OpenAI), with absolute timestamps.

Every stage leaves an artifact in <output-dir>/<name>/. Running the command
again resumes from the last completed stage; a finished recording is skipped.`,
		Example: `  dtranscript interview.mp3
  dtranscript talk.m4a -o ~/transcripts -l fr
  dtranscript meeting.wav --recognizer openai --polish`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return nil
			}
			sink, logger, err := openLog(env)
			if err != nil {
				return err
			}
			defer func() { _ = sink.Close() }()
			logger.Error("Command needs one argument", "usage", cmd.UseLine(), "got", len(args))
			return fmt.Errorf("%w (got %d arguments)", ErrUsage, len(args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var o overrides
			flags := cmd.Flags()
			if flags.Changed("output-dir") {
				o.OutputDir = &outputDir
			}
			if flags.Changed("recognizer") {
				o.Recognizer = &recognizer
			}
			if flags.Changed("language") {
				o.Language = &language
			}
			if flags.Changed("catalog") {
				o.Catalog = &catalogDB
			}
			if flags.Changed("polish") {
				o.Polish = &polish
			}
			return runTranscribe(cmd.Context(), env, args[0], o)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Root of the working directories (default: output)")
	cmd.Flags().StringVarP(&recognizer, "recognizer", "r", "", "Speech recognizer: whisper-cpp, openai")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code, e.g., en, fr, pt-BR, or auto)")
	cmd.Flags().StringVar(&catalogDB, "catalog", "", "SQLite catalog of processed recordings")
	cmd.Flags().BoolVar(&polish, "polish", false, "Drop implausibly short or fast parts from the transcript")

	return cmd
}

// runTranscribe runs the pipeline for one input.
// Validation order: file exists -> config -> binaries -> components.
func runTranscribe(ctx context.Context, env *Env, inputPath string, o overrides) error {
	sink, logger, err := openLog(env)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	// === VALIDATION (fail-fast) ===

	if _, err := os.Stat(inputPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Error("File not found", "path", inputPath)
			return fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}

	cfg, err := env.ConfigLoader.Load(env.Getenv)
	if err != nil {
		return err
	}
	o.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ffmpegPath, err := env.ToolResolver.Resolve(tool.FFmpeg)
	if err != nil {
		return err
	}
	whisperPath := cfg.WhisperBin
	if cfg.Recognizer == config.RecognizerWhisperCPP && whisperPath == "" {
		if whisperPath, err = env.ToolResolver.Resolve(tool.WhisperCPP); err != nil {
			return err
		}
	}

	// === PIPELINE ===

	recognizer, err := env.Components.NewRecognizer(cfg, whisperPath, logger)
	if err != nil {
		return err
	}

	dir, err := artifact.Open(cfg.OutputDir, inputPath)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Transcoder:    env.Components.NewTranscoder(ffmpegPath, logger),
		Diarization:   env.Components.NewDiarizationLoader(cfg, logger),
		Recognizer:    recognizer,
		Fingerprinter: fingerprint.Fingerprinter{},
		LogSwitcher:   sink,
		Logger:        logger,
		Polish:        cfg.Polish,
		Now:           env.Now,
	}
	if cfg.Catalog != "" {
		cat, err := env.Components.OpenCatalog(ctx, cfg.Catalog)
		if err != nil {
			return err
		}
		defer func() { _ = cat.Close() }()
		deps.Catalog = cat
	}

	controller, err := pipeline.New(deps)
	if err != nil {
		return err
	}

	logger.Info("Transcribing", "input", inputPath, "recognizer", cfg.Recognizer, "language", lang.DisplayName(cfg.Language))
	res, err := controller.Run(ctx, inputPath, dir)
	if err != nil {
		logger.Error("Run failed", "stage", res.Stage.String(), "error", err)
		return err
	}

	logTranscribed(logger, res, dir)
	return nil
}

// openLog builds the console sink, starting the startup log file when set.
func openLog(env *Env) (*logging.Sink, *slog.Logger, error) {
	sink := logging.NewSink(env.Stdout)
	if env.LogFile != "" {
		if err := sink.Open(env.LogFile); err != nil {
			return nil, nil, err
		}
	}
	return sink, logging.New(sink, env.NewRunID()), nil
}

func logTranscribed(logger *slog.Logger, res pipeline.Result, dir artifact.Dir) {
	if res.Skipped {
		logger.Info("Already transcribed", "path", dir.Complete())
		return
	}
	logger.Info("Transcript ready", "path", dir.Complete(), "segments", res.Segments)
}
