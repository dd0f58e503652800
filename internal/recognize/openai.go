package recognize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-dtranscript/internal/artifact"
	"github.com/alnah/go-dtranscript/internal/lang"
	"github.com/alnah/go-dtranscript/internal/transcript"
)

// Parallelism bounds for API requests.
const (
	DefaultParallel        = 4
	MaxRecommendedParallel = 10
)

// audioTranscriber is implemented by *openai.Client.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var _ audioTranscriber = (*openai.Client)(nil)

// OpenAI transcribes through the OpenAI audio API, one request per file,
// and converts each verbose response into a whisper.cpp style sidecar.
type OpenAI struct {
	client   audioTranscriber
	model    string
	language string
	parallel int
	retry    backoff
	logger   *slog.Logger
}

// OpenAIOption configures an OpenAI recognizer.
type OpenAIOption func(*OpenAI)

// WithParallel sets how many requests run at once.
func WithParallel(n int) OpenAIOption {
	return func(o *OpenAI) {
		if n > 0 {
			o.parallel = n
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) OpenAIOption {
	return func(o *OpenAI) {
		if n >= 0 {
			o.retry.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) OpenAIOption {
	return func(o *OpenAI) {
		if base > 0 {
			o.retry.baseDelay = base
		}
		if max > 0 {
			o.retry.maxDelay = max
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) OpenAIOption {
	return func(o *OpenAI) { o.logger = l }
}

// NewOpenAI creates an OpenAI recognizer authenticated with apiKey.
func NewOpenAI(apiKey, language string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	return newOpenAI(openai.NewClient(apiKey), language, opts...), nil
}

func newOpenAI(client audioTranscriber, language string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		client:   client,
		model:    openai.Whisper1,
		language: language,
		parallel: DefaultParallel,
		retry: backoff{
			maxRetries: defaultMaxRetries,
			baseDelay:  defaultBaseDelay,
			maxDelay:   defaultMaxDelay,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Recognize transcribes paths with bounded parallelism. The first failure
// cancels the requests still in flight; sidecars already written stay.
func (o *OpenAI) Recognize(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallel)

	for _, p := range paths {
		g.Go(func() error {
			if err := o.recognizeOne(ctx, p); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(p), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return verifyOutputs(paths)
}

func (o *OpenAI) recognizeOne(ctx context.Context, path string) error {
	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
			openai.TranscriptionTimestampGranularitySegment,
		},
	}
	if !lang.IsAuto(o.language) {
		req.Language = lang.BaseCode(o.language)
	}

	var resp openai.AudioResponse
	err := o.retry.do(ctx, func() error {
		var err error
		resp, err = o.client.CreateTranscription(ctx, req)
		if err != nil {
			o.logger.Warn("Transcription request failed", "file", filepath.Base(path), "error", err)
			return classifyError(err)
		}
		return nil
	}, isRetryableError)
	if err != nil {
		return err
	}

	return artifact.WriteJSON(artifact.SidecarPath(path), toRecognition(resp, o.model, req.Language))
}

// toRecognition converts a verbose response to the whisper.cpp sidecar
// layout. Each segment becomes an utterance; each word becomes a token
// with a leading space, carrying the segment confidence exp(avg_logprob).
// A word belongs to the segment its start falls in.
func toRecognition(resp openai.AudioResponse, model, language string) transcript.Recognition {
	rec := transcript.Recognition{
		SystemInfo:    mustJSON("openai"),
		Model:         mustJSON(map[string]string{"type": model}),
		Params:        mustJSON(map[string]string{"model": model, "language": language}),
		Result:        mustJSON(map[string]string{"language": resp.Language}),
		Transcription: make([]transcript.Utterance, 0, len(resp.Segments)),
	}

	if len(resp.Segments) == 0 {
		if text := strings.TrimSpace(resp.Text); text != "" {
			u := transcript.Utterance{
				Offsets: transcript.Offsets{From: 0, To: millis(resp.Duration)},
				Text:    " " + text,
			}
			for _, w := range resp.Words {
				u.Tokens = append(u.Tokens, wordToken(w.Word, w.Start, w.End, 1))
			}
			rec.Transcription = append(rec.Transcription, u)
		}
		return rec
	}

	next := 0
	for i, seg := range resp.Segments {
		last := i == len(resp.Segments)-1
		p := math.Exp(seg.AvgLogprob)
		u := transcript.Utterance{
			Offsets: transcript.Offsets{From: millis(seg.Start), To: millis(seg.End)},
			Text:    seg.Text,
			Tokens:  []transcript.Token{},
		}
		for next < len(resp.Words) && (last || resp.Words[next].Start < seg.End) {
			w := resp.Words[next]
			u.Tokens = append(u.Tokens, wordToken(w.Word, w.Start, w.End, p))
			next++
		}
		rec.Transcription = append(rec.Transcription, u)
	}
	return rec
}

func wordToken(word string, start, end, p float64) transcript.Token {
	return transcript.Token{
		Text:    " " + strings.TrimSpace(word),
		Offsets: transcript.Offsets{From: millis(start), To: millis(end)},
		P:       p,
	}
}

// millis converts seconds to the nearest millisecond.
func millis(sec float64) int64 {
	return decimal.NewFromFloat(sec).Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal %T: %v", v, err))
	}
	return data
}

// classifyError maps OpenAI API errors to sentinel errors.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Quota exhaustion needs user action; plain rate limits pass.
			if strings.Contains(apiErr.Message, "quota") || strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrAuthFailed)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout,
			http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, ErrBadRequest)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", ErrTimeout)
	}
	return err
}

// isRetryableError reports whether err is transient.
func isRetryableError(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrTimeout)
}
