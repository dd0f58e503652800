// Package reconstruct turns per-segment recognizer output back into
// word-level sentences with absolute timestamps, and assembles the final
// transcript from all segments.
package reconstruct

import (
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alnah/go-dtranscript/internal/artifact"
	"github.com/alnah/go-dtranscript/internal/transcript"
)

// MaxOverlength is how far past the end of its segment an utterance may
// claim to end before it is discarded, in milliseconds. Exactly
// MaxOverlength is kept.
const MaxOverlength = 1000.0

// annotationPrefix marks non-speech tokens such as "[_BEG_]" or "[silence]".
const annotationPrefix = "["

// Reconstructor merges tokens into words and filters implausible
// utterances. It holds no state between calls.
type Reconstructor struct {
	logger *slog.Logger
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithLogger sets the logger used for rejected utterances.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconstructor) { r.logger = l }
}

// New creates a Reconstructor with the given options.
func New(opts ...Option) *Reconstructor {
	r := &Reconstructor{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconstruct converts the utterances recognized for segment index into
// sentences. Token offsets are relative to the segment; turn.Start is added
// to make them absolute. It also returns the segment text: the raw text of
// every kept utterance, concatenated and trimmed.
func (r *Reconstructor) Reconstruct(index int, turn transcript.Turn, utterances []transcript.Utterance) ([]transcript.Sentence, string) {
	file := sidecarName(index)
	expected := (turn.End - turn.Start) * 1000

	sentences := make([]transcript.Sentence, 0, len(utterances))
	var text strings.Builder

	for _, u := range utterances {
		if over := float64(u.Offsets.To) - expected; over > MaxOverlength {
			r.logger.Info("Skipping sentence longer than its segment",
				"file", file, "overlength_ms", over)
			continue
		}
		duration := u.Offsets.To - u.Offsets.From
		if duration <= 0 {
			r.logger.Info("Skipping sentence with zero length", "file", file)
			continue
		}

		sentenceText := strings.TrimSpace(u.Text)
		text.WriteString(u.Text)

		sentences = append(sentences, transcript.Sentence{
			Text:           sentenceText,
			Words:          r.mergeTokens(file, turn.Start, u.Tokens),
			Start:          absolute(u.Offsets.From, turn.Start),
			End:            absolute(u.Offsets.To, turn.Start),
			WordsPerSecond: float64(len(strings.Fields(sentenceText))) / float64(duration) * 1000,
		})
	}

	return sentences, strings.TrimSpace(text.String())
}

// mergeTokens builds words from tokens. A leading space starts a new word;
// any other token extends the previous one and lowers its probability to
// the minimum seen. A continuation with no previous word starts one.
func (r *Reconstructor) mergeTokens(file string, offset float64, tokens []transcript.Token) []transcript.Word {
	words := make([]transcript.Word, 0, len(tokens))
	for _, tok := range tokens {
		if strings.HasPrefix(tok.Text, annotationPrefix) {
			continue
		}

		if !strings.HasPrefix(tok.Text, " ") && len(words) > 0 {
			last := &words[len(words)-1]
			last.Text += tok.Text
			last.End = absolute(tok.Offsets.To, offset)
			last.Probability = math.Min(last.Probability, tok.P)
			continue
		}

		if !strings.HasPrefix(tok.Text, " ") {
			r.logger.Info("Sentence starts with a continuation token, treating it as a new word",
				"file", file, "token", tok.Text)
		}
		words = append(words, transcript.Word{
			Text:        strings.TrimSpace(tok.Text),
			Start:       absolute(tok.Offsets.From, offset),
			End:         absolute(tok.Offsets.To, offset),
			Probability: tok.P,
		})
	}
	return words
}

// absolute converts a segment-relative millisecond offset to absolute
// seconds. The sum is computed in decimal so the result is the float
// nearest to the exact value.
func absolute(ms int64, offset float64) float64 {
	return decimal.New(ms, -3).Add(decimal.NewFromFloat(offset)).InexactFloat64()
}

func sidecarName(index int) string {
	return artifact.SidecarPath(strconv.Itoa(index) + artifact.AudioExt)
}
