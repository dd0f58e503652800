package reconstruct

import (
	"strings"

	"github.com/alnah/go-dtranscript/internal/transcript"
)

// Polish thresholds.
const (
	MinPolishedDuration = 0.1  // seconds
	MaxWordsPerSecond   = 20.0 // words per second
)

// Polish removes parts and sentences that are too short or too fast to be
// real speech, then rebuilds each part's text from its remaining sentences.
// Parts left without sentences are removed.
func (r *Reconstructor) Polish(t *transcript.Transcript) {
	parts := t.Transcription[:0]
	for _, p := range t.Transcription {
		length := p.Turn().Duration()
		if length < MinPolishedDuration {
			r.logger.Info("Dropping very short part", "length", length, "text", p.Text)
			continue
		}
		if wps := float64(p.WordCount()) / length; wps > MaxWordsPerSecond {
			r.logger.Info("Dropping very fast part", "words_per_second", wps, "text", p.Text)
			continue
		}

		sentences := p.Sentences[:0]
		texts := make([]string, 0, len(p.Sentences))
		for _, s := range p.Sentences {
			if s.End-s.Start < MinPolishedDuration {
				r.logger.Info("Dropping very short sentence", "length", s.End-s.Start, "text", s.Text)
				continue
			}
			if s.WordsPerSecond > MaxWordsPerSecond {
				r.logger.Info("Dropping very fast sentence", "words_per_second", s.WordsPerSecond, "text", s.Text)
				continue
			}
			sentences = append(sentences, s)
			texts = append(texts, s.Text)
		}
		if len(sentences) == 0 {
			continue
		}

		p.Sentences = sentences
		p.Text = strings.Join(texts, " ")
		parts = append(parts, p)
	}
	t.Transcription = parts
}
