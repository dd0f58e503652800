// Package transcript defines the data exchanged between pipeline stages:
// diarization turns, the recognizer's sidecar schema, and the final
// word-timestamped transcript written to complete.json.
package transcript

import (
	"encoding/json"
	"fmt"

	"github.com/alnah/go-dtranscript/internal/format"
)

// Turn is one speaker turn reported by the diarization model.
// Times are seconds from the start of the recording.
type Turn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Duration returns the turn length in seconds.
func (t Turn) Duration() float64 {
	return t.End - t.Start
}

// String returns a human-readable representation for logging.
func (t Turn) String() string {
	return fmt.Sprintf("%s %s-%s", t.Speaker, format.Seconds(t.Start), format.Seconds(t.End))
}

// Offsets is a millisecond range relative to the start of a segment.
type Offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Token is the smallest unit emitted by the recognizer.
// A leading space in Text marks the start of a new word.
type Token struct {
	Text    string  `json:"text"`
	Offsets Offsets `json:"offsets"`
	P       float64 `json:"p"`
}

// Utterance is one recognizer-reported sentence within a segment.
type Utterance struct {
	Offsets Offsets `json:"offsets"`
	Text    string  `json:"text"`
	Tokens  []Token `json:"tokens"`
}

// Recognition is the per-segment sidecar written by the recognizer
// (whisper.cpp --output-json-full layout). Provenance fields are kept
// verbatim because their schema belongs to the recognizer.
type Recognition struct {
	SystemInfo    json.RawMessage `json:"systeminfo,omitempty"`
	Model         json.RawMessage `json:"model,omitempty"`
	Params        json.RawMessage `json:"params,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	Transcription []Utterance     `json:"transcription"`
}

// Word is one or more merged tokens with absolute timestamps.
// Probability is the minimum across the merged tokens.
type Word struct {
	Text        string  `json:"text"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

// Sentence is a sanity-checked utterance with absolute timestamps.
type Sentence struct {
	Text           string  `json:"text"`
	Words          []Word  `json:"words"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	WordsPerSecond float64 `json:"words_per_second"`
}

// Part is a diarization turn together with its reconstructed text.
type Part struct {
	Start     float64    `json:"start"`
	End       float64    `json:"end"`
	Speaker   string     `json:"speaker"`
	Text      string     `json:"text"`
	Sentences []Sentence `json:"sentences"`
}

// Turn returns the diarization turn this part was built from.
func (p Part) Turn() Turn {
	return Turn{Start: p.Start, End: p.End, Speaker: p.Speaker}
}

// Transcript is the terminal artifact of the pipeline.
// Provenance fields are copied from the first segment's recognition output.
type Transcript struct {
	SystemInfo    json.RawMessage `json:"systeminfo,omitempty"`
	Model         json.RawMessage `json:"model,omitempty"`
	Params        json.RawMessage `json:"params,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	Transcription []Part          `json:"transcription"`
}

// WordCount returns the number of merged words across all sentences.
func (p Part) WordCount() int {
	n := 0
	for _, s := range p.Sentences {
		n += len(s.Words)
	}
	return n
}
