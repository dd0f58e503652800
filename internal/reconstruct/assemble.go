package reconstruct

import (
	"errors"
	"fmt"

	"github.com/alnah/go-dtranscript/internal/transcript"
)

// ErrMismatch indicates the number of recognitions does not match the
// number of diarization turns.
var ErrMismatch = errors.New("recognitions do not match turns")

// Assemble builds the transcript from one recognition per turn, in turn
// order. Provenance fields are copied from the first recognition only.
func (r *Reconstructor) Assemble(recognitions []transcript.Recognition, turns []transcript.Turn) (transcript.Transcript, error) {
	if len(recognitions) != len(turns) {
		return transcript.Transcript{}, fmt.Errorf("%w: %d recognitions for %d turns",
			ErrMismatch, len(recognitions), len(turns))
	}

	t := transcript.Transcript{Transcription: make([]transcript.Part, 0, len(turns))}
	if len(recognitions) > 0 {
		first := recognitions[0]
		t.SystemInfo = first.SystemInfo
		t.Model = first.Model
		t.Params = first.Params
		t.Result = first.Result
	}

	for i, turn := range turns {
		sentences, text := r.Reconstruct(i, turn, recognitions[i].Transcription)
		t.Transcription = append(t.Transcription, transcript.Part{
			Start:     turn.Start,
			End:       turn.End,
			Speaker:   turn.Speaker,
			Text:      text,
			Sentences: sentences,
		})
	}
	return t, nil
}
