package diarize

import "errors"

// ErrTokenMissing indicates HF_TOKEN is not set. The pyannote models are
// gated and cannot be downloaded without it.
var ErrTokenMissing = errors.New("HF_TOKEN environment variable not set")

// ErrHelper indicates the diarization helper failed to start, reported an
// error, or exited unexpectedly.
var ErrHelper = errors.New("diarization helper failed")
