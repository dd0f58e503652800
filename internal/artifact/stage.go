package artifact

import (
	"fmt"
)

// Stage is how far processing of one input has durably progressed.
type Stage int

const (
	NotStarted Stage = iota
	Resampled
	Diarized
	Segmented
	Recognized
	Assembled
	CleanedUp
)

// String returns the string representation of the Stage.
func (s Stage) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Resampled:
		return "Resampled"
	case Diarized:
		return "Diarized"
	case Segmented:
		return "Segmented"
	case Recognized:
		return "Recognized"
	case Assembled:
		return "Assembled"
	case CleanedUp:
		return "CleanedUp"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// Done reports whether the input needs no further work.
func (s Stage) Done() bool { return s >= CleanedUp }

// Probe derives the stage of d from the artifacts on disk.
//
//	complete.json + leftover audio  -> Assembled
//	complete.json                   -> CleanedUp
//	every turn has recognition      -> Recognized
//	every turn has audio or output  -> Segmented
//	diarization.json                -> Diarized
//	converted audio                 -> Resampled
func Probe(d Dir) (Stage, error) {
	if Exists(d.Complete()) {
		leftover, err := d.HasWorkingAudio()
		if err != nil {
			return NotStarted, err
		}
		if leftover {
			return Assembled, nil
		}
		return CleanedUp, nil
	}

	if Exists(d.Diarization()) {
		turns, err := d.ReadTurns()
		if err != nil {
			return NotStarted, err
		}
		recognized, segmented := true, true
		for i := range turns {
			hasOutput := Exists(d.Recognition(i))
			if !hasOutput {
				recognized = false
				if !Exists(d.Segment(i)) {
					segmented = false
				}
			}
		}
		switch {
		case recognized:
			return Recognized, nil
		case segmented:
			return Segmented, nil
		default:
			return Diarized, nil
		}
	}

	if Exists(d.Converted()) {
		return Resampled, nil
	}
	return NotStarted, nil
}

// StageProbe derives the stage of a working directory.
type StageProbe interface {
	Probe(d Dir) (Stage, error)
}

var _ StageProbe = FSProbe{}

// FSProbe probes stages from the real filesystem.
type FSProbe struct{}

// Probe implements the stage probe used by the pipeline controller.
func (FSProbe) Probe(d Dir) (Stage, error) { return Probe(d) }
