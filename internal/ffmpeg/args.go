package ffmpeg

import (
	"strconv"

	"github.com/alnah/go-dtranscript/internal/format"
)

// Audio parameters of the working audio. whisper.cpp and pyannote both
// expect 16 kHz mono signed 16-bit PCM.
const (
	SampleRate     = 16000
	Channels       = 1
	Codec          = "pcm_s16le"
	PreviewBitrate = "24k"
)

// baseArgs returns the arguments shared by every invocation: overwrite
// output, read input, stay quiet on stdout.
func baseArgs(input string) []string {
	return []string{"-y", "-i", input, "-loglevel", "panic"}
}

// ResampleArgs builds the arguments converting input to the working audio format.
func ResampleArgs(input, output string) []string {
	return append(baseArgs(input),
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-c:a", Codec,
		output,
	)
}

// PreviewArgs builds the arguments encoding the low-bitrate preview.
func PreviewArgs(input, output string) []string {
	return append(baseArgs(input), "-b:a", PreviewBitrate, output)
}

// CutArgs builds the arguments for a lossless [start, end] cut (seconds).
func CutArgs(input, output string, start, end float64) []string {
	return append(baseArgs(input),
		"-ss", format.Arg(start),
		"-to", format.Arg(end),
		"-c", "copy",
		output,
	)
}

// PadArgs builds the arguments appending padSec seconds of silence.
func PadArgs(input, output string, padSec float64) []string {
	return append(baseArgs(input), "-af", "apad=pad_dur="+format.Arg(padSec), output)
}

// TrimArgs builds the arguments for a re-encoding [start, end] trim.
// Unlike CutArgs the output is re-encoded, which makes the boundary exact.
func TrimArgs(input, output string, start, end float64) []string {
	return append(baseArgs(input),
		"-ss", format.Arg(start),
		"-to", format.Arg(end),
		output,
	)
}
