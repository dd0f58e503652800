package format

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Duration formats a duration as HH:MM:SS or MM:SS.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Seconds formats a timestamp given in seconds as MM:SS.mmm, or HH:MM:SS.mmm
// past one hour. Used for log lines about diarization turns.
func Seconds(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	ms := int64(math.Round(sec * 1000))
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	frac := ms % 1000
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, frac)
	}
	return fmt.Sprintf("%02d:%02d.%03d", m, s, frac)
}

// Arg formats seconds for ffmpeg -ss/-to/pad_dur arguments using the
// shortest representation that round-trips, e.g. 12.5 -> "12.5", 2 -> "2".
func Arg(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}
