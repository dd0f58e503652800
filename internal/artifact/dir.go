// Package artifact owns the per-input working directory. Every pipeline
// stage reads and writes through conventionally named files here, and the
// presence of a file is the durable signal that its stage completed.
//
// The directory is not locked: running two pipelines on the same input at
// the same time is a race and is the caller's responsibility to avoid.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-dtranscript/internal/transcript"
)

// File extensions of the working audio and the low-bitrate preview.
const (
	AudioExt   = ".wav"
	PreviewExt = ".mp3"
)

// Conventional artifact names inside a working directory.
const (
	convertedName   = "converted" + AudioExt
	previewName     = "tiny" + PreviewExt
	diarizationName = "diarization.json"
	extendedName    = "extended" + AudioExt
	completeName    = "complete.json"
	logName         = "transcribe.log"
	fingerprintName = "source.b3"
	sidecarExt      = ".json"
)

// dirPerm is the permission mode for working directories.
const dirPerm = 0750

// Dir is the working directory for one input recording.
type Dir struct {
	path string
}

// Name returns the working directory name for an input: its base name
// without extension. Example: "talks/ep12.mp3" -> "ep12".
func Name(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Open creates (if needed) and returns the working directory for inputPath
// under outputRoot.
func Open(outputRoot, inputPath string) (Dir, error) {
	p := filepath.Join(outputRoot, Name(inputPath))
	if err := os.MkdirAll(p, dirPerm); err != nil { // #nosec G301 -- working dir
		return Dir{}, fmt.Errorf("cannot create working directory: %w", err)
	}
	return Dir{path: p}, nil
}

// At returns a Dir for an existing path without touching the filesystem.
func At(path string) Dir {
	return Dir{path: path}
}

// Path returns the directory path.
func (d Dir) Path() string { return d.path }

// Converted is the resampled mono 16 kHz audio.
func (d Dir) Converted() string { return d.join(convertedName) }

// Preview is the low-bitrate preview; produced but not consumed downstream.
func (d Dir) Preview() string { return d.join(previewName) }

// Diarization is the ordered list of speaker turns.
func (d Dir) Diarization() string { return d.join(diarizationName) }

// Segment is the audio slice for turn i.
func (d Dir) Segment(i int) string { return d.join(strconv.Itoa(i) + AudioExt) }

// Recognition is the recognizer sidecar for turn i. The recognizer names
// it after the full segment file name.
func (d Dir) Recognition(i int) string { return SidecarPath(d.Segment(i)) }

// Extended is the temporary padded audio used for short segments.
func (d Dir) Extended() string { return d.join(extendedName) }

// Complete is the final transcript; its existence means the input is done.
func (d Dir) Complete() string { return d.join(completeName) }

// Log is the per-input log file.
func (d Dir) Log() string { return d.join(logName) }

// Fingerprint holds the hash of the input the artifacts were built from.
func (d Dir) Fingerprint() string { return d.join(fingerprintName) }

func (d Dir) join(name string) string { return filepath.Join(d.path, name) }

// SidecarPath returns where the recognizer writes its output for audioPath.
func SidecarPath(audioPath string) string { return audioPath + sidecarExt }

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadTurns loads the diarization artifact.
func (d Dir) ReadTurns() ([]transcript.Turn, error) {
	data, err := os.ReadFile(d.Diarization())
	if err != nil {
		return nil, fmt.Errorf("read diarization: %w", err)
	}
	var turns []transcript.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("parse diarization %s: %w", d.Diarization(), err)
	}
	return turns, nil
}

// WriteJSON writes v as indented JSON followed by a newline. The write is
// atomic: a crash leaves either the previous file or none, never a partial
// one, so a present artifact can always be trusted.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil { // #nosec G302 -- artifacts are meant to be shared
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("install %s: %w", filepath.Base(path), err)
	}

	success = true
	return nil
}

// WorkingAudio lists regular files in the directory with the working audio
// extension.
func (d Dir) WorkingAudio() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list working directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), AudioExt) {
			continue
		}
		files = append(files, d.join(e.Name()))
	}
	return files, nil
}

// HasWorkingAudio reports whether any working audio is left in the directory.
func (d Dir) HasWorkingAudio() (bool, error) {
	files, err := d.WorkingAudio()
	return len(files) > 0, err
}

// Cleanup deletes the working audio files and returns how many were
// removed. Running it again is a no-op.
func (d Dir) Cleanup() (int, error) {
	files, err := d.WorkingAudio()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", filepath.Base(f), err)
		}
		removed++
	}
	return removed, nil
}
