// Package fingerprint records which recording a working directory was
// built from, so resuming against a different file with the same name is
// noticed.
package fingerprint

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"lukechampine.com/blake3"

	"github.com/alnah/go-dtranscript/internal/artifact"
)

// hashSize is the digest length in bytes.
const hashSize = 32

// Status is the outcome of comparing an input with its working directory.
type Status int

const (
	// Recorded means no fingerprint existed; one was written.
	Recorded Status = iota
	// Match means the stored fingerprint equals the input's.
	Match
	// Mismatch means the working directory was built from other content.
	Mismatch
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case Recorded:
		return "recorded"
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// HashReader returns the hex BLAKE3 digest of everything read from r.
func HashReader(r io.Reader) (string, error) {
	h := blake3.New(hashSize, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("calculating blake3 hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile returns the hex BLAKE3 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is the user's input recording
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return HashReader(f)
}

// Fingerprinter compares inputs with the fingerprint stored in their
// working directory.
type Fingerprinter struct{}

// Check hashes input and compares it with the stored fingerprint of d,
// writing one when none exists. A mismatch is reported, not corrected.
func (Fingerprinter) Check(d artifact.Dir, input string) (string, Status, error) {
	hash, err := HashFile(input)
	if err != nil {
		return "", Recorded, err
	}

	stored, err := os.ReadFile(d.Fingerprint())
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.WriteFile(d.Fingerprint(), []byte(hash+"\n"), 0644); err != nil { // #nosec G306 -- not secret
			return hash, Recorded, fmt.Errorf("write fingerprint: %w", err)
		}
		return hash, Recorded, nil
	case err != nil:
		return hash, Recorded, fmt.Errorf("read fingerprint: %w", err)
	}

	if strings.TrimSpace(string(stored)) == hash {
		return hash, Match, nil
	}
	return hash, Mismatch, nil
}
