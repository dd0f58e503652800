package diarize

import "io"

// Exports for testing.

// NewTestLoader creates a PyannoteLoader whose helper is the given pair of
// pipes instead of a Python process. gotArgs receives the helper arguments.
func NewTestLoader(token string, stdin io.WriteCloser, stdout io.Reader, gotArgs *[]string, opts ...LoaderOption) *PyannoteLoader {
	l := NewPyannoteLoader(token, opts...)
	l.start = func(python, script string, args, env []string) (*process, error) {
		if gotArgs != nil {
			*gotArgs = args
		}
		return &process{stdin: stdin, stdout: stdout}, nil
	}
	return l
}

// HelperScript exposes the embedded helper source.
func HelperScript() []byte { return helperScript }
