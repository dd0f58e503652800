package segment_test

// Notes:
// - The fake transcoder records calls and creates the output file so the
//   existence checks behave as with real ffmpeg.

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/alnah/go-dtranscript/internal/artifact"
	"github.com/alnah/go-dtranscript/internal/segment"
	"github.com/alnah/go-dtranscript/internal/transcript"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type op struct {
	name        string
	input       string
	output      string
	start, end  float64
	padDuration float64
}

type fakeTranscoder struct {
	ops    []op
	failOn string
}

func (f *fakeTranscoder) record(o op) error {
	f.ops = append(f.ops, o)
	if o.name == f.failOn {
		return errors.New(o.name + " failed")
	}
	return os.WriteFile(o.output, []byte(o.name), 0644)
}

func (f *fakeTranscoder) Cut(ctx context.Context, input, output string, start, end float64) error {
	return f.record(op{name: "cut", input: input, output: output, start: start, end: end})
}

func (f *fakeTranscoder) Pad(ctx context.Context, input, output string, padSec float64) error {
	return f.record(op{name: "pad", input: input, output: output, padDuration: padSec})
}

func (f *fakeTranscoder) Trim(ctx context.Context, input, output string, start, end float64) error {
	return f.record(op{name: "trim", input: input, output: output, start: start, end: end})
}

// ---------------------------------------------------------------------------
// Extract
// ---------------------------------------------------------------------------

func TestExtract_LongTurnIsCutOnly(t *testing.T) {
	t.Parallel()

	d := artifact.At(t.TempDir())
	tc := &fakeTranscoder{}
	e := segment.NewExtractor(d, tc)

	turn := transcript.Turn{Start: 10, End: 12, Speaker: "SPEAKER_00"}
	got, err := e.Extract(context.Background(), d.Converted(), turn, 4)
	if err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	if got != d.Segment(4) {
		t.Errorf("Extract() = %q, want %q", got, d.Segment(4))
	}

	want := []op{{name: "cut", input: d.Converted(), output: d.Segment(4), start: 10, end: 12}}
	if len(tc.ops) != 1 || tc.ops[0] != want[0] {
		t.Errorf("ops = %+v, want %+v", tc.ops, want)
	}
}

func TestExtract_ShortTurnIsPaddedThenTrimmed(t *testing.T) {
	t.Parallel()

	d := artifact.At(t.TempDir())
	tc := &fakeTranscoder{}
	e := segment.NewExtractor(d, tc)

	turn := transcript.Turn{Start: 3, End: 3.5, Speaker: "SPEAKER_01"}
	if _, err := e.Extract(context.Background(), d.Converted(), turn, 0); err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}

	want := []op{
		{name: "cut", input: d.Converted(), output: d.Segment(0), start: 3, end: 3.5},
		{name: "pad", input: d.Segment(0), output: d.Extended(), padDuration: segment.PadDuration},
		{name: "trim", input: d.Extended(), output: d.Segment(0), start: 0, end: segment.MinDuration},
	}
	if len(tc.ops) != len(want) {
		t.Fatalf("ops = %+v, want %+v", tc.ops, want)
	}
	for i := range want {
		if tc.ops[i] != want[i] {
			t.Errorf("ops[%d] = %+v, want %+v", i, tc.ops[i], want[i])
		}
	}
	if got := tc.ops[2].end - tc.ops[2].start; got != 1.1 {
		t.Errorf("trimmed length = %v, want 1.1", got)
	}
	if !artifact.Exists(d.Extended()) {
		t.Error("extended audio should be left for cleanup")
	}
}

func TestExtract_BoundaryDurationIsNotPadded(t *testing.T) {
	t.Parallel()

	d := artifact.At(t.TempDir())
	tc := &fakeTranscoder{}
	e := segment.NewExtractor(d, tc)

	turn := transcript.Turn{Start: 0, End: 1.1}
	if _, err := e.Extract(context.Background(), d.Converted(), turn, 0); err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	if len(tc.ops) != 1 {
		t.Errorf("ops = %+v, want cut only", tc.ops)
	}
}

func TestExtract_Skips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing func(d artifact.Dir) string
	}{
		{name: "segment audio exists", existing: func(d artifact.Dir) string { return d.Segment(2) }},
		{name: "recognition output exists", existing: func(d artifact.Dir) string { return d.Recognition(2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := artifact.At(t.TempDir())
			if err := os.WriteFile(tt.existing(d), []byte("x"), 0644); err != nil {
				t.Fatal(err)
			}
			tc := &fakeTranscoder{}
			e := segment.NewExtractor(d, tc)

			got, err := e.Extract(context.Background(), d.Converted(), transcript.Turn{Start: 0, End: 0.2}, 2)
			if err != nil {
				t.Fatalf("Extract() unexpected error: %v", err)
			}
			if got != d.Segment(2) {
				t.Errorf("Extract() = %q, want %q", got, d.Segment(2))
			}
			if len(tc.ops) != 0 {
				t.Errorf("ops = %+v, want none", tc.ops)
			}
		})
	}
}

func TestExtract_FailurePropagates(t *testing.T) {
	t.Parallel()

	for _, failOn := range []string{"cut", "pad", "trim"} {
		t.Run(failOn, func(t *testing.T) {
			t.Parallel()

			d := artifact.At(t.TempDir())
			tc := &fakeTranscoder{failOn: failOn}
			e := segment.NewExtractor(d, tc)

			_, err := e.Extract(context.Background(), d.Converted(), transcript.Turn{Start: 0, End: 0.5}, 1)
			if err == nil {
				t.Fatal("Extract() error = nil, want error")
			}
			if last := tc.ops[len(tc.ops)-1].name; last != failOn {
				t.Errorf("last op = %s, want %s (no further calls after failure)", last, failOn)
			}
		})
	}
}
