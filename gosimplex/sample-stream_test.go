package gosimplex_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

type stepSet map[int64]struct{}

func (set stepSet) TryAddSample(s gosimplex.Sample) bool {
	if _, exists := set[s.Step]; exists {
		return false
	}
	set[s.Step] = struct{}{}
	return true
}

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (buf *bufCloser) Close() error {
	buf.closed = true
	return nil
}

func TestStreamStages(t *testing.T) {
	src := gosimplex.NewSampleStream()
	go func() {
		for _, step := range []int64{0, 67, 67, 134} {
			src.PushSample(gosimplex.Sample{Step: step, MaxDegree: 2 + int(step/67)})
		}
		src.Close()
	}()

	out := &bufCloser{}
	observed := 0
	count := src.
		AddTo(stepSet{}).
		Observe(func(s gosimplex.Sample) { observed++ }).
		Print(out, gosimplex.DefaultPrintOpts).
		PullAll()

	if count != 3 || observed != 3 {
		t.Fatalf("expected 3 unique samples, got %d (observed %d)", count, observed)
	}
	if !out.closed {
		t.Fatal("Print should close its writer when the stream ends")
	}
	want := "step,max_distance,k_max,entropy\n0,0,2,0\n67,0,3,0\n134,0,4,0\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

var errDiskFull = errors.New("disk full")

// shortWriter fails every write after the first n.
type shortWriter struct {
	bufCloser
	n int
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, errDiskFull
	}
	w.n--
	return w.Buffer.Write(p)
}

func TestPrintReportsWriteError(t *testing.T) {
	src := gosimplex.NewSampleStream()
	go func() {
		for step := int64(0); step < 5; step++ {
			src.PushSample(gosimplex.Sample{Step: step})
		}
		src.Close()
	}()

	out := &shortWriter{n: 2}
	observed := 0
	stream := src.
		Print(out, gosimplex.DefaultPrintOpts).
		Observe(func(s gosimplex.Sample) { observed++ })
	if count := stream.PullAll(); count != 5 || observed != 5 {
		t.Fatalf("expected all 5 samples to pass through, got %d (observed %d)", count, observed)
	}
	if !errors.Is(stream.Err(), errDiskFull) {
		t.Fatalf("expected the write error downstream of Print, got %v", stream.Err())
	}
	if !out.closed {
		t.Fatal("Print should close its writer after a write error")
	}
	if want := "step,max_distance,k_max,entropy\n0,0,0,0\n"; out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}

	clean := gosimplex.NewSampleStream()
	clean.Close()
	next := clean.Print(&bufCloser{}, gosimplex.DefaultPrintOpts)
	next.PullAll()
	if err := next.Err(); err != nil {
		t.Fatal(err)
	}
}
