package gosimplex

import (
	"math"
	"testing"
)

var gT *testing.T

func TestSampleEnc(t *testing.T) {
	gT = t
	S1 := Sample{
		Step:         1234567,
		MaxDistance:  17,
		MaxDegree:    912,
		Entropy:      math.Log(3),
		NumNodes:     100003,
		NumEdges:     200003,
		NumTriangles: 100001,
	}

	{
		var scrap1 [4]byte
		checkEncoding(S1, scrap1[:])
	}

	{
		var scrap1 [200]byte
		checkEncoding(S1, scrap1[:])
	}

	var S2 Sample
	if err := S2.InitFromEncoding(0, []byte{0x02, 0x04}); err != ErrBadEncoding {
		t.Fatalf("expected ErrBadEncoding, got %v", err)
	}
}

func checkEncoding(S Sample, scrap []byte) {
	key := AppendStepKey(scrap[:0], S.Step)
	enc := S.AppendEncoding(nil)

	step, err := ReadStepKey(key)
	if err != nil {
		gT.Fatalf("step key error: %v", err)
	}

	var Sdec Sample
	err = Sdec.InitFromEncoding(step, enc)
	if err != nil {
		gT.Fatalf("Sample encoding error: %v", err)
	}

	if S.IsEqual(Sdec) == false {
		gT.Fatalf("Sample encoding failed, should be:\n     %v\ngot:\n    %v", S, Sdec)
	}
}

func TestStepKeyOrder(t *testing.T) {
	steps := []int64{0, 1, 66, 67, 255, 256, 1 << 20, 1 << 40}
	var prev []byte
	for _, step := range steps {
		key := AppendStepKey(nil, step)
		if prev != nil && string(prev) >= string(key) {
			t.Fatalf("step key for %d does not sort after its predecessor", step)
		}
		prev = key
	}
	if _, err := ReadStepKey([]byte{1, 2, 3}); err != ErrBadEncoding {
		t.Fatal("expected ErrBadEncoding for short key")
	}
}

func TestAppendRow(t *testing.T) {
	s := Sample{Step: 67, MaxDistance: 3, MaxDegree: 9, Entropy: 0.5, NumNodes: 71, NumEdges: 139, NumTriangles: 69}

	if got := string(AppendHeader(nil, DefaultPrintOpts)); got != "step,max_distance,k_max,entropy\n" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := string(s.AppendRow(nil, DefaultPrintOpts)); got != "67,3,9,0.5\n" {
		t.Fatalf("unexpected row %q", got)
	}

	opts := PrintOpts{Label: "fermi", Counts: true}
	if got := string(AppendHeader(nil, opts)); got != "label,step,max_distance,k_max,entropy,nodes,edges,triangles\n" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := string(s.AppendRow(nil, opts)); got != "fermi,67,3,9,0.5,71,139,69\n" {
		t.Fatalf("unexpected row %q", got)
	}
}
