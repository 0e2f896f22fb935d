package gosimplex_test

import (
	"math"
	"testing"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

func TestCap(t *testing.T) {
	fermi := gosimplex.FermiCap
	if !fermi.IsBounded() || fermi.Limit() != 2 {
		t.Fatal("fermi cap should be bounded at 2")
	}
	if !fermi.Admits(1) || fermi.Admits(2) || fermi.Admits(3) {
		t.Fatal("fermi cap admits only edges with fewer than 2 triangles")
	}

	bose := gosimplex.BoseCap
	if bose.IsBounded() || !bose.Admits(1<<30) {
		t.Fatal("bose cap should never saturate")
	}
	if bose.String() != "inf" || fermi.String() != "2" {
		t.Fatal("unexpected cap strings")
	}

	if gosimplex.CapOf(math.MaxInt32).IsBounded() {
		t.Fatal("m >= MaxInt32 should map to unbounded")
	}
	if c := gosimplex.CapOf(5); !c.IsBounded() || c.Limit() != 5 {
		t.Fatal("CapOf(5) should be bounded at 5")
	}
}

func TestEdgeKey(t *testing.T) {
	if gosimplex.FormEdgeKey(7, 3) != (gosimplex.EdgeKey{U: 3, V: 7}) {
		t.Fatal("edge key not canonical")
	}
	a := gosimplex.FormEdgeKey(1, 9)
	b := gosimplex.FormEdgeKey(2, 3)
	if a.Compare(b) >= 0 || b.Compare(a) <= 0 || a.Compare(a) != 0 {
		t.Fatal("edge keys must order by (U, V)")
	}

	tri := gosimplex.Triangle{4, 1, 2}
	keys := tri.Keys()
	want := [3]gosimplex.EdgeKey{{1, 4}, {2, 4}, {1, 2}}
	if keys != want {
		t.Fatalf("unexpected triangle keys %v", keys)
	}
	if !tri.Contains(4) || tri.Contains(3) {
		t.Fatal("Triangle.Contains failed")
	}
}

func TestEnergies(t *testing.T) {
	if gosimplex.LinearEnergy(3, 4) != 7 {
		t.Fatal("linear energy")
	}
	// J = 3.5
	if gosimplex.QuadraticEnergy(3, 4) != 3.5*4.5 {
		t.Fatal("quadratic energy")
	}
	if gosimplex.QuadraticEnergy(0, 0) != 0 {
		t.Fatal("quadratic energy at zero")
	}
}
