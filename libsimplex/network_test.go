package libsimplex_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/fine-structures/simplex.SDK/gosimplex"
	"github.com/fine-structures/simplex.SDK/libsimplex"
)

var gT *testing.T

func newNetwork(params gosimplex.Params) *libsimplex.Network {
	net, err := libsimplex.NewNetwork(params)
	if err != nil {
		gT.Fatal(err)
	}
	return net
}

func fermiParams(seed uint32) gosimplex.Params {
	return gosimplex.Params{
		Seed: seed,
		Cap:  gosimplex.FermiCap,
		Beta: 0,
	}
}

func checkInvariants(net *libsimplex.Network) {
	if err := net.CheckInvariants(); err != nil {
		gT.Fatal(err)
	}
}

func TestInitialize(t *testing.T) {
	gT = t

	net := newNetwork(fermiParams(42))
	if err := net.Initialize(); err != nil {
		t.Fatal(err)
	}
	checkInvariants(net)

	if net.NumNodes() != 3 || net.NumTriangles() != 1 || net.NumEdges() != 3 {
		t.Fatalf("seed triangle: got %d nodes, %d triangles, %d edges", net.NumNodes(), net.NumTriangles(), net.NumEdges())
	}
	net.ForEachEdge(func(e *gosimplex.Edge) bool {
		if e.NumTriangles != 1 {
			t.Fatalf("seed edge %v has %d triangles", e.Key, e.NumTriangles)
		}
		return true
	})
	net.ForEachNode(func(n gosimplex.Node) bool {
		if n.Energy < 0 || n.Energy > gosimplex.SeedEnergyMax {
			t.Fatalf("seed node %d energy %d out of range", n.ID, n.Energy)
		}
		return true
	})
	if libsimplex.MaxDegree(net) != 2 {
		t.Fatal("seed triangle max degree should be 2")
	}

	err := net.Initialize()
	if !errors.Is(err, gosimplex.ErrNotEmpty) {
		t.Fatalf("second Initialize() should fail with ErrNotEmpty, got %v", err)
	}
}

func TestSeedEnergiesAreDeterministic(t *testing.T) {
	gT = t

	energies := func(seed uint32) (out [3]int) {
		net := newNetwork(fermiParams(seed))
		if err := net.Initialize(); err != nil {
			t.Fatal(err)
		}
		for i := range out {
			out[i] = net.Node(gosimplex.NodeID(i)).Energy
		}
		return
	}

	if energies(42) != energies(42) {
		t.Fatal("same seed should yield the same seed energies")
	}
}

func TestAddTriangle(t *testing.T) {
	gT = t

	net := newNetwork(gosimplex.Params{Cap: gosimplex.BoseCap})
	for _, w := range []int{1, 2, 3, 4} {
		net.AddNode(w)
	}

	if err := net.AddTriangle(0, 1, 1); !errors.Is(err, gosimplex.ErrDegenerateTriangle) {
		t.Fatalf("expected ErrDegenerateTriangle, got %v", err)
	}
	if err := net.AddTriangle(0, 1, 9); !errors.Is(err, gosimplex.ErrBadNodeID) {
		t.Fatalf("expected ErrBadNodeID, got %v", err)
	}
	if net.NumTriangles() != 0 || net.NumEdges() != 0 {
		t.Fatal("rejected triangles must leave the network unchanged")
	}

	if err := net.AddTriangle(2, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := net.AddTriangle(3, 1, 0); err != nil {
		t.Fatal(err)
	}
	checkInvariants(net)

	e, found := net.Edge(gosimplex.FormEdgeKey(1, 0))
	if !found || e.NumTriangles != 2 || e.Energy != 3 {
		t.Fatalf("shared edge: found=%v %+v", found, e)
	}
	e, _ = net.Edge(gosimplex.FormEdgeKey(3, 1))
	if e.Key != (gosimplex.EdgeKey{U: 1, V: 3}) || e.NumTriangles != 1 || e.Energy != 6 {
		t.Fatalf("edge (1,3): %+v", e)
	}

	if nb := net.Neighbors(0, nil); len(nb) != 3 || nb[0] != 1 || nb[1] != 2 || nb[2] != 3 {
		t.Fatalf("neighbors of 0: %v", nb)
	}
	if net.Degree(3) != 2 || net.TriangleCount(0) != 2 || net.TriangleCount(3) != 1 {
		t.Fatal("unexpected degree or triangle count")
	}
}

func TestEdgeOrder(t *testing.T) {
	gT = t

	net := newNetwork(gosimplex.Params{Cap: gosimplex.BoseCap})
	for i := 0; i < 6; i++ {
		net.AddNode(0)
	}
	for _, tri := range []gosimplex.Triangle{{5, 4, 3}, {0, 5, 2}, {1, 3, 0}} {
		if err := net.AddTriangle(tri[0], tri[1], tri[2]); err != nil {
			t.Fatal(err)
		}
	}

	var prev *gosimplex.EdgeKey
	net.ForEachEdge(func(e *gosimplex.Edge) bool {
		if e.Key.U >= e.Key.V {
			t.Fatalf("edge %v not canonical", e.Key)
		}
		if prev != nil && prev.Compare(e.Key) >= 0 {
			t.Fatalf("edge %v follows %v", e.Key, *prev)
		}
		key := e.Key
		prev = &key
		return true
	})
}

func TestNewNetworkRejectsBadParams(t *testing.T) {
	for _, params := range []gosimplex.Params{
		{Cap: gosimplex.FermiCap, Beta: -1},
		{Cap: gosimplex.CapOf(0)},
	} {
		if _, err := libsimplex.NewNetwork(params); !errors.Is(err, gosimplex.ErrBadParam) {
			t.Fatalf("params %+v: expected ErrBadParam, got %v", params, err)
		}
	}
}

func TestCurvatureExport(t *testing.T) {
	gT = t

	net := newNetwork(fermiParams(42))
	if err := net.Initialize(); err != nil {
		t.Fatal(err)
	}
	for id := gosimplex.NodeID(0); id < 3; id++ {
		if R := libsimplex.Curvature(net, id); R != 1-1+1.0/3 {
			t.Fatalf("node %d curvature %v, expected 1/3", id, R)
		}
	}

	var buf bytes.Buffer
	if err := libsimplex.WriteCurvatureCSV(&buf, net); err != nil {
		t.Fatal(err)
	}
	want := "Node,Curvature\n0,0.3333333333333333\n1,0.3333333333333333\n2,0.3333333333333333\n"
	if buf.String() != want {
		t.Fatalf("unexpected curvature CSV:\n%s", buf.String())
	}
}
