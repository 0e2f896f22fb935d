package libsimplex

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

// MaxDistanceFromInitialTriangle returns the greatest hop distance from any node to the nearest seed node (0, 1, or 2).
//
// Nodes unreachable from the seed triangle do not contribute.  Returns 0 for fewer than 3 nodes.
func MaxDistanceFromInitialTriangle(net gosimplex.NetworkState) int {
	Nv := net.NumNodes()
	if Nv < gosimplex.SeedNodeCount {
		return 0
	}

	// Multi-source BFS yields the minimum distance over the three seeds for each node.
	dist := make([]int32, Nv)
	for i := range dist {
		dist[i] = -1
	}
	queue := make([]gosimplex.NodeID, 0, Nv)
	for id := gosimplex.NodeID(0); id < gosimplex.SeedNodeCount; id++ {
		dist[id] = 0
		queue = append(queue, id)
	}

	maxDist := int32(0)
	var neighbors []gosimplex.NodeID
	for head := 0; head < len(queue); head++ {
		vi := queue[head]
		di := dist[vi] + 1
		neighbors = net.Neighbors(vi, neighbors[:0])
		for _, vj := range neighbors {
			if dist[vj] < 0 {
				dist[vj] = di
				if di > maxDist {
					maxDist = di
				}
				queue = append(queue, vj)
			}
		}
	}

	return int(maxDist)
}

// MaxDegree returns the largest neighbor count over all nodes.
func MaxDegree(net gosimplex.NetworkState) int {
	maxDeg := 0
	for id, Nv := gosimplex.NodeID(0), gosimplex.NodeID(net.NumNodes()); id < Nv; id++ {
		if deg := net.Degree(id); deg > maxDeg {
			maxDeg = deg
		}
	}
	return maxDeg
}

// EntropyRate returns the Shannon entropy (nats) of the next-step attachment distribution.
//
// Returns 0 when no edge is eligible or the weights admit no distribution (Z is 0 or not finite).
func EntropyRate(net gosimplex.NetworkState) float64 {
	var set eligibleSet
	set.Reset(net)
	if set.IsEmpty() {
		return 0
	}

	// gonum yields -0 for a single eligible edge.
	return math.Max(0, distuv.NewCategorical(set.weights, nil).Entropy())
}

// TakeSample gathers the structural observables of net after the given growth step.
func TakeSample(net gosimplex.NetworkState, step int64) gosimplex.Sample {
	return gosimplex.Sample{
		Step:         step,
		MaxDistance:  MaxDistanceFromInitialTriangle(net),
		MaxDegree:    MaxDegree(net),
		Entropy:      EntropyRate(net),
		NumNodes:     net.NumNodes(),
		NumEdges:     net.NumEdges(),
		NumTriangles: net.NumTriangles(),
	}
}

// Curvature returns the discrete curvature R = 1 − k/2 + T/3 of the given node,
// where k is its degree and T the number of triangles incident on it.
func Curvature(net gosimplex.NetworkState, id gosimplex.NodeID) float64 {
	k := float64(net.Degree(id))
	T := float64(net.TriangleCount(id))
	return 1 - k/2 + T/3
}
