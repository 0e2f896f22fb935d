package libsimplex

import (
	"math"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

// edgeKeyComparator orders gosimplex.EdgeKey lexicographically by (U, V).
func edgeKeyComparator(a, b interface{}) int {
	return a.(gosimplex.EdgeKey).Compare(b.(gosimplex.EdgeKey))
}

func nodeIDComparator(a, b interface{}) int {
	ida := a.(gosimplex.NodeID)
	idb := b.(gosimplex.NodeID)
	switch {
	case ida < idb:
		return -1
	case ida > idb:
		return 1
	}
	return 0
}

// AttachmentWeight returns w(e) = exp(−β·ε)·(1 + numTriangles).
func AttachmentWeight(beta float64, e *gosimplex.Edge) float64 {
	return math.Exp(-beta*e.Energy) * float64(1+e.NumTriangles)
}

// eligibleSet holds the attachment weights of the edges a cap admits, in canonical edge order.
type eligibleSet struct {
	keys    []gosimplex.EdgeKey
	weights []float64
	Z       float64
	Bad     int // number of weights that are NaN or ±Inf
}

// Reset fills this set from net, reusing allocations.
func (set *eligibleSet) Reset(net gosimplex.NetworkState) {
	set.keys = set.keys[:0]
	set.weights = set.weights[:0]
	set.Z = 0
	set.Bad = 0

	satCap := net.Cap()
	beta := net.Beta()
	net.ForEachEdge(func(e *gosimplex.Edge) bool {
		if satCap.Admits(e.NumTriangles) {
			w := AttachmentWeight(beta, e)
			if math.IsNaN(w) || math.IsInf(w, 0) {
				set.Bad++
			}
			set.keys = append(set.keys, e.Key)
			set.weights = append(set.weights, w)
			set.Z += w
		}
		return true
	})
}

// IsEmpty reports if there is nothing to attach to: no eligible edge, all weight underflowed to zero,
// or a weight (or Z) is not finite and so admits no distribution.
func (set *eligibleSet) IsEmpty() bool {
	return len(set.keys) == 0 || !(set.Z > 0) || set.Bad > 0 || math.IsInf(set.Z, 0)
}
