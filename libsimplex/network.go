package libsimplex

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mathext/prng"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

// Network is the state of a growing simplicial 2-complex: nodes, edges, triangles, and adjacency.
//
// A Network is owned by a single goroutine; GrowthEngine and the metrics borrow it without locking.
type Network struct {
	params    gosimplex.Params
	rng       *prng.MT19937
	nodes     []gosimplex.Node
	edges     *redblacktree.Tree // gosimplex.EdgeKey => *gosimplex.Edge, in canonical order
	triangles []gosimplex.Triangle
	adjacency []*treeset.Set // neighbor NodeIDs by NodeID
	nodeTris  []int32        // incident triangle count by NodeID
}

// NewNetwork returns an empty network with the given params.
//
// The network's Mersenne Twister is seeded with params.Seed, so identical params and an identical
// sequence of calls yield identical state.
func NewNetwork(params gosimplex.Params) (*Network, error) {
	if params.Beta < 0 || math.IsNaN(params.Beta) || math.IsInf(params.Beta, 0) {
		return nil, errors.Wrapf(gosimplex.ErrBadParam, "beta must be finite and >= 0 (got %v)", params.Beta)
	}
	if params.Cap.IsBounded() && params.Cap.Limit() < 1 {
		return nil, errors.Wrapf(gosimplex.ErrBadParam, "cap must be >= 1 (got %d)", params.Cap.Limit())
	}
	if params.EdgeEnergy == nil {
		params.EdgeEnergy = gosimplex.LinearEnergy
	}

	net := &Network{
		params: params,
		rng:    prng.NewMT19937(),
		edges:  redblacktree.NewWith(edgeKeyComparator),
	}
	net.rng.Seed(uint64(params.Seed))
	return net, nil
}

// Source returns the network's random source, shared by every draw made on behalf of this network.
func (net *Network) Source() rand.Source {
	return net.rng
}

func (net *Network) Params() gosimplex.Params {
	return net.params
}

func (net *Network) Cap() gosimplex.Cap {
	return net.params.Cap
}

func (net *Network) Beta() float64 {
	return net.params.Beta
}

// Initialize places the seed triangle on nodes 0, 1, 2.
//
// The three seed energies are the network RNG's first draws, each uniform over [0, 9].
func (net *Network) Initialize() error {
	if len(net.nodes) > 0 {
		return errors.Wrapf(gosimplex.ErrNotEmpty, "Initialize() called with %d nodes present", len(net.nodes))
	}

	rnd := rand.New(net.rng)
	var seed gosimplex.Triangle
	for i := range seed {
		seed[i] = net.AddNode(rnd.IntN(gosimplex.SeedEnergyMax + 1))
	}
	return net.AddTriangle(seed[0], seed[1], seed[2])
}

// AddNode appends a node with energy ω and returns its id.
func (net *Network) AddNode(energy int) gosimplex.NodeID {
	id := gosimplex.NodeID(len(net.nodes))
	net.nodes = append(net.nodes, gosimplex.Node{
		ID:     id,
		Energy: energy,
	})
	net.adjacency = append(net.adjacency, treeset.NewWith(nodeIDComparator))
	net.nodeTris = append(net.nodeTris, 0)
	return id
}

// ComputeEdgeEnergy returns ε for endpoint energies ωi and ωj.
func (net *Network) ComputeEdgeEnergy(wi, wj int) float64 {
	return net.params.EdgeEnergy(wi, wj)
}

// AddTriangle appends triangle (i, j, r), creating each absent edge or incrementing its triangle count.
//
// Unknown ids and repeated ids are rejected before anything is changed.
func (net *Network) AddTriangle(i, j, r gosimplex.NodeID) error {
	tri := gosimplex.Triangle{i, j, r}
	for _, id := range tri {
		if !net.isNode(id) {
			return errors.Wrapf(gosimplex.ErrBadNodeID, "node %d (network has %d nodes)", id, len(net.nodes))
		}
	}
	if i == j || j == r || i == r {
		return errors.Wrapf(gosimplex.ErrDegenerateTriangle, "(%d,%d,%d)", i, j, r)
	}

	net.triangles = append(net.triangles, tri)
	for _, key := range tri.Keys() {
		net.attachEdge(key)
	}
	for _, id := range tri {
		net.nodeTris[id]++
	}
	return nil
}

func (net *Network) attachEdge(key gosimplex.EdgeKey) {
	if val, found := net.edges.Get(key); found {
		val.(*gosimplex.Edge).NumTriangles++
		return
	}

	net.edges.Put(key, &gosimplex.Edge{
		Key:          key,
		Energy:       net.ComputeEdgeEnergy(net.nodes[key.U].Energy, net.nodes[key.V].Energy),
		NumTriangles: 1,
	})
	net.adjacency[key.U].Add(key.V)
	net.adjacency[key.V].Add(key.U)
}

func (net *Network) isNode(id gosimplex.NodeID) bool {
	return id >= 0 && int(id) < len(net.nodes)
}

func (net *Network) NumNodes() int {
	return len(net.nodes)
}

func (net *Network) NumEdges() int {
	return net.edges.Size()
}

func (net *Network) NumTriangles() int {
	return len(net.triangles)
}

func (net *Network) Node(id gosimplex.NodeID) gosimplex.Node {
	return net.nodes[id]
}

func (net *Network) ForEachNode(fn func(n gosimplex.Node) bool) {
	for _, n := range net.nodes {
		if !fn(n) {
			return
		}
	}
}

func (net *Network) ForEachEdge(fn func(e *gosimplex.Edge) bool) {
	it := net.edges.Iterator()
	for it.Next() {
		e := *it.Value().(*gosimplex.Edge)
		if !fn(&e) {
			return
		}
	}
}

func (net *Network) Edge(key gosimplex.EdgeKey) (gosimplex.Edge, bool) {
	val, found := net.edges.Get(key)
	if !found {
		return gosimplex.Edge{}, false
	}
	return *val.(*gosimplex.Edge), true
}

func (net *Network) Neighbors(id gosimplex.NodeID, dst []gosimplex.NodeID) []gosimplex.NodeID {
	it := net.adjacency[id].Iterator()
	for it.Next() {
		dst = append(dst, it.Value().(gosimplex.NodeID))
	}
	return dst
}

func (net *Network) Degree(id gosimplex.NodeID) int {
	return net.adjacency[id].Size()
}

func (net *Network) TriangleCount(id gosimplex.NodeID) int {
	return int(net.nodeTris[id])
}

func (net *Network) Triangles() []gosimplex.Triangle {
	return net.triangles
}

// CheckInvariants verifies the structural invariants of the network, returning the first violation found.
func (net *Network) CheckInvariants() error {
	for i, n := range net.nodes {
		if int(n.ID) != i {
			return fmt.Errorf("node at index %d has id %d", i, n.ID)
		}
	}

	counts := make(map[gosimplex.EdgeKey]int, net.edges.Size())
	nodeTris := make([]int32, len(net.nodes))
	for _, tri := range net.triangles {
		for _, key := range tri.Keys() {
			counts[key]++
		}
		for _, id := range tri {
			nodeTris[id]++
		}
	}

	if len(counts) != net.edges.Size() {
		return fmt.Errorf("triangles imply %d edges, edge map holds %d", len(counts), net.edges.Size())
	}

	degrees := 0
	var err error
	net.ForEachEdge(func(e *gosimplex.Edge) bool {
		key := e.Key
		switch {
		case key.U >= key.V:
			err = fmt.Errorf("edge %v is not canonical", key)
		case counts[key] != e.NumTriangles:
			err = fmt.Errorf("edge %v has NumTriangles=%d, triangles imply %d", key, e.NumTriangles, counts[key])
		case e.NumTriangles > net.params.Cap.Limit():
			err = fmt.Errorf("edge %v has NumTriangles=%d exceeding cap %v", key, e.NumTriangles, net.params.Cap)
		case math.Float64bits(e.Energy) != math.Float64bits(net.ComputeEdgeEnergy(net.nodes[key.U].Energy, net.nodes[key.V].Energy)):
			err = fmt.Errorf("edge %v energy %v does not match its endpoints", key, e.Energy)
		case !net.adjacency[key.U].Contains(key.V) || !net.adjacency[key.V].Contains(key.U):
			err = fmt.Errorf("edge %v missing from adjacency", key)
		}
		return err == nil
	})
	if err != nil {
		return err
	}

	for id, set := range net.adjacency {
		degrees += set.Size()
		if nodeTris[id] != net.nodeTris[id] {
			return fmt.Errorf("node %d has triangle count %d, triangles imply %d", id, net.nodeTris[id], nodeTris[id])
		}
	}
	if degrees != 2*net.edges.Size() {
		return fmt.Errorf("adjacency holds %d entries, expected %d", degrees, 2*net.edges.Size())
	}
	return nil
}
