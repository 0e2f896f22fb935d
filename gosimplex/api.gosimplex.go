package gosimplex

const (

	// SeedNodeCount is the number of nodes (ids 0, 1, 2) placed by a network's seed triangle.
	SeedNodeCount = 3

	// SeedEnergyMax is the inclusive upper bound of a seed node energy (uniform over [0, SeedEnergyMax]).
	SeedEnergyMax = 9

	// DefaultLambda is the mean of the default Poisson node energy sampler.
	DefaultLambda = 5.0
)

// NodeID identifies a node and equals its zero-based insertion order.
type NodeID int32

// Node is an immutable record of a node id and its integer energy ω.
type Node struct {
	ID     NodeID
	Energy int
}

// EdgeKey names an undirected edge with the smaller node id first (U < V).
type EdgeKey struct {
	U NodeID
	V NodeID
}

// Edge is an undirected connection carrying a fixed energy ε and the number of triangles incident on it.
//
// Energy is assigned once when the edge is created; only NumTriangles changes afterwards.
type Edge struct {
	Key          EdgeKey
	Energy       float64
	NumTriangles int
}

// Triangle is an unordered triple of node ids.
type Triangle [3]NodeID

// EnergyFunc maps the energies of two endpoints to an edge energy ε.
type EnergyFunc func(wi, wj int) float64

// EnergySampler returns the energy ω of a newly introduced node.
type EnergySampler func() int

// Params are the construction parameters of a network.
type Params struct {
	Seed       uint32     // seeds the network's Mersenne Twister
	Cap        Cap        // per-edge triangle saturation cap m
	Beta       float64    // inverse temperature β >= 0
	EdgeEnergy EnergyFunc // nil denotes LinearEnergy
}

// NetworkState is the read-only surface of a simplicial network that metrics and exporters consume.
type NetworkState interface {
	NumNodes() int
	NumEdges() int
	NumTriangles() int

	// Node returns the node with the given id (which must be in [0, NumNodes())).
	Node(id NodeID) Node

	// ForEachNode calls fn for each node in ascending id order until fn returns false.
	ForEachNode(fn func(n Node) bool)

	// ForEachEdge calls fn for each edge in canonical (U, V) order until fn returns false.
	// The given Edge is only valid for the duration of the callback.
	ForEachEdge(fn func(e *Edge) bool)

	// Edge returns the edge stored under the given key.
	Edge(key EdgeKey) (Edge, bool)

	// Neighbors appends the neighbors of the given node to dst in ascending order.
	Neighbors(id NodeID, dst []NodeID) []NodeID

	// Degree returns the number of neighbors of the given node.
	Degree(id NodeID) int

	// TriangleCount returns the number of triangles incident on the given node.
	TriangleCount(id NodeID) int

	// Triangles returns the triangles in insertion order.  The caller must not modify the returned slice.
	Triangles() []Triangle

	Cap() Cap
	Beta() float64
}

// Sample is a snapshot of a network's structural observables taken during a run.
type Sample struct {
	Step         int64   // zero-based index of the growth step after which the sample was taken
	MaxDistance  int     // greatest hop distance from the seed triangle
	MaxDegree    int     // largest node degree
	Entropy      float64 // Shannon entropy (nats) of the next-step attachment distribution
	NumNodes     int
	NumEdges     int
	NumTriangles int
}

// SampleAdder accepts samples, reporting whether a sample was new.
type SampleAdder interface {

	// TryAddSample adds s if no sample for s.Step is present.
	// If true is returned, s did not exist and was added.
	TryAddSample(s Sample) bool
}

// SampleLog is an ordered collection of run samples keyed by step.
type SampleLog interface {
	SampleAdder

	// NumSamples returns the number of samples added so far.
	NumSamples() int64

	// Select sends each sample with minStep <= Step <= maxStep to onHit in ascending step order.
	// A negative maxStep denotes no upper bound.
	Select(minStep, maxStep int64, onHit chan<- Sample) error

	Close() error
}

// LogContext is a container for open SampleLog instances.
type LogContext interface {

	// Attaches the given SampleLog to this context.
	AttachLog(log SampleLog)

	// Detaches the given SampleLog from this context.
	DetachLog(log SampleLog)

	// Closes all open logs then closes.
	Close()

	// Signals when Close() completed and all open logs have been closed
	Done() <-chan struct{}
}

// PrintOpts specifies what is printed when a sample stream is printed.
type PrintOpts struct {
	Label  string // prefix column; omitted when empty
	Header bool   // if set, a CSV header line is written first
	Counts bool   // if set, node, edge and triangle counts are appended to each row
}

// DefaultPrintOpts matches the time series layout "step,max_distance,k_max,entropy".
var DefaultPrintOpts = PrintOpts{
	Header: true,
}
