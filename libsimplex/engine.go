package libsimplex

import (
	"math"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

// GrowthEngine grows a Network one triangle at a time by weighted preferential attachment.
type GrowthEngine struct {
	net      *Network
	poisson  distuv.Poisson
	sampler  gosimplex.EnergySampler
	eligible eligibleSet
}

// Step reports what a successful GrowOneStep() did.
type Step struct {
	Edge   gosimplex.EdgeKey // edge the new triangle was attached to
	Node   gosimplex.NodeID  // the new node
	Energy int               // the new node's energy ω
}

// NewGrowthEngine returns an engine for net whose default energy sampler is Poisson with mean lambda,
// drawing from the network's own random source.
func NewGrowthEngine(net *Network, lambda float64) *GrowthEngine {
	if !(lambda > 0) {
		lambda = gosimplex.DefaultLambda
	}
	eng := &GrowthEngine{
		net: net,
		poisson: distuv.Poisson{
			Lambda: lambda,
			Src:    net.Source(),
		},
	}
	eng.SetEnergySampler(nil)
	return eng
}

func (eng *GrowthEngine) Network() *Network {
	return eng.net
}

func (eng *GrowthEngine) Lambda() float64 {
	return eng.poisson.Lambda
}

// SetEnergySampler replaces the node energy sampler; nil restores the Poisson default.
func (eng *GrowthEngine) SetEnergySampler(sampler gosimplex.EnergySampler) {
	if sampler == nil {
		sampler = eng.samplePoisson
	}
	eng.sampler = sampler
}

func (eng *GrowthEngine) samplePoisson() int {
	return int(eng.poisson.Rand())
}

// GrowOneStep selects an eligible edge with probability w(e)/Z, adds a node with a freshly sampled energy,
// and closes a triangle on the two.
//
// The edge draw is made before the energy draw.  If no edge is eligible (or Z underflows to 0 or is not finite),
// gosimplex.ErrNoEligibleEdges is returned and the network is unchanged.
func (eng *GrowthEngine) GrowOneStep() (Step, error) {
	net := eng.net

	eng.eligible.Reset(net)
	if eng.eligible.IsEmpty() {
		if net.NumEdges() == 0 {
			return Step{}, errors.Wrap(gosimplex.ErrNoEligibleEdges, "network has no edges (Initialize() not called?)")
		}
		if eng.eligible.Bad > 0 || math.IsInf(eng.eligible.Z, 0) {
			return Step{}, errors.Wrapf(gosimplex.ErrNoEligibleEdges, "%d non-finite attachment weights, Z=%v (edge energy too negative for β=%v?)",
				eng.eligible.Bad, eng.eligible.Z, net.Beta())
		}
		return Step{}, errors.Wrapf(gosimplex.ErrNoEligibleEdges, "%d of %d edges eligible, Z=%v",
			len(eng.eligible.keys), net.NumEdges(), eng.eligible.Z)
	}

	pick := distuv.NewCategorical(eng.eligible.weights, net.Source())
	key := eng.eligible.keys[int(pick.Rand())]

	omega := eng.sampler()
	if omega < 0 {
		return Step{}, errors.Wrapf(gosimplex.ErrBadParam, "energy sampler returned %d", omega)
	}

	step := Step{
		Edge:   key,
		Node:   net.AddNode(omega),
		Energy: omega,
	}
	if err := net.AddTriangle(key.U, key.V, step.Node); err != nil {
		panic(err)
	}

	klog.V(3).Infof("grow: edge %v (of %d eligible) -> node %d, ω=%d", key, len(eng.eligible.keys), step.Node, omega)
	return step, nil
}

// GrowTo calls GrowOneStep until the network holds targetTriangles triangles.
//
// When sampleEvery > 0, onSample receives a sample after every step whose zero-based index is a multiple of
// sampleEvery.  Returns the number of steps performed.
func (eng *GrowthEngine) GrowTo(targetTriangles, sampleEvery int, onSample func(s gosimplex.Sample)) (int, error) {
	net := eng.net

	step := 0
	for net.NumTriangles() < targetTriangles {
		if _, err := eng.GrowOneStep(); err != nil {
			klog.Warningf("growth stalled after %d steps at %d triangles: %v", step, net.NumTriangles(), err)
			return step, err
		}
		if sampleEvery > 0 && step%sampleEvery == 0 && onSample != nil {
			onSample(TakeSample(net, int64(step)))
		}
		step++
	}

	klog.V(2).Infof("grew %d steps: m=%v β=%v nodes=%d edges=%d triangles=%d",
		step, net.Cap(), net.Beta(), net.NumNodes(), net.NumEdges(), net.NumTriangles())
	return step, nil
}
