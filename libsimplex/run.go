package libsimplex

import (
	"github.com/pkg/errors"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

// RunOpts bounds a streamed growth run.
type RunOpts struct {
	Triangles   int // grow until the network holds this many triangles
	SampleEvery int // sample after every step whose index is a multiple of this (0 disables sampling)
}

// NewEngineFromConfig forms an initialized network and its growth engine from a validated run config.
func NewEngineFromConfig(cfg *gosimplex.RunConfig) (*GrowthEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	edgeEnergy, err := ParseEnergyFunc(cfg.Energy)
	if err != nil {
		return nil, err
	}

	net, err := NewNetwork(cfg.Params(edgeEnergy))
	if err != nil {
		return nil, err
	}
	if err = net.Initialize(); err != nil {
		return nil, err
	}

	return NewGrowthEngine(net, cfg.Lambda), nil
}

// StreamRun grows the engine's network on a new goroutine, pushing each sample onto the returned stream.
//
// That goroutine owns the network until the returned error channel yields; the stream closes first.
func StreamRun(eng *GrowthEngine, opts RunOpts) (*gosimplex.SampleStream, <-chan error) {
	stream := gosimplex.NewSampleStream()
	errs := make(chan error, 1)

	go func() {
		_, err := eng.GrowTo(opts.Triangles, opts.SampleEvery, stream.PushSample)
		stream.Close()
		if err != nil {
			err = errors.Wrap(err, "growth run")
		}
		errs <- err
		close(errs)
	}()

	return stream, errs
}
