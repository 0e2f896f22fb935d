package gosimplex

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Regime names a saturation regime.
type Regime string

const (
	RegimeFermi Regime = "fermi" // m = 2
	RegimeBose  Regime = "bose"  // m unbounded
)

// RunConfig specifies a single growth run.
type RunConfig struct {
	Seed        uint32  `yaml:"seed"`
	Regime      Regime  `yaml:"regime"`
	Cap         int     `yaml:"cap"` // explicit m; 0 denotes the regime default
	Beta        float64 `yaml:"beta"`
	Lambda      float64 `yaml:"lambda"`
	Energy      string  `yaml:"energy"` // "linear", "quadratic", or an expression over wi, wj, J
	Triangles   int     `yaml:"triangles"`
	SampleEvery int     `yaml:"sample_every"`
	OutDir      string  `yaml:"out_dir"`
	Prefix      string  `yaml:"prefix"`
}

// DefaultRunConfig returns the configuration used when no file or flag says otherwise.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Seed:        42,
		Regime:      RegimeFermi,
		Beta:        0,
		Lambda:      7,
		Energy:      "linear",
		Triangles:   1000,
		SampleEvery: 67,
		OutDir:      ".",
		Prefix:      "run",
	}
}

// LoadRunConfig reads a YAML run config on top of DefaultRunConfig and validates it.
func LoadRunConfig(pathname string) (RunConfig, error) {
	cfg := DefaultRunConfig()

	buf, err := os.ReadFile(pathname)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading run config %q", pathname)
	}
	if err = yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, errors.Wrapf(ErrBadConfig, "%s: %v", pathname, err)
	}
	if err = cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, pathname)
	}
	return cfg, nil
}

// Validate checks field ranges; the energy expression is checked when it is parsed.
func (cfg *RunConfig) Validate() error {
	switch {
	case cfg.Regime != RegimeFermi && cfg.Regime != RegimeBose:
		return errors.Wrapf(ErrBadConfig, "regime must be %q or %q (got %q)", RegimeFermi, RegimeBose, cfg.Regime)
	case cfg.Cap < 0:
		return errors.Wrapf(ErrBadConfig, "cap must be >= 0 (got %d)", cfg.Cap)
	case cfg.Beta < 0 || math.IsNaN(cfg.Beta) || math.IsInf(cfg.Beta, 0):
		return errors.Wrapf(ErrBadConfig, "beta must be finite and >= 0 (got %v)", cfg.Beta)
	case !(cfg.Lambda > 0) || math.IsInf(cfg.Lambda, 0):
		return errors.Wrapf(ErrBadConfig, "lambda must be finite and > 0 (got %v)", cfg.Lambda)
	case cfg.Triangles < 1:
		return errors.Wrapf(ErrBadConfig, "triangles must be >= 1 (got %d)", cfg.Triangles)
	case cfg.SampleEvery < 0:
		return errors.Wrapf(ErrBadConfig, "sample_every must be >= 0 (got %d)", cfg.SampleEvery)
	case len(cfg.Energy) == 0:
		return errors.Wrap(ErrBadConfig, "energy must be set")
	}
	return nil
}

// SaturationCap returns the cap implied by Cap and Regime.
func (cfg *RunConfig) SaturationCap() Cap {
	if cfg.Cap > 0 {
		return CapOf(cfg.Cap)
	}
	if cfg.Regime == RegimeBose {
		return BoseCap
	}
	return FermiCap
}

// Params forms network params for this config and the given (parsed) edge energy.
func (cfg *RunConfig) Params(edgeEnergy EnergyFunc) Params {
	return Params{
		Seed:       cfg.Seed,
		Cap:        cfg.SaturationCap(),
		Beta:       cfg.Beta,
		EdgeEnergy: edgeEnergy,
	}
}
