package gosimplex

import "errors"

// Errors
var (
	ErrNoEligibleEdges    = errors.New("no eligible edges for growth")
	ErrNotEmpty           = errors.New("network is not empty")
	ErrBadNodeID          = errors.New("bad node ID")
	ErrDegenerateTriangle = errors.New("degenerate triangle")
	ErrBadParam           = errors.New("bad network param")
	ErrBadEnergyExpr      = errors.New("bad edge energy expression")
	ErrBadConfig          = errors.New("bad run config")
	ErrBadEncoding        = errors.New("bad sample encoding")
	ErrLogClosed          = errors.New("sample log is closed")
)
