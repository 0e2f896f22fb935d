package gosimplex

import (
	"fmt"
	"math"
	"strconv"
	"sync"
)

// Cap is a per-edge triangle saturation cap m, either a positive bound or unbounded.
type Cap struct {
	limit   int
	bounded bool
}

var (
	// FermiCap is the Fermi-Dirac regime: at most two triangles per edge.
	FermiCap = Bounded(2)

	// BoseCap is the Bose-Einstein regime: no limit on triangles per edge.
	BoseCap = Unbounded()
)

// Bounded returns a cap that admits growth on edges with fewer than m triangles.
func Bounded(m int) Cap {
	return Cap{limit: m, bounded: true}
}

// Unbounded returns a cap that never saturates.
func Unbounded() Cap {
	return Cap{}
}

// CapOf maps an integer m to a Cap, treating m >= math.MaxInt32 as unbounded.
func CapOf(m int) Cap {
	if m >= math.MaxInt32 {
		return Unbounded()
	}
	return Bounded(m)
}

func (c Cap) IsBounded() bool {
	return c.bounded
}

// Limit returns m, or math.MaxInt when unbounded.
func (c Cap) Limit() int {
	if !c.bounded {
		return math.MaxInt
	}
	return c.limit
}

// Admits reports if an edge carrying numTriangles is eligible for growth (numTriangles < m).
func (c Cap) Admits(numTriangles int) bool {
	return !c.bounded || numTriangles < c.limit
}

func (c Cap) String() string {
	if !c.bounded {
		return "inf"
	}
	return strconv.Itoa(c.limit)
}

// FormEdgeKey forms the canonical EdgeKey for nodes a and b.
func FormEdgeKey(a, b NodeID) EdgeKey {
	if a < b {
		return EdgeKey{a, b}
	}
	return EdgeKey{b, a}
}

// Compare orders keys lexicographically by (U, V).
func (k EdgeKey) Compare(other EdgeKey) int {
	switch {
	case k.U < other.U:
		return -1
	case k.U > other.U:
		return 1
	case k.V < other.V:
		return -1
	case k.V > other.V:
		return 1
	}
	return 0
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.U, k.V)
}

// Keys returns the three canonical edge keys of this triangle.
func (t Triangle) Keys() [3]EdgeKey {
	return [3]EdgeKey{
		FormEdgeKey(t[0], t[1]),
		FormEdgeKey(t[0], t[2]),
		FormEdgeKey(t[1], t[2]),
	}
}

// Contains reports if id is a vertex of this triangle.
func (t Triangle) Contains(id NodeID) bool {
	return t[0] == id || t[1] == id || t[2] == id
}

// LinearEnergy is ε = ωi + ωj.
func LinearEnergy(wi, wj int) float64 {
	return float64(wi + wj)
}

// QuadraticEnergy is ε = J(J+1) where J = (ωi + ωj)/2.
func QuadraticEnergy(wi, wj int) float64 {
	J := float64(wi+wj) / 2
	return J * (J + 1)
}

func NewLogContext() LogContext {
	ctx := &logContext{
		openLogs: make(map[SampleLog]struct{}),
		closing:  make(chan struct{}),
		closed:   make(chan struct{}),
	}
	ctx.openCount.Add(1)
	go func() {
		<-ctx.closing
		ctx.openCount.Done()
		ctx.openCount.Wait()
		close(ctx.closed)
	}()
	return ctx
}

type logContext struct {
	mu        sync.Mutex
	openCount sync.WaitGroup
	openLogs  map[SampleLog]struct{}
	closeOnce sync.Once
	closing   chan struct{}
	closed    chan struct{}
}

func (ctx *logContext) AttachLog(log SampleLog) {
	ctx.openCount.Add(1)
	ctx.mu.Lock()
	ctx.openLogs[log] = struct{}{}
	ctx.mu.Unlock()
}

func (ctx *logContext) DetachLog(log SampleLog) {
	ctx.mu.Lock()
	if _, exists := ctx.openLogs[log]; exists {
		delete(ctx.openLogs, log)
		ctx.openCount.Done()
	}
	ctx.mu.Unlock()
}

func (ctx *logContext) Done() <-chan struct{} {
	return ctx.closed
}

func (ctx *logContext) Close() {
	ctx.closeOnce.Do(func() {
		close(ctx.closing)
		ctx.mu.Lock()
		for log := range ctx.openLogs {
			go log.Close()
		}
		ctx.mu.Unlock()
	})
}
