package pysimplex

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-python/gpython/py"
	"github.com/plan-systems/klog"

	"github.com/fine-structures/simplex.SDK/gosimplex"
	"github.com/fine-structures/simplex.SDK/libsimplex"
	"github.com/fine-structures/simplex.SDK/libsimplex/samplelog"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	pyNetworkType      = py.NewType("Network", "a growing simplicial 2-complex")
	pyEngineType       = py.NewType("Engine", "grows a Network by preferential attachment")
	pySampleStreamType = py.NewType("SampleStream", "gosimplex.SampleStream")
	pySampleLogType    = py.NewType("SampleLog", "gosimplex.SampleLog")
	pyWorkspaceType    = py.NewType("Workspace", "collects active session resources and sample logs")
)

func getFloat(obj py.Object) (float64, error) {
	switch v := obj.(type) {
	case py.Float:
		return float64(v), nil
	case py.Int:
		return float64(v), nil
	case py.Bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, py.ExceptionNewf(py.TypeError, "expected a number (got %v)", obj.Type().Name)
}

func getString(obj py.Object) (string, error) {
	str, ok := obj.(py.String)
	if !ok {
		return "", py.ExceptionNewf(py.TypeError, "expected str (got %v)", obj.Type().Name)
	}
	return string(str), nil
}

func getNodeID(net *libsimplex.Network, obj py.Object) (gosimplex.NodeID, error) {
	id, err := py.GetInt(obj)
	if err != nil {
		return 0, err
	}
	if id < 0 || int(id) >= net.NumNodes() {
		return 0, py.ExceptionNewf(py.IndexError, "node %d out of range (network has %d nodes)", id, net.NumNodes())
	}
	return gosimplex.NodeID(id), nil
}

func runtimeError(err error) error {
	return py.ExceptionNewf(py.RuntimeError, "%v", err)
}

/////////////////////////////////
// Network

// pyNetwork is shared by value; busy is set while an Engine.Run owns the network.
type pyNetwork struct {
	*libsimplex.Network
	busy *int32
}

func (net pyNetwork) checkIdle() error {
	if atomic.LoadInt32(net.busy) != 0 {
		return py.ExceptionNewf(py.RuntimeError, "network has a run in progress (call Go() on its stream first)")
	}
	return nil
}

// whenIdle guards a Network method so it raises RuntimeError while a run owns the network.
func whenIdle(fn func(self py.Object, args py.Tuple) (py.Object, error)) func(self py.Object, args py.Tuple) (py.Object, error) {
	return func(self py.Object, args py.Tuple) (py.Object, error) {
		if err := self.(pyNetwork).checkIdle(); err != nil {
			return nil, err
		}
		return fn(self, args)
	}
}

func (net pyNetwork) Type() *py.Type {
	return pyNetworkType
}

func (net pyNetwork) M__str__() (py.Object, error) {
	if err := net.checkIdle(); err != nil {
		return nil, err
	}
	return py.String(fmt.Sprintf("Network(m=%v, β=%v, nodes=%d, edges=%d, triangles=%d)",
		net.Cap(), net.Beta(), net.NumNodes(), net.NumEdges(), net.NumTriangles())), nil
}

func (net pyNetwork) M__repr__() (py.Object, error) {
	return net.M__str__()
}

// Arg 1 (int): seed
// Arg 2 (int): saturation cap m (0 or >= 2^31-1 for unbounded)
// Arg 3 (float): β
// Arg 4 (str, optional): edge energy expression
func py_NewNetwork(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 3 {
		return nil, py.ExceptionNewf(py.TypeError, "NewNetwork() takes seed, cap, beta[, energy]")
	}

	seed, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}
	m, err := py.GetInt(args[1])
	if err != nil {
		return nil, err
	}
	beta, err := getFloat(args[2])
	if err != nil {
		return nil, err
	}
	expr := "linear"
	if len(args) > 3 {
		if expr, err = getString(args[3]); err != nil {
			return nil, err
		}
	}

	edgeEnergy, err := libsimplex.ParseEnergyFunc(expr)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}

	params := gosimplex.Params{
		Seed:       uint32(seed),
		Cap:        gosimplex.BoseCap,
		Beta:       beta,
		EdgeEnergy: edgeEnergy,
	}
	if m > 0 {
		params.Cap = gosimplex.CapOf(int(m))
	}

	net, err := libsimplex.NewNetwork(params)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Object(pyNetwork{net, new(int32)}), nil
}

func py_Network_Initialize(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNetwork)
	if err := net.Initialize(); err != nil {
		return nil, runtimeError(err)
	}
	return py.None, nil
}

func py_Network_NumNodes(self py.Object, args py.Tuple) (py.Object, error) {
	return py.Int(self.(pyNetwork).NumNodes()), nil
}

func py_Network_NumEdges(self py.Object, args py.Tuple) (py.Object, error) {
	return py.Int(self.(pyNetwork).NumEdges()), nil
}

func py_Network_NumTriangles(self py.Object, args py.Tuple) (py.Object, error) {
	return py.Int(self.(pyNetwork).NumTriangles()), nil
}

func py_Network_MaxDistance(self py.Object, args py.Tuple) (py.Object, error) {
	return py.Int(libsimplex.MaxDistanceFromInitialTriangle(self.(pyNetwork))), nil
}

func py_Network_MaxDegree(self py.Object, args py.Tuple) (py.Object, error) {
	return py.Int(libsimplex.MaxDegree(self.(pyNetwork))), nil
}

func py_Network_Entropy(self py.Object, args py.Tuple) (py.Object, error) {
	return py.Float(libsimplex.EntropyRate(self.(pyNetwork))), nil
}

// Arg 1 (int): node id
func py_Network_Curvature(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNetwork)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Curvature() takes a node id")
	}
	id, err := getNodeID(net.Network, args[0])
	if err != nil {
		return nil, err
	}
	return py.Float(libsimplex.Curvature(net, id)), nil
}

// Arg 1 (int): node id
func py_Network_Neighbors(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNetwork)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Neighbors() takes a node id")
	}
	id, err := getNodeID(net.Network, args[0])
	if err != nil {
		return nil, err
	}
	neighbors := net.Neighbors(id, nil)
	out := make(py.Tuple, len(neighbors))
	for i, vj := range neighbors {
		out[i] = py.Int(vj)
	}
	return out, nil
}

// Returns a tuple of (source, target, energy, num_triangles) tuples in canonical edge order.
func py_Network_Edges(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNetwork)
	edges := make(py.Tuple, 0, net.NumEdges())
	net.ForEachEdge(func(e *gosimplex.Edge) bool {
		edges = append(edges, py.Tuple{
			py.Int(e.Key.U),
			py.Int(e.Key.V),
			py.Float(e.Energy),
			py.Int(e.NumTriangles),
		})
		return true
	})
	return edges, nil
}

// Returns the sample a run would record after the given step.
func py_Network_Sample(self py.Object, args py.Tuple) (py.Object, error) {
	net := self.(pyNetwork)
	step := py.Int(0)
	if len(args) > 0 {
		var err error
		if step, err = py.GetInt(args[0]); err != nil {
			return nil, err
		}
	}
	return sampleTuple(libsimplex.TakeSample(net, int64(step))), nil
}

func py_Network_CheckInvariants(self py.Object, args py.Tuple) (py.Object, error) {
	if err := self.(pyNetwork).CheckInvariants(); err != nil {
		return nil, py.ExceptionNewf(py.AssertionError, "%v", err)
	}
	return py.True, nil
}

func exportWith(self py.Object, args py.Tuple, export func(string, gosimplex.NetworkState) error) (py.Object, error) {
	net := self.(pyNetwork)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "expected an output pathname")
	}
	pathname, err := getString(args[0])
	if err != nil {
		return nil, err
	}
	if err = export(pathname, net); err != nil {
		return nil, py.ExceptionNewf(py.OSError, "%v", err)
	}
	return py.None, nil
}

func py_Network_ExportEdges(self py.Object, args py.Tuple) (py.Object, error) {
	return exportWith(self, args, libsimplex.ExportEdgeCSV)
}

func py_Network_ExportEdgeList(self py.Object, args py.Tuple) (py.Object, error) {
	return exportWith(self, args, libsimplex.ExportEdgeList)
}

func py_Network_ExportCurvature(self py.Object, args py.Tuple) (py.Object, error) {
	return exportWith(self, args, libsimplex.ExportCurvature)
}

func sampleTuple(s gosimplex.Sample) py.Tuple {
	return py.Tuple{
		py.Int(s.Step),
		py.Int(s.MaxDistance),
		py.Int(s.MaxDegree),
		py.Float(s.Entropy),
	}
}

/////////////////////////////////
// Engine

type pyEngine struct {
	*libsimplex.GrowthEngine
	net pyNetwork
}

func (eng pyEngine) Type() *py.Type {
	return pyEngineType
}

// Arg 1 (Network): the network to grow
// Arg 2 (float, optional): Poisson mean λ of new node energies
func py_NewEngine(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "NewEngine() takes a Network[, lambda]")
	}
	net, ok := args[0].(pyNetwork)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected Network object (got %v)", args[0].Type().Name)
	}
	lambda := gosimplex.DefaultLambda
	if len(args) > 1 {
		var err error
		if lambda, err = getFloat(args[1]); err != nil {
			return nil, err
		}
	}
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return nil, py.ExceptionNewf(py.ValueError, "lambda must be finite and > 0 (got %v)", lambda)
	}

	return py.Object(pyEngine{
		GrowthEngine: libsimplex.NewGrowthEngine(net.Network, lambda),
		net:          net,
	}), nil
}

func (eng pyEngine) checkIdle() error {
	return eng.net.checkIdle()
}

// Returns (edge_u, edge_v, node, energy) for the triangle just added.
func py_Engine_GrowOneStep(self py.Object, args py.Tuple) (py.Object, error) {
	eng := self.(pyEngine)
	if err := eng.checkIdle(); err != nil {
		return nil, err
	}
	step, err := eng.GrowOneStep()
	if err != nil {
		return nil, runtimeError(err)
	}
	return py.Tuple{
		py.Int(step.Edge.U),
		py.Int(step.Edge.V),
		py.Int(step.Node),
		py.Int(step.Energy),
	}, nil
}

// Arg 1 (int): target triangle count
// Arg 2 (int, optional): sample period in steps (0 for no samples)
func py_Engine_Run(self py.Object, args py.Tuple) (py.Object, error) {
	eng := self.(pyEngine)
	if err := eng.checkIdle(); err != nil {
		return nil, err
	}

	var opts libsimplex.RunOpts
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "Run() takes triangles[, sample_every]")
	}
	tris, err := py.GetInt(args[0])
	if err != nil {
		return nil, err
	}
	opts.Triangles = int(tris)
	if len(args) > 1 {
		every, err := py.GetInt(args[1])
		if err != nil {
			return nil, err
		}
		opts.SampleEvery = int(every)
	}

	if !atomic.CompareAndSwapInt32(eng.net.busy, 0, 1) {
		return nil, py.ExceptionNewf(py.RuntimeError, "network has a run in progress (call Go() on its stream first)")
	}
	stream, errs := libsimplex.StreamRun(eng.GrowthEngine, opts)

	done := make(chan error, 1)
	go func() {
		err := <-errs
		atomic.StoreInt32(eng.net.busy, 0)
		done <- err
		close(done)
	}()

	return wrapSampleStream(stream, done), nil
}

/////////////////////////////////
// SampleStream

type sampleStream struct {
	*gosimplex.SampleStream
	errs <-chan error // yields the producer's outcome once
}

func (stream sampleStream) Type() *py.Type {
	return pySampleStreamType
}

func wrapSampleStream(stream *gosimplex.SampleStream, errs <-chan error) py.Object {
	return py.Object(sampleStream{stream, errs})
}

func (stream sampleStream) next(next *gosimplex.SampleStream) py.Object {
	return wrapSampleStream(next, stream.errs)
}

// Go drains the stream, returning the number of samples that passed through it.
func py_SampleStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(sampleStream)
	count := stream.PullAll()
	if err := stream.Err(); err != nil {
		if stream.errs != nil {
			<-stream.errs
		}
		return nil, py.ExceptionNewf(py.OSError, "%v", err)
	}
	if stream.errs != nil {
		if err := <-stream.errs; err != nil && !errors.Is(err, gosimplex.ErrNoEligibleEdges) {
			return nil, runtimeError(err)
		} else if err != nil {
			klog.Warningf("run stopped early: %v", err)
		}
	}
	return py.Int(count), nil
}

// Collects each sample into a list of (step, max_distance, k_max, entropy) tuples.
func py_SampleStream_List(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(sampleStream)
	var items []py.Object
	next := stream.Observe(func(s gosimplex.Sample) {
		items = append(items, sampleTuple(s))
	})
	if _, err := py_SampleStream_Go(stream.next(next), nil); err != nil {
		return nil, err
	}
	return py.NewListFromItems(items), nil
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	if echo.to == nil {
		return echo.stdout.Write(buf)
	}
	return echo.to.Write(buf)
}

func (echo *echoToWriter) Close() error {
	if echo.to != nil {
		return echo.to.Close()
	}
	return nil
}

// Print writes each sample as a CSV row.
//
// kwargs: label (str), file (str), counts (bool), header (bool)
func py_SampleStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(sampleStream)
	var pathname string

	opts := gosimplex.DefaultPrintOpts

	py.LoadTuple(args, []interface{}{&opts.Label})
	if opts.Label == "" {
		py.LoadAttr(kwargs, "label", &opts.Label)
	}
	py.LoadAttr(kwargs, "file", &pathname)
	py.LoadAttr(kwargs, "counts", &opts.Counts)
	py.LoadAttr(kwargs, "header", &opts.Header)

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(pathname), 0700)

		file, err := os.OpenFile(pathname, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0644)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
	}

	next := stream.Print(writer, opts)
	return stream.next(next), nil
}

// Arg 1 (SampleLog): log receiving each sample; samples whose step is already logged are dropped.
func py_SampleStream_AddTo(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(sampleStream)
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "AddTo() takes a SampleLog")
	}
	log, ok := args[0].(pySampleLog)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected SampleLog object (got %v)", args[0].Type().Name)
	}
	next := stream.AddTo(log)
	return stream.next(next), nil
}

/////////////////////////////////
// Workspace & SampleLog

const kWorkspaceAttr = "_Workspace"

type Workspace struct {
	LogCtx gosimplex.LogContext
}

func (ws *Workspace) Close() {
	ws.LogCtx.Close()
	<-ws.LogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		wsObj = &Workspace{
			LogCtx: gosimplex.NewLogContext(),
		}
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

// Arg 1 (str, optional): label
func py_Workspace_OpenLog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var opts samplelog.Opts
	if len(args) > 0 {
		var err error
		if opts.Label, err = getString(args[0]); err != nil {
			return nil, err
		}
	}

	log, err := samplelog.Open(ws.LogCtx, opts)
	if err != nil {
		return nil, runtimeError(err)
	}
	return py.Object(pySampleLog{log}), nil
}

type pySampleLog struct {
	*samplelog.SampleLog
}

func (log pySampleLog) Type() *py.Type {
	return pySampleLogType
}

func py_SampleLog_NumSamples(self py.Object, args py.Tuple) (py.Object, error) {
	return py.Int(self.(pySampleLog).NumSamples()), nil
}

// Arg 1 (int, optional): min step
// Arg 2 (int, optional): max step (negative for no bound)
func py_SampleLog_Select(self py.Object, args py.Tuple) (py.Object, error) {
	log := self.(pySampleLog)
	bounds := [2]int64{0, -1}
	for i := 0; i < len(args) && i < len(bounds); i++ {
		v, err := py.GetInt(args[i])
		if err != nil {
			return nil, err
		}
		bounds[i] = int64(v)
	}

	next, errs := gosimplex.SelectFromLog(log, bounds[0], bounds[1])
	return wrapSampleStream(next, errs), nil
}

func py_SampleLog_Close(self py.Object, args py.Tuple) (py.Object, error) {
	log := self.(pySampleLog)
	if err := log.Close(); err != nil {
		return nil, runtimeError(err)
	}
	return py.None, nil
}

func init() {

	/////////////////////////////////
	// Network
	{
		pyNetworkType.Dict["Initialize"] = py.MustNewMethod("Initialize", whenIdle(py_Network_Initialize), 0, "places the seed triangle")
		pyNetworkType.Dict["NumNodes"] = py.MustNewMethod("NumNodes", whenIdle(py_Network_NumNodes), 0, "")
		pyNetworkType.Dict["NumEdges"] = py.MustNewMethod("NumEdges", whenIdle(py_Network_NumEdges), 0, "")
		pyNetworkType.Dict["NumTriangles"] = py.MustNewMethod("NumTriangles", whenIdle(py_Network_NumTriangles), 0, "")
		pyNetworkType.Dict["MaxDistance"] = py.MustNewMethod("MaxDistance", whenIdle(py_Network_MaxDistance), 0, "greatest hop distance from the seed triangle")
		pyNetworkType.Dict["MaxDegree"] = py.MustNewMethod("MaxDegree", whenIdle(py_Network_MaxDegree), 0, "")
		pyNetworkType.Dict["Entropy"] = py.MustNewMethod("Entropy", whenIdle(py_Network_Entropy), 0, "entropy (nats) of the next attachment draw")
		pyNetworkType.Dict["Curvature"] = py.MustNewMethod("Curvature", whenIdle(py_Network_Curvature), 0, "")
		pyNetworkType.Dict["Neighbors"] = py.MustNewMethod("Neighbors", whenIdle(py_Network_Neighbors), 0, "")
		pyNetworkType.Dict["Edges"] = py.MustNewMethod("Edges", whenIdle(py_Network_Edges), 0, "")
		pyNetworkType.Dict["Sample"] = py.MustNewMethod("Sample", whenIdle(py_Network_Sample), 0, "")
		pyNetworkType.Dict["CheckInvariants"] = py.MustNewMethod("CheckInvariants", whenIdle(py_Network_CheckInvariants), 0, "")
		pyNetworkType.Dict["ExportEdges"] = py.MustNewMethod("ExportEdges", whenIdle(py_Network_ExportEdges), 0, "writes Source,Target,Energy,NumTriangles")
		pyNetworkType.Dict["ExportEdgeList"] = py.MustNewMethod("ExportEdgeList", whenIdle(py_Network_ExportEdgeList), 0, "writes Source,Target")
		pyNetworkType.Dict["ExportCurvature"] = py.MustNewMethod("ExportCurvature", whenIdle(py_Network_ExportCurvature), 0, "writes Node,Curvature")
	}

	/////////////////////////////////
	// Engine
	{
		pyEngineType.Dict["GrowOneStep"] = py.MustNewMethod("GrowOneStep", py_Engine_GrowOneStep, 0, "")
		pyEngineType.Dict["Run"] = py.MustNewMethod("Run", py_Engine_Run, 0, "grows to a triangle count, streaming samples")
	}

	/////////////////////////////////
	// SampleStream
	{
		pySampleStreamType.Dict["Go"] = py.MustNewMethod("Go", py_SampleStream_Go, 0, "counts the number of samples output from the SampleStream")
		pySampleStreamType.Dict["List"] = py.MustNewMethod("List", py_SampleStream_List, 0, "")
		pySampleStreamType.Dict["Print"] = py.MustNewMethod("Print", py_SampleStream_Print, 0, "prints each sample from the SampleStream")
		pySampleStreamType.Dict["AddTo"] = py.MustNewMethod("AddTo", py_SampleStream_AddTo, 0, "")
	}

	/////////////////////////////////
	// Workspace & SampleLog
	{
		pyWorkspaceType.Dict["OpenLog"] = py.MustNewMethod("OpenLog", py_Workspace_OpenLog, 0, "")
		pySampleLogType.Dict["NumSamples"] = py.MustNewMethod("NumSamples", py_SampleLog_NumSamples, 0, "")
		pySampleLogType.Dict["Select"] = py.MustNewMethod("Select", py_SampleLog_Select, 0, "")
		pySampleLogType.Dict["Close"] = py.MustNewMethod("Close", py_SampleLog_Close, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("NewNetwork", py_NewNetwork, 0, ""),
			py.MustNewMethod("NewEngine", py_NewEngine, 0, ""),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION":     py.String(LIB_VERSION),
			"FERMI":           py.Int(gosimplex.FermiCap.Limit()),
			"BOSE":            py.Int(0),
			"SEED_ENERGY_MAX": py.Int(gosimplex.SeedEnergyMax),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "_pysimplex",
				Doc:  "simplicial network growth gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}
