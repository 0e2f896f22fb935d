package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/fine-structures/simplex.SDK/gosimplex"
	"github.com/fine-structures/simplex.SDK/libsimplex"
	"github.com/fine-structures/simplex.SDK/libsimplex/samplelog"
	"github.com/fine-structures/simplex.SDK/libsimplex/telemetry"
)

type runFlags struct {
	config      string
	seed        uint32
	regime      string
	satCap      int
	beta        float64
	lambda      float64
	energy      string
	triangles   int
	sampleEvery int
	outDir      string
	prefix      string
	counts      bool
	check       bool
	metricsAddr string
}

func newRunCmd() *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Grow one network and write its samples and CSV exports",
		Long: `Grow one network to a target triangle count.

Settings come from DefaultRunConfig, then --config (YAML), then any flags given.
Output files are written to <out-dir>/<prefix>_{samples,edges,edgelist,curvature}.csv.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.resolve(cmd)
			if err != nil {
				return err
			}
			return execRun(cmd.Context(), &cfg, &rf)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&rf.config, "config", "c", "", "YAML run config")
	flags.Uint32Var(&rf.seed, "seed", 0, "random seed")
	flags.StringVar(&rf.regime, "regime", "", "saturation regime: fermi (m=2) or bose (unbounded)")
	flags.IntVar(&rf.satCap, "cap", 0, "explicit saturation cap m (overrides --regime)")
	flags.Float64Var(&rf.beta, "beta", 0, "inverse temperature β")
	flags.Float64Var(&rf.lambda, "lambda", 0, "Poisson mean λ of new node energies")
	flags.StringVar(&rf.energy, "energy", "", "edge energy: linear, quadratic, or an expression over wi, wj, J")
	flags.IntVar(&rf.triangles, "triangles", 0, "target triangle count")
	flags.IntVar(&rf.sampleEvery, "sample-every", 0, "sample period in steps (0 disables sampling)")
	flags.StringVar(&rf.outDir, "out-dir", "", "output directory")
	flags.StringVar(&rf.prefix, "prefix", "", "output file prefix")
	flags.BoolVar(&rf.counts, "counts", false, "append node, edge, and triangle counts to each sample row")
	flags.BoolVar(&rf.check, "check", false, "verify structural invariants after the run")
	flags.StringVar(&rf.metricsAddr, "metrics-addr", "", "serve prometheus /metrics on this address during the run")
	return cmd
}

// resolve layers the config file and then explicitly set flags over DefaultRunConfig.
func (rf *runFlags) resolve(cmd *cobra.Command) (gosimplex.RunConfig, error) {
	cfg := gosimplex.DefaultRunConfig()
	if rf.config != "" {
		var err error
		if cfg, err = gosimplex.LoadRunConfig(rf.config); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = rf.seed
	}
	if flags.Changed("regime") {
		cfg.Regime = gosimplex.Regime(rf.regime)
	}
	if flags.Changed("cap") {
		cfg.Cap = rf.satCap
	}
	if flags.Changed("beta") {
		cfg.Beta = rf.beta
	}
	if flags.Changed("lambda") {
		cfg.Lambda = rf.lambda
	}
	if flags.Changed("energy") {
		cfg.Energy = rf.energy
	}
	if flags.Changed("triangles") {
		cfg.Triangles = rf.triangles
	}
	if flags.Changed("sample-every") {
		cfg.SampleEvery = rf.sampleEvery
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = rf.outDir
	}
	if flags.Changed("prefix") {
		cfg.Prefix = rf.prefix
	}

	return cfg, cfg.Validate()
}

func execRun(ctx context.Context, cfg *gosimplex.RunConfig, rf *runFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	eng, err := libsimplex.NewEngineFromConfig(cfg)
	if err != nil {
		return err
	}
	net := eng.Network()

	reg := prometheus.NewRegistry()
	collector := telemetry.NewCollector(reg, prometheus.Labels{
		"cap":  net.Cap().String(),
		"seed": strconv.FormatUint(uint64(cfg.Seed), 10),
	})
	if rf.metricsAddr != "" {
		srv := serveMetrics(rf.metricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if err = os.MkdirAll(cfg.OutDir, 0700); err != nil {
		return errors.Wrapf(err, "creating %q", cfg.OutDir)
	}
	pathFor := func(kind string) string {
		return filepath.Join(cfg.OutDir, cfg.Prefix+"_"+kind+".csv")
	}

	samplesFile, err := os.OpenFile(pathFor("samples"), os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrap(err, "opening samples output")
	}

	logCtx := gosimplex.NewLogContext()
	defer func() {
		logCtx.Close()
		<-logCtx.Done()
	}()
	sampleLog, err := samplelog.Open(logCtx, samplelog.Opts{Label: cfg.Prefix})
	if err != nil {
		samplesFile.Close()
		return err
	}

	klog.Infof("run %q: seed=%d m=%v β=%v λ=%v energy=%q target=%d triangles",
		cfg.Prefix, cfg.Seed, net.Cap(), cfg.Beta, eng.Lambda(), cfg.Energy, cfg.Triangles)
	startTime := time.Now()

	printOpts := gosimplex.DefaultPrintOpts
	printOpts.Counts = rf.counts

	stream, errs := libsimplex.StreamRun(eng, libsimplex.RunOpts{
		Triangles:   cfg.Triangles,
		SampleEvery: cfg.SampleEvery,
	})
	printed := stream.
		AddTo(sampleLog).
		Observe(collector.Observe).
		Print(samplesFile, printOpts)
	printed.PullAll()

	runErr := <-errs
	if err = printed.Err(); err != nil {
		return errors.Wrapf(err, "run %q", cfg.Prefix)
	}
	if runErr != nil {
		if !errors.Is(runErr, gosimplex.ErrNoEligibleEdges) {
			return runErr
		}
		collector.ObserveFailure()
		klog.Warningf("run %q stopped at %d triangles: %v", cfg.Prefix, net.NumTriangles(), runErr)
	}

	klog.Infof("run %q: %d triangles, %d samples in %v", cfg.Prefix, net.NumTriangles(), sampleLog.NumSamples(), time.Since(startTime))

	if rf.check {
		if err = net.CheckInvariants(); err != nil {
			return errors.Wrap(err, "invariant check failed")
		}
		klog.Infof("run %q: invariants hold", cfg.Prefix)
	}

	if err = libsimplex.ExportEdgeCSV(pathFor("edges"), net); err != nil {
		return err
	}
	if err = libsimplex.ExportEdgeList(pathFor("edgelist"), net); err != nil {
		return err
	}
	if err = libsimplex.ExportCurvature(pathFor("curvature"), net); err != nil {
		return err
	}

	return runErr
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.Warningf("metrics server on %s: %v", addr, err)
		}
	}()
	klog.V(1).Infof("serving /metrics on %s", addr)
	return srv
}
