package main

import (
	"flag"
	"os"

	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gosimplex",
		Short: "Grow simplicial 2-complexes by weighted preferential attachment",
		Long: `gosimplex grows a simplicial 2-complex one triangle at a time.

Each step picks an edge with weight exp(-β·ε)·(1+numTriangles) among edges below
the saturation cap m, adds a node with a Poisson-distributed energy, and closes a
triangle on the two.

Examples:
  gosimplex run --regime bose --beta 5 --triangles 10000
  gosimplex run --config runs/fermi.yaml --out-dir out/
  gosimplex script scripts/01-growth.py`,
		SilenceUsage: true,
	}

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "1")
	root.PersistentFlags().AddGoFlagSet(fset)

	root.AddCommand(newRunCmd())
	root.AddCommand(newScriptCmd())
	return root
}

func main() {
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	err := newRootCmd().Execute()
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
