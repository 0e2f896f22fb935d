package libsimplex_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fine-structures/simplex.SDK/gosimplex"
	"github.com/fine-structures/simplex.SDK/libsimplex"
)

// twoTriangles returns a network with nodes of energy 1, 2, 3, 4 and triangles (2,0,1) and (3,1,0).
func twoTriangles(t *testing.T, edgeEnergy gosimplex.EnergyFunc) *libsimplex.Network {
	net, err := libsimplex.NewNetwork(gosimplex.Params{Cap: gosimplex.FermiCap, EdgeEnergy: edgeEnergy})
	require.NoError(t, err)
	for _, w := range []int{1, 2, 3, 4} {
		net.AddNode(w)
	}
	require.NoError(t, net.AddTriangle(2, 0, 1))
	require.NoError(t, net.AddTriangle(3, 1, 0))
	return net
}

func TestWriteEdgeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, libsimplex.WriteEdgeCSV(&buf, twoTriangles(t, gosimplex.LinearEnergy)))
	require.Equal(t, `Source,Target,Energy,NumTriangles
0,1,3,2
0,2,4,1
0,3,5,1
1,2,5,1
1,3,6,1
`, buf.String())

	buf.Reset()
	require.NoError(t, libsimplex.WriteEdgeCSV(&buf, twoTriangles(t, gosimplex.QuadraticEnergy)))
	lines := strings.Split(buf.String(), "\n")
	require.Equal(t, "0,1,3.75,2", lines[1])
	require.Equal(t, "0,2,6,1", lines[2])
}

func TestWriteEdgeListCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, libsimplex.WriteEdgeListCSV(&buf, twoTriangles(t, nil)))
	require.Equal(t, "Source,Target\n0,1\n0,2\n0,3\n1,2\n1,3\n", buf.String())
}

func TestWriteCurvatureCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, libsimplex.WriteCurvatureCSV(&buf, twoTriangles(t, nil)))

	// k = 3, 3, 2, 2 and T = 2, 2, 1, 1
	require.Equal(t, "Node,Curvature\n0,0.16666666666666663\n1,0.16666666666666663\n2,0.3333333333333333\n3,0.3333333333333333\n", buf.String())
}

func TestExportFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "run")
	net := twoTriangles(t, nil)

	edges := filepath.Join(dir, "edges.csv")
	require.NoError(t, libsimplex.ExportEdgeCSV(edges, net))
	require.NoError(t, libsimplex.ExportEdgeList(filepath.Join(dir, "edgelist.csv"), net))
	require.NoError(t, libsimplex.ExportCurvature(filepath.Join(dir, "curvature.csv"), net))

	buf, err := os.ReadFile(edges)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(buf), libsimplex.EdgeCSVHeader))

	for _, name := range []string{"edgelist.csv", "curvature.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Greater(t, info.Size(), int64(0))
	}
}
