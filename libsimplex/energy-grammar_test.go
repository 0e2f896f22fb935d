package libsimplex_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/fine-structures/simplex.SDK/gosimplex"
	"github.com/fine-structures/simplex.SDK/libsimplex"
)

func TestParseEnergyFunc(t *testing.T) {
	cases := []struct {
		expr   string
		wi, wj int
		want   float64
	}{
		{"linear", 3, 4, 7},
		{"Quadratic", 3, 4, 3.5 * 4.5},
		{"J*(J+1)", 3, 4, 3.5 * 4.5},
		{"wi + wj", 2, 9, 11},
		{"wi - wj - 1", 5, 3, 1},
		{"-wi + 2*wj", 5, 3, 1},
		{"2^3^2", 0, 0, 512},
		{"-2^2", 0, 0, -4},
		{"2^-1", 0, 0, 0.5},
		{"(wi + wj) / 4", 3, 5, 2},
		{"wi*wj/2 - --J", 2, 4, 1},
		{"1.5e1 + .5", 0, 0, 15.5},
		{" J ^ 2 ", 1, 3, 4},
	}

	for _, tc := range cases {
		fn, err := libsimplex.ParseEnergyFunc(tc.expr)
		require.NoError(t, err, tc.expr)
		require.InDelta(t, tc.want, fn(tc.wi, tc.wj), 1e-12, tc.expr)
	}
}

func TestParseEnergyFuncErrors(t *testing.T) {
	for _, expr := range []string{
		"wi +",
		"wk * 2",
		"(wi + wj",
		"wi wj",
		"2 ** 3",
		"wi $ wj",
	} {
		_, err := libsimplex.ParseEnergyFunc(expr)
		require.True(t, errors.Is(err, gosimplex.ErrBadEnergyExpr), "%q: %v", expr, err)
	}
}

func TestParsedEnergyOnNetwork(t *testing.T) {
	edgeEnergy, err := libsimplex.ParseEnergyFunc("wi*wj")
	require.NoError(t, err)

	net, err := libsimplex.NewNetwork(gosimplex.Params{Cap: gosimplex.FermiCap, EdgeEnergy: edgeEnergy})
	require.NoError(t, err)
	for _, w := range []int{2, 3, 5} {
		net.AddNode(w)
	}
	require.NoError(t, net.AddTriangle(0, 1, 2))

	e, _ := net.Edge(gosimplex.FormEdgeKey(1, 2))
	require.Equal(t, 15.0, e.Energy)
	require.NoError(t, net.CheckInvariants())
}
