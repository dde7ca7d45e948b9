package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/model"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	va := make([]float32, 16)
	vb := make([]float32, 16)
	a.FillUniform(va)
	b.FillUniform(vb)
	require.Equal(t, va, vb)

	a.Reset()
	vc := make([]float32, 16)
	a.FillUniform(vc)
	require.Equal(t, va, vc)
}

func TestRandomColumns(t *testing.T) {
	schema, err := model.NewSchema(
		model.FieldSpec{Name: "features", Dim: 8},
		model.FieldSpec{Name: "norm", Dim: 1},
	)
	require.NoError(t, err)

	cols := RandomColumns(NewRNG(1), schema, 20)
	require.Len(t, cols, 2)
	require.Equal(t, 20, cols["features"].Rows())
	require.Equal(t, 8, cols["features"].Dim())
	require.Equal(t, 1, cols["norm"].Dim())
}

func TestDegreePartition(t *testing.T) {
	part := DegreePartition([]int{3, 0, 5})
	require.Equal(t, 3, part.NumNodes())
	require.Equal(t, 3, part.OutDegree(0))
	require.Equal(t, 0, part.OutDegree(1))
	require.Equal(t, 5, part.OutDegree(2))
}

func TestRandomPartition(t *testing.T) {
	part := RandomPartition(NewRNG(9), 50, 4)
	require.Equal(t, 50, part.NumNodes())
	for i := 0; i < 50; i++ {
		require.EqualValues(t, i, part.Global(core.LocalID(i)))
		for _, nbr := range part.Neighbors(core.LocalID(i)) {
			require.Less(t, int(nbr), 50)
		}
	}
}
