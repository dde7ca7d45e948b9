package featstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/model"
)

func testSchema(t *testing.T) *model.Schema {
	t.Helper()
	schema, err := model.NewSchema(
		model.FieldSpec{Name: "features", Dim: 3},
		model.FieldSpec{Name: "norm", Dim: 1},
	)
	require.NoError(t, err)
	return schema
}

func TestMemoryStore_Fetch(t *testing.T) {
	schema := testSchema(t)
	store := NewMemoryStore(schema, 4)
	ctx := context.Background()

	for id := 0; id < 4; id++ {
		require.NoError(t, store.SetRow("features", core.GlobalID(id), []float32{float32(id), 0, 1}))
		require.NoError(t, store.SetRow("norm", core.GlobalID(id), []float32{float32(id) * 10}))
	}

	// Rows come back in request order, not id order.
	frame, err := store.Fetch(ctx, []core.GlobalID{3, 0, 2}, []model.FieldName{"features", "norm"})
	require.NoError(t, err)

	feats := frame["features"]
	require.Equal(t, 3, feats.Rows())
	require.Equal(t, []float32{3, 0, 1}, feats.Row(0))
	require.Equal(t, []float32{0, 0, 1}, feats.Row(1))
	require.Equal(t, []float32{2, 0, 1}, feats.Row(2))

	norm := frame["norm"]
	require.Equal(t, []float32{30}, norm.Row(0))
	require.Equal(t, []float32{0}, norm.Row(1))
	require.Equal(t, []float32{20}, norm.Row(2))
}

func TestMemoryStore_FetchSubsetOfFields(t *testing.T) {
	schema := testSchema(t)
	store := NewMemoryStore(schema, 2)

	frame, err := store.Fetch(context.Background(), []core.GlobalID{0}, []model.FieldName{"norm"})
	require.NoError(t, err)
	require.Len(t, frame, 1)
	require.Contains(t, frame, model.FieldName("norm"))
}

func TestMemoryStore_Errors(t *testing.T) {
	schema := testSchema(t)
	store := NewMemoryStore(schema, 2)
	ctx := context.Background()

	t.Run("UnknownField", func(t *testing.T) {
		_, err := store.Fetch(ctx, []core.GlobalID{0}, []model.FieldName{"missing"})
		require.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := store.Fetch(ctx, []core.GlobalID{2}, []model.FieldName{"features"})
		require.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("SetRowWrongLength", func(t *testing.T) {
		err := store.SetRow("features", 0, []float32{1})
		require.Error(t, err)
	})

	t.Run("SetRowUnknownField", func(t *testing.T) {
		err := store.SetRow("missing", 0, []float32{1})
		require.ErrorIs(t, err, ErrUnknownField)
	})
}

func TestMemoryStore_SetColumn(t *testing.T) {
	schema := testSchema(t)
	store := NewMemoryStore(schema, 2)

	col := model.NewMatrix(2, 3)
	col.SetRow(0, []float32{1, 2, 3})
	col.SetRow(1, []float32{4, 5, 6})
	require.NoError(t, store.SetColumn("features", col))

	frame, err := store.Fetch(context.Background(), []core.GlobalID{1}, []model.FieldName{"features"})
	require.NoError(t, err)
	require.Equal(t, []float32{4, 5, 6}, frame["features"].Row(0))

	t.Run("WrongShape", func(t *testing.T) {
		require.Error(t, store.SetColumn("features", model.NewMatrix(3, 3)))
		require.Error(t, store.SetColumn("features", model.NewMatrix(2, 4)))
	})
}
