package featstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/featcache/core"
)

func TestCoalesceRuns(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		require.Nil(t, CoalesceRuns(nil))
	})

	t.Run("SingleRun", func(t *testing.T) {
		runs := CoalesceRuns([]core.GlobalID{5, 6, 7, 8})
		require.Equal(t, []Run{{Start: 5, Pos: 0, Count: 4}}, runs)
	})

	t.Run("Scattered", func(t *testing.T) {
		runs := CoalesceRuns([]core.GlobalID{9, 3, 100})
		require.Equal(t, []Run{
			{Start: 9, Pos: 0, Count: 1},
			{Start: 3, Pos: 1, Count: 1},
			{Start: 100, Pos: 2, Count: 1},
		}, runs)
	})

	t.Run("Mixed", func(t *testing.T) {
		runs := CoalesceRuns([]core.GlobalID{10, 11, 12, 4, 5, 20})
		require.Equal(t, []Run{
			{Start: 10, Pos: 0, Count: 3},
			{Start: 4, Pos: 3, Count: 2},
			{Start: 20, Pos: 5, Count: 1},
		}, runs)
	})

	t.Run("DescendingNeverMerges", func(t *testing.T) {
		runs := CoalesceRuns([]core.GlobalID{3, 2, 1})
		require.Len(t, runs, 3)
	})
}
