package featcache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/featcache/devmem"
)

func TestCapacityEstimator_Estimate(t *testing.T) {
	// 16 GiB device, 8 GiB peak, default headroom, 16-dim rows:
	// floor((16 GiB - 8 GiB - 512 MiB) / 64 bytes).
	mem := devmem.Static{Total: 16 << 30, Peak: 8 << 30}
	est := NewCapacityEstimator(mem, -1)

	capacity, err := est.Estimate(16)
	require.NoError(t, err)

	want := int(((16 << 30) - (8 << 30) - (512 << 20)) / 64)
	require.Equal(t, want, capacity)
}

func TestCapacityEstimator_Exhausted(t *testing.T) {
	t.Run("PeakFillsDevice", func(t *testing.T) {
		est := NewCapacityEstimator(devmem.Static{Total: 1 << 30, Peak: 1 << 30}, -1)
		capacity, err := est.Estimate(16)
		require.ErrorIs(t, err, ErrCapacityExhausted)
		require.Zero(t, capacity)
	})

	t.Run("HeadroomEatsRemainder", func(t *testing.T) {
		est := NewCapacityEstimator(devmem.Static{Total: 600 << 20, Peak: 100 << 20}, -1)
		capacity, err := est.Estimate(16)
		require.ErrorIs(t, err, ErrCapacityExhausted)
		require.Zero(t, capacity)
	})

	t.Run("PeakExceedsTotal", func(t *testing.T) {
		est := NewCapacityEstimator(devmem.Static{Total: 1 << 30, Peak: 2 << 30}, 0)
		_, err := est.Estimate(16)
		require.ErrorIs(t, err, ErrCapacityExhausted)
	})
}

func TestCapacityEstimator_ZeroHeadroom(t *testing.T) {
	est := NewCapacityEstimator(devmem.Static{Total: 640, Peak: 0}, 0)
	capacity, err := est.Estimate(16)
	require.NoError(t, err)
	require.Equal(t, 10, capacity)
}

func TestCapacityEstimator_Monotone(t *testing.T) {
	// More device memory never shrinks the estimate.
	prev := 0
	for total := int64(600 << 20); total <= 2<<30; total += 100 << 20 {
		est := NewCapacityEstimator(devmem.Static{Total: total, Peak: 64 << 20}, -1)
		capacity, err := est.Estimate(128)
		if err != nil {
			require.ErrorIs(t, err, ErrCapacityExhausted)
			capacity = 0
		}
		require.GreaterOrEqual(t, capacity, prev)
		prev = capacity
	}
	require.Positive(t, prev)
}

func TestCapacityEstimator_BadDim(t *testing.T) {
	est := NewCapacityEstimator(devmem.Static{Total: 1 << 30}, 0)
	_, err := est.Estimate(0)
	require.Error(t, err)
}
