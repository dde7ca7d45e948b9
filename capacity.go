package featcache

import (
	"fmt"

	"github.com/hupe1980/featcache/devmem"
)

const (
	// DefaultHeadroomBytes is the slack left unclaimed on the device so the
	// training computation itself is not starved (512 MiB).
	DefaultHeadroomBytes = 512 << 20

	// bytesPerElement is the size of one feature element (float32).
	bytesPerElement = 4
)

// CapacityEstimator computes how many nodes' feature rows fit in device
// memory under current allocation pressure. It is deterministic given its
// inputs, but the Meminfo peak moves between calls, so AutoCache estimates
// fresh on every run.
type CapacityEstimator struct {
	mem      devmem.Meminfo
	headroom int64
}

// NewCapacityEstimator creates an estimator. headroomBytes < 0 selects
// DefaultHeadroomBytes; 0 disables headroom entirely.
func NewCapacityEstimator(mem devmem.Meminfo, headroomBytes int64) *CapacityEstimator {
	if headroomBytes < 0 {
		headroomBytes = DefaultHeadroomBytes
	}
	return &CapacityEstimator{mem: mem, headroom: headroomBytes}
}

// Estimate returns the number of nodes whose full feature rows (totalDim
// float32 values each) fit in the device memory left over after peak
// allocation and headroom. Returns ErrCapacityExhausted with a zero count
// when nothing fits; callers treat that as "cache nothing", not a failure.
func (e *CapacityEstimator) Estimate(totalDim int) (int, error) {
	if totalDim <= 0 {
		return 0, fmt.Errorf("total dimension must be positive, got %d", totalDim)
	}

	available := e.mem.TotalBytes() - e.mem.PeakAllocatedBytes() - e.headroom
	rowBytes := int64(totalDim) * bytesPerElement

	capacity := available / rowBytes
	if capacity <= 0 {
		return 0, ErrCapacityExhausted
	}
	return int(capacity), nil
}
