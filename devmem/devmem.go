package devmem

import (
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrBudgetExceeded is returned when a reservation would exceed the
// configured memory budget.
var ErrBudgetExceeded = errors.New("device memory budget exceeded")

// Meminfo reports the memory situation of the device the cache places
// feature buffers on. Capacity estimation reads it fresh on every run,
// since peak allocation moves as the training process warms up.
type Meminfo interface {
	// TotalBytes is the device's total memory capacity.
	TotalBytes() int64
	// PeakAllocatedBytes is the high-water mark of memory the process has
	// allocated on the device so far.
	PeakAllocatedBytes() int64
}

// Static is a fixed Meminfo, useful for tests and for devices whose
// telemetry is sampled externally.
type Static struct {
	Total int64
	Peak  int64
}

// TotalBytes implements Meminfo.
func (s Static) TotalBytes() int64 { return s.Total }

// PeakAllocatedBytes implements Meminfo.
func (s Static) PeakAllocatedBytes() int64 { return s.Peak }

// Runtime reports the Go heap as the device, for host-memory deployments
// where the cache and the training process share one address space. The
// peak is the bytes of heap obtained from the OS.
type Runtime struct {
	Total int64
}

// NewRuntime creates a Runtime Meminfo with the given total capacity.
func NewRuntime(totalBytes int64) *Runtime {
	return &Runtime{Total: totalBytes}
}

// TotalBytes implements Meminfo.
func (r *Runtime) TotalBytes() int64 { return r.Total }

// PeakAllocatedBytes implements Meminfo.
func (r *Runtime) PeakAllocatedBytes() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapSys)
}

// Reservation tracks cache buffer memory against a hard budget, so a
// re-cache cannot silently double-book the device. Acquire is
// non-blocking; callers decide how to react to an exhausted budget.
type Reservation struct {
	sem  *semaphore.Weighted
	held atomic.Int64
}

// NewReservation creates a reservation with the given budget in bytes.
func NewReservation(budgetBytes int64) *Reservation {
	return &Reservation{
		sem: semaphore.NewWeighted(budgetBytes),
	}
}

// Acquire reserves bytes against the budget. Returns ErrBudgetExceeded if
// the budget would be exceeded.
func (r *Reservation) Acquire(bytes int64) error {
	if r == nil || bytes <= 0 {
		return nil
	}
	if !r.sem.TryAcquire(bytes) {
		return ErrBudgetExceeded
	}
	r.held.Add(bytes)
	return nil
}

// Release returns bytes to the budget.
func (r *Reservation) Release(bytes int64) {
	if r == nil || bytes <= 0 {
		return
	}
	r.sem.Release(bytes)
	r.held.Add(-bytes)
}

// Held returns the currently reserved bytes.
func (r *Reservation) Held() int64 {
	if r == nil {
		return 0
	}
	return r.held.Load()
}
