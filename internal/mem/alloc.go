// Package mem provides aligned memory allocation for feature buffers.
package mem

import (
	"unsafe"
)

// Alignment is the byte alignment used for feature row buffers (64 bytes,
// one cache line).
const Alignment = 64

// AllocAligned allocates a byte slice of the given size with 64-byte alignment.
// The returned slice is guaranteed to start at a memory address divisible by 64.
//
// Note: This function allocates slightly more memory than requested to ensure
// alignment. The underlying array is kept alive by the returned slice.
func AllocAligned(size int) []byte {
	if size == 0 {
		return nil
	}

	totalSize := size + Alignment
	buf := make([]byte, totalSize)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size)]
}

// AllocAlignedFloat32 allocates a float32 slice of the given size with
// 64-byte alignment.
func AllocAlignedFloat32(size int) []float32 {
	if size == 0 {
		return nil
	}

	byteSize := size * 4
	byteSlice := AllocAligned(byteSize)

	// Safe because AllocAligned guarantees 64-byte alignment, which is also
	// 4-byte aligned (required for float32).
	ptr := unsafe.Pointer(&byteSlice[0])       //nolint:gosec // unsafe is required for memory alignment
	return unsafe.Slice((*float32)(ptr), size) //nolint:gosec // unsafe is required for memory alignment
}

// AsBytes returns a byte view of a float32 slice without copying.
// The view uses host byte order; column files written and read through it
// are little-endian on the platforms featcache targets.
func AsBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	ptr := unsafe.Pointer(&f[0])                //nolint:gosec // zero-copy reinterpretation
	return unsafe.Slice((*byte)(ptr), len(f)*4) //nolint:gosec // zero-copy reinterpretation
}
