package model

import (
	"fmt"

	"github.com/hupe1980/featcache/internal/mem"
)

// Matrix is a dense row-major float32 matrix. Rows are stored contiguously
// in a single slice for cache locality, the same layout device feature
// buffers use, so rows can be copied between matrices without reshaping.
type Matrix struct {
	rows int
	dim  int
	data []float32
}

// NewMatrix allocates a zeroed rows x dim matrix backed by 64-byte-aligned
// memory.
func NewMatrix(rows, dim int) *Matrix {
	return &Matrix{
		rows: rows,
		dim:  dim,
		data: mem.AllocAlignedFloat32(rows * dim),
	}
}

// MatrixFromSlice wraps an existing flat slice as a rows x dim matrix.
// The slice is used directly, not copied.
func MatrixFromSlice(rows, dim int, data []float32) (*Matrix, error) {
	if len(data) != rows*dim {
		return nil, fmt.Errorf("matrix data length %d does not match %dx%d", len(data), rows, dim)
	}
	return &Matrix{rows: rows, dim: dim, data: data}, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Dim returns the row width.
func (m *Matrix) Dim() int { return m.dim }

// Row returns row i. The returned slice aliases internal memory; writes
// through it are visible to other readers of the matrix.
func (m *Matrix) Row(i int) []float32 {
	start := i * m.dim
	end := start + m.dim
	return m.data[start:end:end]
}

// SetRow copies v into row i. v must have length Dim.
func (m *Matrix) SetRow(i int, v []float32) {
	copy(m.Row(i), v)
}

// Data returns the backing slice. The slice aliases internal memory;
// do not resize.
func (m *Matrix) Data() []float32 { return m.data }

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.rows, m.dim)
	copy(c.data, m.data)
	return c
}

// Frame maps field names to per-field matrices holding one row per
// requested node, in request order. A frame produced by a gather keeps the
// same buffer identity for its entire lifetime: rows are filled in place
// and never reallocated, so consumers may retain row references.
type Frame map[FieldName]*Matrix

// Rows returns the common row count of the frame's matrices, or an error
// if they disagree.
func (f Frame) Rows() (int, error) {
	rows := -1
	for name, m := range f {
		if rows == -1 {
			rows = m.Rows()
			continue
		}
		if m.Rows() != rows {
			return 0, fmt.Errorf("frame field %q has %d rows, want %d", name, m.Rows(), rows)
		}
	}
	if rows == -1 {
		rows = 0
	}
	return rows, nil
}
