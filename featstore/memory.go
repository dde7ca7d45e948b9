package featstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/model"
)

// MemoryStore is an in-memory Store implementation. It holds one dense
// column matrix per field over a contiguous global id range [0, numNodes).
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu       sync.RWMutex
	schema   *model.Schema
	numNodes int
	columns  map[model.FieldName]*model.Matrix
}

// NewMemoryStore creates a MemoryStore serving numNodes nodes with the
// given schema. All features start zeroed.
func NewMemoryStore(schema *model.Schema, numNodes int) *MemoryStore {
	columns := make(map[model.FieldName]*model.Matrix, schema.Len())
	for _, spec := range schema.Specs() {
		columns[spec.Name] = model.NewMatrix(numNodes, spec.Dim)
	}
	return &MemoryStore{
		schema:   schema,
		numNodes: numNodes,
		columns:  columns,
	}
}

// Schema returns the store's field schema.
func (m *MemoryStore) Schema() *model.Schema { return m.schema }

// NumNodes returns the number of nodes the store serves.
func (m *MemoryStore) NumNodes() int { return m.numNodes }

// SetRow writes the feature row of node id for the given field.
func (m *MemoryStore) SetRow(field model.FieldName, id core.GlobalID, v []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.columns[field]
	if !ok {
		return unknownFieldError(field)
	}
	if int(id) >= m.numNodes {
		return outOfRangeError(id, m.numNodes)
	}
	if len(v) != col.Dim() {
		return fmt.Errorf("field %q: row length %d, want %d", field, len(v), col.Dim())
	}
	col.SetRow(int(id), v)
	return nil
}

// SetColumn replaces the full column matrix of a field. rows must equal
// the store's node count.
func (m *MemoryStore) SetColumn(field model.FieldName, col *model.Matrix) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.columns[field]
	if !ok {
		return unknownFieldError(field)
	}
	if col.Rows() != m.numNodes || col.Dim() != existing.Dim() {
		return fmt.Errorf("field %q: column shape %dx%d, want %dx%d",
			field, col.Rows(), col.Dim(), m.numNodes, existing.Dim())
	}
	m.columns[field] = col
	return nil
}

// Fetch implements Store. Output row i corresponds to ids[i].
func (m *MemoryStore) Fetch(_ context.Context, ids []core.GlobalID, fields []model.FieldName) (model.Frame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	frame := make(model.Frame, len(fields))
	for _, field := range fields {
		col, ok := m.columns[field]
		if !ok {
			return nil, unknownFieldError(field)
		}

		out := model.NewMatrix(len(ids), col.Dim())
		for i, id := range ids {
			if int(id) >= m.numNodes {
				return nil, outOfRangeError(id, m.numNodes)
			}
			out.SetRow(i, col.Row(int(id)))
		}
		frame[field] = out
	}
	return frame, nil
}

var _ Store = (*MemoryStore)(nil)
