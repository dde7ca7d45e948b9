package featcache

import (
	"github.com/hupe1980/featcache/model"
)

// DeviceCache holds the device-resident feature rows: one dense row-major
// matrix per field, indexed by cache slot. Slot i across every field
// belongs to the same node, so a full row is reassembled by reading slot i
// from each matrix.
type DeviceCache struct {
	schema *model.Schema
	bufs   model.Frame
	rows   int
}

// NewDeviceCache creates an empty device cache for the given schema.
func NewDeviceCache(schema *model.Schema) *DeviceCache {
	return &DeviceCache{schema: schema}
}

// Populate installs the fetched rows as the cache contents. rows is the
// number of selected nodes; data must hold exactly one matrix per schema
// field, each rows x Dim(field). The matrices are adopted, not copied.
func (d *DeviceCache) Populate(rows int, data model.Frame) error {
	for _, name := range d.schema.Fields() {
		m, ok := data[name]
		if !ok {
			return &ErrInvalidField{Field: name}
		}
		dim, _ := d.schema.Dim(name)
		if m.Dim() != dim {
			return &ErrDimensionMismatch{Field: name, Expected: dim, Actual: m.Dim()}
		}
		if m.Rows() != rows {
			return &ErrDimensionMismatch{Field: name, Expected: rows, Actual: m.Rows()}
		}
	}
	d.bufs = data
	d.rows = rows
	return nil
}

// Row returns the cached row of a field at the given slot. The slice
// aliases cache memory; do not modify.
func (d *DeviceCache) Row(name model.FieldName, slot int32) []float32 {
	return d.bufs[name].Row(int(slot))
}

// Rows returns the number of cached node rows.
func (d *DeviceCache) Rows() int { return d.rows }

// SizeBytes returns the device memory held by the cache buffers.
func (d *DeviceCache) SizeBytes() int64 {
	return int64(d.rows) * int64(d.schema.TotalDim()) * bytesPerElement
}

// Clear drops the cache contents.
func (d *DeviceCache) Clear() {
	d.bufs = nil
	d.rows = 0
}
