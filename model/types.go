package model

import (
	"errors"
	"fmt"
)

// FieldName is the name of a per-node feature channel (e.g. "features", "norm").
type FieldName string

// FieldSpec describes one feature channel: its name and its fixed per-node
// vector dimension.
type FieldSpec struct {
	Name FieldName
	Dim  int
}

// ErrEmptySchema is returned when a schema is built with no fields.
var ErrEmptySchema = errors.New("schema has no fields")

// Schema is the closed set of feature fields a cache serves. It is decided
// once, when field dimensions are probed from the store, and is immutable
// thereafter. Field order is fixed at construction so that iteration is
// deterministic.
type Schema struct {
	specs    []FieldSpec
	dims     map[FieldName]int
	totalDim int
}

// NewSchema creates a Schema from the given field specs.
// It rejects empty schemas, duplicate names and non-positive dimensions.
func NewSchema(specs ...FieldSpec) (*Schema, error) {
	if len(specs) == 0 {
		return nil, ErrEmptySchema
	}

	dims := make(map[FieldName]int, len(specs))
	totalDim := 0

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("field name must not be empty")
		}
		if spec.Dim <= 0 {
			return nil, fmt.Errorf("field %q: dimension must be positive, got %d", spec.Name, spec.Dim)
		}
		if _, ok := dims[spec.Name]; ok {
			return nil, fmt.Errorf("duplicate field %q", spec.Name)
		}
		dims[spec.Name] = spec.Dim
		totalDim += spec.Dim
	}

	return &Schema{
		specs:    append([]FieldSpec(nil), specs...),
		dims:     dims,
		totalDim: totalDim,
	}, nil
}

// Dim returns the per-node vector dimension of the given field.
func (s *Schema) Dim(name FieldName) (int, bool) {
	d, ok := s.dims[name]
	return d, ok
}

// Has returns true if the field is part of the schema.
func (s *Schema) Has(name FieldName) bool {
	_, ok := s.dims[name]
	return ok
}

// Fields returns the field names in schema order.
func (s *Schema) Fields() []FieldName {
	names := make([]FieldName, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}

// Specs returns a copy of the field specs in schema order.
func (s *Schema) Specs() []FieldSpec {
	return append([]FieldSpec(nil), s.specs...)
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.specs)
}

// TotalDim is the sum of all field dimensions. Together with the element
// size it determines the per-node memory footprint of a full feature row.
func (s *Schema) TotalDim() int {
	return s.totalDim
}
