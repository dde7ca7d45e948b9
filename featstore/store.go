package featstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/model"
)

var (
	// ErrUnknownField is returned when a requested field is not served by
	// the store.
	//
	// Implementations should return an error that satisfies
	// `errors.Is(err, ErrUnknownField)`.
	ErrUnknownField = errors.New("unknown field")

	// ErrOutOfRange is returned when a requested global id is outside the
	// store's node range.
	ErrOutOfRange = errors.New("node id out of range")
)

// Store is the read boundary to host-resident feature data. It owns the
// authoritative copy of every node's features; the device cache holds a
// subset and falls back to the store for the rest.
type Store interface {
	// Fetch returns, per requested field, a matrix whose row i holds the
	// features of ids[i]. Row order follows id order; ids are not sorted
	// or deduplicated by the store.
	Fetch(ctx context.Context, ids []core.GlobalID, fields []model.FieldName) (model.Frame, error)
}

// unknownFieldError wraps ErrUnknownField with the offending field name.
func unknownFieldError(name model.FieldName) error {
	return fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// outOfRangeError wraps ErrOutOfRange with the offending id and limit.
func outOfRangeError(id core.GlobalID, limit int) error {
	return fmt.Errorf("%w: id %d, store holds %d nodes", ErrOutOfRange, id, limit)
}
