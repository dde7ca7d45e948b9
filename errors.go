package featcache

import (
	"errors"
	"fmt"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/featstore"
	"github.com/hupe1980/featcache/model"
)

var (
	// ErrNotInitialized is returned when AutoCache or Fetch is called
	// before InitFields has probed the field schema.
	ErrNotInitialized = errors.New("fields not initialized")

	// ErrCapacityExhausted signals that the capacity estimate left no room
	// for cached rows. It is an expected outcome, not a failure: AutoCache
	// handles it by leaving every node host-resident.
	ErrCapacityExhausted = errors.New("no device capacity for feature rows")
)

// ErrInvalidField indicates a field name the store or the cache schema
// does not recognize.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidField struct {
	Field model.FieldName
	cause error
}

func (e *ErrInvalidField) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid field %q", e.Field)
	}
	return "invalid field"
}

func (e *ErrInvalidField) Unwrap() error { return e.cause }

// ErrDimensionMismatch indicates that fetched or placed data disagrees
// with the schema's row shape: either the row count does not match the
// requested id count, or a field's width does not match its probed
// dimension.
type ErrDimensionMismatch struct {
	Field    model.FieldName
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("field %q: dimension mismatch: expected %d, got %d", e.Field, e.Expected, e.Actual)
}

// ErrIndexOutOfRange indicates a local id outside the partition.
type ErrIndexOutOfRange struct {
	ID    core.LocalID
	Limit int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("local id %d out of range, partition holds %d nodes", e.ID, e.Limit)
}

// translateStoreError maps store-layer sentinels onto the cache's public
// error contract.
func translateStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, featstore.ErrUnknownField) {
		return &ErrInvalidField{cause: err}
	}
	return err
}
