package featcache

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/featstore"
	"github.com/hupe1980/featcache/graph"
	"github.com/hupe1980/featcache/model"
)

// remoteFetcher pulls feature rows for host-resident nodes from the
// backing store, translating local ids to global ids and validating the
// returned shapes against the probed schema.
type remoteFetcher struct {
	store   featstore.Store
	part    *graph.Partition
	schema  *model.Schema
	limiter *rate.Limiter
}

func newRemoteFetcher(store featstore.Store, part *graph.Partition, schema *model.Schema, limiter *rate.Limiter) *remoteFetcher {
	return &remoteFetcher{store: store, part: part, schema: schema, limiter: limiter}
}

// fetch retrieves the schema fields for the given local ids, in id order.
func (f *remoteFetcher) fetch(ctx context.Context, ids []core.LocalID) (model.Frame, error) {
	n := f.part.NumNodes()
	globals := make([]core.GlobalID, len(ids))
	for i, id := range ids {
		if int(id) >= n {
			return nil, &ErrIndexOutOfRange{ID: id, Limit: n}
		}
		globals[i] = f.part.Global(id)
	}

	if err := f.wait(ctx, len(ids)); err != nil {
		return nil, err
	}

	frame, err := f.store.Fetch(ctx, globals, f.schema.Fields())
	if err != nil {
		return nil, translateStoreError(err)
	}

	for _, name := range f.schema.Fields() {
		m, ok := frame[name]
		if !ok {
			return nil, &ErrInvalidField{Field: name}
		}
		dim, _ := f.schema.Dim(name)
		if m.Dim() != dim {
			return nil, &ErrDimensionMismatch{Field: name, Expected: dim, Actual: m.Dim()}
		}
		if m.Rows() != len(ids) {
			return nil, &ErrDimensionMismatch{Field: name, Expected: len(ids), Actual: m.Rows()}
		}
	}
	return frame, nil
}

// fetchInto retrieves rows for ids and scatters them into dst at the given
// row positions, one position per id.
func (f *remoteFetcher) fetchInto(ctx context.Context, ids []core.LocalID, positions []int, dst model.Frame) error {
	frame, err := f.fetch(ctx, ids)
	if err != nil {
		return err
	}
	for name, src := range frame {
		out := dst[name]
		for i, pos := range positions {
			out.SetRow(pos, src.Row(i))
		}
	}
	return nil
}

// wait applies the configured fetch rate limit, counting one token per
// requested row. Bursts larger than the limiter allows are clamped so a
// big batch does not deadlock.
func (f *remoteFetcher) wait(ctx context.Context, rows int) error {
	if f.limiter == nil {
		return nil
	}
	if burst := f.limiter.Burst(); rows > burst {
		rows = burst
	}
	return f.limiter.WaitN(ctx, rows)
}
