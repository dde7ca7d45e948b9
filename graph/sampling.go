package graph

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/model"
)

// SamplingResult is the multi-hop output of a neighbor sampler: one
// ordered, duplicate-free local-id list per layer, plus a settable feature
// frame per layer that the cache fills. Layer i's frame row j corresponds
// to LayerNodes(i)[j].
type SamplingResult struct {
	layers [][]core.LocalID
	frames []model.Frame
}

// NewSamplingResult validates the per-layer id lists and wraps them.
// Each layer must be duplicate-free; order is the caller's and is
// preserved through feature gathering.
func NewSamplingResult(layers ...[]core.LocalID) (*SamplingResult, error) {
	seen := roaring.New()
	for i, ids := range layers {
		seen.Clear()
		for _, id := range ids {
			if !seen.CheckedAdd(uint32(id)) {
				return nil, fmt.Errorf("layer %d: duplicate id %d", i, id)
			}
		}
	}
	return &SamplingResult{
		layers: layers,
		frames: make([]model.Frame, len(layers)),
	}, nil
}

// NumLayers returns the number of sampling hops.
func (sr *SamplingResult) NumLayers() int { return len(sr.layers) }

// LayerNodes returns layer i's requested local ids in request order.
// The slice aliases internal memory; do not modify.
func (sr *SamplingResult) LayerNodes(i int) []core.LocalID {
	return sr.layers[i]
}

// SetLayerFrame installs layer i's feature frame. Called by the cache once
// per layer per gather; a later gather replaces the frame wholesale, never
// mutates an installed one.
func (sr *SamplingResult) SetLayerFrame(i int, f model.Frame) {
	sr.frames[i] = f
}

// LayerFrame returns layer i's feature frame, or nil before the first
// gather.
func (sr *SamplingResult) LayerFrame(i int) model.Frame {
	return sr.frames[i]
}
