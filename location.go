package featcache

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/featcache/core"
)

// LocationIndex tracks, for every local node, whether its feature row lives
// in device memory and, if so, which cache slot holds it. Device and host
// membership are complementary: every id is in exactly one of the two sets
// at all times.
type LocationIndex struct {
	n      int
	device *roaring.Bitmap
	host   *roaring.Bitmap
	slot   []int32
}

const noSlot = int32(-1)

// NewLocationIndex creates an index over n local ids, all host-resident.
func NewLocationIndex(n int) *LocationIndex {
	host := roaring.New()
	if n > 0 {
		host.AddRange(0, uint64(n))
	}
	slot := make([]int32, n)
	for i := range slot {
		slot[i] = noSlot
	}
	return &LocationIndex{
		n:      n,
		device: roaring.New(),
		host:   host,
		slot:   slot,
	}
}

// MarkCached records that ids[i] now occupies device slot i. Any previous
// placement is discarded first, so repopulating with a different selection
// leaves no stale slots behind.
func (l *LocationIndex) MarkCached(ids []core.LocalID) {
	l.Reset()
	for i, id := range ids {
		l.device.Add(uint32(id))
		l.host.Remove(uint32(id))
		l.slot[id] = int32(i)
	}
}

// Reset returns every id to host residency.
func (l *LocationIndex) Reset() {
	l.device.Clear()
	l.host.Clear()
	if l.n > 0 {
		l.host.AddRange(0, uint64(l.n))
	}
	for i := range l.slot {
		l.slot[i] = noSlot
	}
}

// OnDevice reports whether id's feature row is cached in device memory.
func (l *LocationIndex) OnDevice(id core.LocalID) bool {
	return l.device.Contains(uint32(id))
}

// OnHost reports whether id's feature row must be fetched from the host
// store.
func (l *LocationIndex) OnHost(id core.LocalID) bool {
	return l.host.Contains(uint32(id))
}

// Slot returns the device cache slot of id. Only meaningful when
// OnDevice(id) is true; otherwise it returns -1.
func (l *LocationIndex) Slot(id core.LocalID) int32 {
	return l.slot[id]
}

// CachedCount returns the number of device-resident ids.
func (l *LocationIndex) CachedCount() int {
	return int(l.device.GetCardinality())
}

// Len returns the number of local ids the index covers.
func (l *LocationIndex) Len() int { return l.n }
