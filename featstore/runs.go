package featstore

import (
	"github.com/hupe1980/featcache/core"
)

// Run is a maximal run of consecutive global ids within a fetch request.
// Pos is the request position of the run's first id, so backends can place
// one contiguous read directly into output rows [Pos, Pos+Count).
type Run struct {
	Start core.GlobalID
	Pos   int
	Count int
}

// CoalesceRuns groups a request's ids into runs of consecutive ids.
// Sampling batches are often locality-heavy (neighbors get renumbered into
// adjacent ids), so coalescing turns many row reads into few range reads.
// Request order is preserved: runs are emitted in request order and never
// reorder rows.
func CoalesceRuns(ids []core.GlobalID) []Run {
	if len(ids) == 0 {
		return nil
	}

	runs := make([]Run, 0, len(ids)/4+1)
	cur := Run{Start: ids[0], Pos: 0, Count: 1}

	for i := 1; i < len(ids); i++ {
		if ids[i] == cur.Start+core.GlobalID(cur.Count) {
			cur.Count++
			continue
		}
		runs = append(runs, cur)
		cur = Run{Start: ids[i], Pos: i, Count: 1}
	}
	return append(runs, cur)
}
