// Package routingtable implements routingtable.Table.
//
// An uncached DistanceTo is a full scan of every neighbor's distance map, so
// its results are memoized in a small LRU cache (grounded on
// blobcache-blobcache's use of hashicorp/golang-lru/v2 for bounded
// in-memory indices) and the cache is purged on every mutation that could
// change an answer. ShortestFirstHop, which ship's bucketing loop calls once
// per receiver, is not cached and scans every neighbor on each call.
package routingtable

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/driftmesh/overlay/pkg/peerid"
	"github.com/driftmesh/overlay/pkg/routingtable"
)

// distanceCacheSize bounds the memoized DistanceTo results kept per table.
const distanceCacheSize = 4096

// Table is the in-memory routingtable.Table implementation used by the
// overlay engine.
type Table struct {
	entries map[peerid.ID]routingtable.Entry
	cache   *lru.Cache[peerid.ID, distanceResult]
}

type distanceResult struct {
	distance int
	ok       bool
}

// New returns an empty routing table.
func New() *Table {
	cache, err := lru.New[peerid.ID, distanceResult](distanceCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// distanceCacheSize never is.
		panic(err)
	}
	return &Table{
		entries: make(map[peerid.ID]routingtable.Entry),
		cache:   cache,
	}
}

var _ routingtable.Table = (*Table)(nil)

func (t *Table) Put(id peerid.ID, handle routingtable.Handle) {
	t.entries[id] = routingtable.Entry{
		Handle:    handle,
		Distances: make(map[peerid.ID]int),
	}
	t.cache.Purge()
}

func (t *Table) Rebind(id peerid.ID, handle routingtable.Handle) bool {
	entry, ok := t.entries[id]
	if !ok {
		return false
	}
	entry.Handle = handle
	t.entries[id] = entry
	return true
}

func (t *Table) Remove(id peerid.ID) (routingtable.Entry, bool) {
	entry, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
		t.cache.Purge()
	}
	return entry, ok
}

func (t *Table) Entry(id peerid.ID) (routingtable.Entry, bool) {
	entry, ok := t.entries[id]
	return entry, ok
}

func (t *Table) Neighbors() []peerid.ID {
	out := make([]peerid.ID, 0, len(t.entries))
	for id := range t.entries {
		out = append(out, id)
	}
	return out
}

func (t *Table) RecordDistance(lastHop, origin peerid.ID, distance int) {
	entry, ok := t.entries[lastHop]
	if !ok {
		return
	}
	if cur, exists := entry.Distances[origin]; !exists || distance < cur {
		entry.Distances[origin] = distance
		t.cache.Purge()
	}
}

func (t *Table) DistanceTo(target peerid.ID) (int, bool) {
	if _, direct := t.entries[target]; direct {
		return 1, true
	}
	if cached, ok := t.cache.Get(target); ok {
		return cached.distance, cached.ok
	}
	best := -1
	for _, entry := range t.entries {
		if d, ok := entry.Distances[target]; ok {
			if best == -1 || d < best {
				best = d
			}
		}
	}
	result := distanceResult{distance: best, ok: best != -1}
	t.cache.Add(target, result)
	return result.distance, result.ok
}

func (t *Table) ShortestFirstHop(target peerid.ID) (peerid.ID, routingtable.Handle, bool) {
	if entry, direct := t.entries[target]; direct {
		return target, entry.Handle, true
	}
	var bestHop peerid.ID
	var bestHandle routingtable.Handle
	bestDistance := -1
	found := false
	for id, entry := range t.entries {
		d, ok := entry.Distances[target]
		if !ok {
			continue
		}
		if !found || d < bestDistance || (d == bestDistance && id.Less(bestHop)) {
			bestHop, bestHandle, bestDistance, found = id, entry.Handle, d, true
		}
	}
	return bestHop, bestHandle, found
}
