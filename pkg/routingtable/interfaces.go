// Package routingtable defines the overlay's view of directly connected
// neighbors, the indirect distances they advertise, and the deterministic
// distance/first-hop queries the forwarding engine depends on.
//
// Grounded on broker::alm::peer's tbl_ member and distance_to/ship's
// bucket-selection loop (_examples/original_source/include/broker/alm/
// peer.hh).
package routingtable

import "github.com/driftmesh/overlay/pkg/peerid"

// Handle is the opaque token the transport uses to address a neighbor. The
// routing core never inspects it beyond identity and the debug string it
// provides.
type Handle interface {
	String() string
}

// Entry is a direct neighbor's routing table entry: its communication
// handle plus the indirect distances (path length >= 2) it has advertised
// to other peers.
type Entry struct {
	Handle    Handle
	Distances map[peerid.ID]int
}

// Table manages routing table entries for a single node's direct
// neighbors and answers distance/first-hop queries over them.
//
// Table implementations are not safe for concurrent use; the overlay engine
// that owns a Table mutates it only from its single actor loop.
type Table interface {
	// Put creates (or replaces) the entry for a direct neighbor. The
	// overlay engine calls this when it handles a peer-connected event.
	Put(id peerid.ID, handle Handle)

	// Rebind swaps the handle associated with an existing direct neighbor
	// without disturbing its accumulated distances, for transports that
	// rebind a stream without a fresh connect/disconnect pair.
	Rebind(id peerid.ID, handle Handle) bool

	// Remove deletes the entry for a direct neighbor, returning it if it
	// existed.
	Remove(id peerid.ID) (Entry, bool)

	// Entry returns the entry for a direct neighbor, if any.
	Entry(id peerid.ID) (Entry, bool)

	// Neighbors returns the ids of all direct neighbors.
	Neighbors() []peerid.ID

	// RecordDistance improves (or inserts) the indirect distance from
	// lastHop to origin, keeping the minimum observed value.
	RecordDistance(lastHop, origin peerid.ID, distance int)

	// DistanceTo returns the shortest known distance to target: 1 if
	// target is a direct neighbor, otherwise the minimum indirect distance
	// recorded by any neighbor, or ok=false if target is unreachable.
	DistanceTo(target peerid.ID) (distance int, ok bool)

	// ShortestFirstHop returns the direct neighbor to forward through to
	// reach target along the shortest known path, tie-broken by the
	// lexicographically smallest neighbor id. ok is false if target is
	// unreachable.
	ShortestFirstHop(target peerid.ID) (hop peerid.ID, handle Handle, ok bool)
}
