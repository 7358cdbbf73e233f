// Package peerid defines the overlay's peer identifier type.
//
// A PeerId is opaque, totally-ordered and hashable. The transport assigns
// IDs when peers join the mesh; the routing core never generates one on its
// own and never interprets its contents beyond comparison.
package peerid

// ID is an opaque, totally-ordered identifier for a peer. The zero value is
// Nil and is distinguishable from any ID a transport would hand out.
type ID string

// Nil is the empty/invalid peer id.
const Nil ID = ""

// Valid reports whether id is something other than the empty/invalid id.
func (id ID) Valid() bool {
	return id != Nil
}

// Less reports whether id sorts strictly before other. Used for the
// lexicographically-smallest tie-break required by routing table lookups
// and multipath child ordering.
func (id ID) Less(other ID) bool {
	return id < other
}

// String returns id as a string, satisfying fmt.Stringer for logging.
func (id ID) String() string {
	return string(id)
}

// List is a slice of IDs, used for flooding paths and receiver sets.
type List []ID

// Contains reports whether list contains id.
func (list List) Contains(id ID) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy of list.
func (list List) Clone() List {
	out := make(List, len(list))
	copy(out, list)
	return out
}

// Remove returns a copy of list with every occurrence of id removed, and
// whether anything was removed.
func (list List) Remove(id ID) (List, bool) {
	out := make(List, 0, len(list))
	removed := false
	for _, x := range list {
		if x == id {
			removed = true
			continue
		}
		out = append(out, x)
	}
	return out, removed
}
