// Package multipath implements the recursive, sorted tree used to encode
// source-routed dissemination plans: a path is a node carrying a PeerId plus
// an ordered, duplicate-free sequence of child paths.
//
// Grounded on broker::alm::multipath (_examples/original_source/include/
// broker/alm/multipath.hh): same emplace/splice/equals shape, reimplemented
// with Go slices instead of a hand-rolled block-allocated array. Go slices
// of a self-referential struct are ordinary complete types, so the original
// C++ workaround for "vector of incomplete type" is unnecessary; the block-
// size-16 growth policy is kept anyway so the allocation behavior is the
// one the spec calls out, not an accident of append's own growth curve.
package multipath

import (
	"errors"

	"github.com/driftmesh/overlay/pkg/peerid"
)

// blockSize is the capacity increment used when a node's children slice
// needs to grow, matching the suggested block size from the source.
const blockSize = 16

// ErrEmptyPath is returned by FromLinear when given an empty sequence.
var ErrEmptyPath = errors.New("multipath: linear path must not be empty")

// Path is a node in a multipath tree: an id plus its children, strictly
// increasing by id.
type Path struct {
	id       peerid.ID
	children []Path
}

// New returns an empty (childless) tree rooted at id.
func New(id peerid.ID) Path {
	return Path{id: id}
}

// FromLinear builds a linear chain whose nodes are the elements of ids, in
// order. It fails only if ids is empty.
func FromLinear(ids []peerid.ID) (Path, error) {
	if len(ids) == 0 {
		return Path{}, ErrEmptyPath
	}
	root := Path{id: ids[0]}
	cur := &root
	for _, id := range ids[1:] {
		child, _ := cur.EmplaceChild(id)
		cur = child
	}
	return root, nil
}

// ID returns the peer id stored at this node.
func (p *Path) ID() peerid.ID {
	return p.id
}

// Children returns the node's children, sorted ascending by id. The
// returned slice must not be mutated by the caller.
func (p *Path) Children() []Path {
	return p.children
}

// EmplaceChild locates id among the node's children using ordered search.
// If absent, it inserts a new child in sorted position and returns
// (&child, true); if present, it returns (&existing, false).
func (p *Path) EmplaceChild(id peerid.ID) (*Path, bool) {
	lo, hi := 0, len(p.children)
	for lo < hi {
		mid := (lo + hi) / 2
		if p.children[mid].id.Less(id) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(p.children) && p.children[lo].id == id {
		return &p.children[lo], false
	}
	p.growIfNeeded()
	p.children = append(p.children, Path{})
	copy(p.children[lo+1:], p.children[lo:len(p.children)-1])
	p.children[lo] = Path{id: id}
	return &p.children[lo], true
}

// growIfNeeded reserves capacity for children in blockSize-sized blocks, so
// a node's children slice grows the way the source's hand-rolled array did.
func (p *Path) growIfNeeded() {
	if len(p.children) != cap(p.children) {
		return
	}
	grown := make([]Path, len(p.children), cap(p.children)+blockSize)
	copy(grown, p.children)
	p.children = grown
}

// Splice merges linear into the tree. If linear is empty, it is a no-op and
// returns true. The path's first element must equal this node's id;
// otherwise Splice returns false and leaves the tree unchanged. Subsequent
// elements descend the tree, creating children on demand.
func (p *Path) Splice(linear []peerid.ID) bool {
	if len(linear) == 0 {
		return true
	}
	if linear[0] != p.id {
		return false
	}
	cur := p
	for _, id := range linear[1:] {
		child, _ := cur.EmplaceChild(id)
		cur = child
	}
	return true
}

// Equals reports structural equality: same id and pairwise equal children
// in order.
func (p *Path) Equals(other *Path) bool {
	if p.id != other.id {
		return false
	}
	if len(p.children) != len(other.children) {
		return false
	}
	for i := range p.children {
		if !p.children[i].Equals(&other.children[i]) {
			return false
		}
	}
	return true
}
