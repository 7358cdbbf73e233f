package multipath

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/driftmesh/overlay/pkg/peerid"
)

// wireNode is the on-the-wire shape of a Path: the id followed by the
// children sequence. Children are elided from the encoding when empty, per
// spec.md §4.1/§6.
type wireNode struct {
	ID       peerid.ID  `cbor:"0,keyasint"`
	Children []wireNode `cbor:"1,keyasint,omitempty"`
}

func toWire(p *Path) wireNode {
	w := wireNode{ID: p.id}
	if len(p.children) > 0 {
		w.Children = make([]wireNode, len(p.children))
		for i := range p.children {
			w.Children[i] = toWire(&p.children[i])
		}
	}
	return w
}

func fromWire(w wireNode) Path {
	p := Path{id: w.ID}
	if len(w.Children) > 0 {
		p.children = make([]Path, len(w.Children))
		for i := range w.Children {
			p.children[i] = fromWire(w.Children[i])
		}
	}
	return p
}

// MarshalCBOR implements cbor.Marshaler, encoding the path as its id
// followed by the (possibly elided) children sequence.
func (p Path) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(toWire(&p))
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (p *Path) UnmarshalCBOR(data []byte) error {
	var w wireNode
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = fromWire(w)
	return nil
}
