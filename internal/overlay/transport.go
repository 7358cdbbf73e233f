// Package overlay wires multipath, routingtable, filterprop, forwarding
// and distribution into a single-actor engine, the Go rewrite of
// broker::alm::peer's CRTP base (spec.md §9 DESIGN NOTES:
// "Curiously-recurring polymorphism in the source ... should be modeled as
// a trait or interface parameter, not by inheritance").
package overlay

import (
	"github.com/driftmesh/overlay/pkg/forwarding"
	"github.com/driftmesh/overlay/pkg/peerid"
	"github.com/driftmesh/overlay/pkg/routingtable"
	"github.com/driftmesh/overlay/pkg/topic"
)

// Transport is the engine's sole dependency on the outside world: it knows
// how to address a direct neighbor's handle and hand it bytes. It replaces
// peer.hh's Derived template parameter and its `send`/`id` customization
// points.
type Transport interface {
	// ID returns this node's own peer id, supplied by the transport rather
	// than generated by the core (spec.md §3).
	ID() peerid.ID
	// SendSubscribe ships a subscription-flood update to a direct neighbor.
	SendSubscribe(handle routingtable.Handle, path peerid.List, filter topic.Filter, timestamp uint64)
	// SendPublish ships a node message to a direct neighbor.
	SendPublish(handle routingtable.Handle, msg forwarding.NodeMessage)
	// Reconnect attempts to re-establish a connection to id after a
	// scheduled retry delay (SPEC_FULL.md §10.4).
	Reconnect(id peerid.ID, handle routingtable.Handle) error
}

// transportSender adapts a Transport to forwarding.Sender and
// filterprop.Sender without the Engine itself needing to implement either
// method set directly (avoids exporting Engine.SendSubscribe/SendPublish as
// part of its own API).
type transportSender struct {
	t Transport
}

func (s transportSender) SendSubscribe(handle routingtable.Handle, path peerid.List, filter topic.Filter, timestamp uint64) {
	s.t.SendSubscribe(handle, path, filter, timestamp)
}

func (s transportSender) SendPublish(handle routingtable.Handle, msg forwarding.NodeMessage) {
	s.t.SendPublish(handle, msg)
}
