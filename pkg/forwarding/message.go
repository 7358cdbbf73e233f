// Package forwarding implements publish, ship (first-hop bucketing), and
// handle_publication transit logic.
//
// Grounded on broker::alm::peer's publish/ship/handle_publication
// (_examples/original_source/include/broker/alm/peer.hh).
package forwarding

import (
	"github.com/driftmesh/overlay/pkg/peerid"
	"github.com/driftmesh/overlay/pkg/topic"
)

// Kind distinguishes the two payload shapes a node message can carry.
type Kind int

const (
	// KindData marks a message destined for local workers / remote data
	// subscribers.
	KindData Kind = iota
	// KindCommand marks a message destined for local stores / remote
	// command subscribers.
	KindCommand
)

// String satisfies fmt.Stringer for logging.
func (k Kind) String() string {
	if k == KindCommand {
		return "command"
	}
	return "data"
}

// NodeMessage is the unit shipped between peers: a topic-addressed payload,
// its remaining time-to-live, and the set of peer ids still owed a copy.
type NodeMessage struct {
	Topic     topic.Topic
	Kind      Kind
	Payload   []byte
	TTL       uint16
	Receivers peerid.List
}

// Clone returns a deep-enough copy of msg suitable for mutating Receivers
// independently of the original (ship hands out one Receivers slice per
// bucket).
func (m NodeMessage) Clone() NodeMessage {
	out := m
	out.Receivers = m.Receivers.Clone()
	return out
}
