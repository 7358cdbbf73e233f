// Package filterprop implements subscription flooding: the local
// subscribe() call, the remote handle_filter_update() handler, and the
// per-origin logical-clock bookkeeping that makes the flood idempotent.
//
// Grounded on broker::alm::peer's subscribe/handle_filter_update
// (_examples/original_source/include/broker/alm/peer.hh).
package filterprop

import (
	"github.com/driftmesh/overlay/pkg/peerid"
	"github.com/driftmesh/overlay/pkg/routingtable"
	"github.com/driftmesh/overlay/pkg/topic"
)

const maxDistance = 65535

// Sender is the callback surface filterprop needs from the transport:
// addressing a direct neighbor by its routing table handle.
type Sender interface {
	SendSubscribe(handle routingtable.Handle, path peerid.List, filter topic.Filter, timestamp uint64)
}

// State holds a node's local filter, the filters and logical timestamps it
// has accepted from other reachable peers, and its logical clock.
type State struct {
	selfID peerid.ID
	tbl    routingtable.Table

	filter         topic.Filter
	peerFilters    map[peerid.ID]topic.Filter
	peerTimestamps map[peerid.ID]uint64
	timestamp      uint64
	ttl            uint16
}

// New returns an empty subscription state for the node identified by
// selfID, backed by tbl for distance/neighbor lookups.
func New(selfID peerid.ID, tbl routingtable.Table) *State {
	return &State{
		selfID:         selfID,
		tbl:            tbl,
		peerFilters:    make(map[peerid.ID]topic.Filter),
		peerTimestamps: make(map[peerid.ID]uint64),
	}
}

// Filter returns the node's own local subscription filter.
func (s *State) Filter() topic.Filter {
	return s.filter
}

// PeerFilter returns the filter last accepted for peer id, or an empty
// filter if none is known.
func (s *State) PeerFilter(id peerid.ID) topic.Filter {
	if f, ok := s.peerFilters[id]; ok {
		return f
	}
	return topic.Filter{}
}

// PeerFilters returns every known peer's filter, keyed by peer id. The
// caller must not mutate the returned map.
func (s *State) PeerFilters() map[peerid.ID]topic.Filter {
	return s.peerFilters
}

// DirectPeerSubscriptions returns the union of filters of direct peers
// only (see SPEC_FULL.md §10.1): kept for callers that predate ALM-style
// routing and only care about one-hop subscribers.
func (s *State) DirectPeerSubscriptions() topic.Filter {
	var result topic.Filter
	for id, f := range s.peerFilters {
		if _, direct := s.tbl.Entry(id); direct {
			result.Extend(f, nil)
		}
	}
	return result
}

// TTL returns the maximum distance observed so far, used as the default
// TTL stamped on outgoing messages.
func (s *State) TTL() uint16 {
	return s.ttl
}

// Timestamp returns the node's current logical clock value.
func (s *State) Timestamp() uint64 {
	return s.timestamp
}

// Receivers returns every known peer (direct or indirect) whose filter
// matches t.
func (s *State) Receivers(t topic.Topic) []peerid.ID {
	var out []peerid.ID
	for id, f := range s.peerFilters {
		if f.Matches(t) {
			out = append(out, id)
		}
	}
	return out
}

// Subscribe extends the local filter with newFilter restricted to
// non-internal topics. If the filter changed, it bumps the logical clock
// and floods the update to every direct neighbor (spec.md §4.3).
func (s *State) Subscribe(sender Sender, newFilter topic.Filter) {
	notInternal := func(t topic.Topic) bool { return !t.IsInternal() }
	if !s.filter.Extend(newFilter, notInternal) {
		return
	}
	s.timestamp++
	path := peerid.List{s.selfID}
	for _, id := range s.tbl.Neighbors() {
		entry, _ := s.tbl.Entry(id)
		sender.SendSubscribe(entry.Handle, path, s.filter, s.timestamp)
	}
}

// HandleFilterUpdate processes a remote subscription flood update,
// following spec.md §4.3 steps 1-8. It returns one of the sentinel errors
// above when the update is rejected; a nil error means the update was
// accepted and forwarded to every direct neighbor not already on the path;
// its filter is stored only if its timestamp is newer than the one held for
// the origin.
func (s *State) HandleFilterUpdate(sender Sender, path peerid.List, filter topic.Filter, timestamp uint64) error {
	if len(path) == 0 || filter.Empty() {
		return ErrMalformed
	}
	origin := path[0]
	lastHop := path[len(path)-1]
	if _, ok := s.tbl.Entry(lastHop); !ok {
		return ErrUnrecognizedSender
	}
	if path.Contains(s.selfID) {
		return ErrLoop
	}
	distance := len(path)
	if distance > maxDistance {
		return ErrDistanceOverflow
	}
	if uint16(distance) > s.ttl {
		s.ttl = uint16(distance)
	}
	if distance > 1 {
		s.tbl.RecordDistance(lastHop, origin, distance)
	}
	forwardPath := append(path.Clone(), s.selfID)
	for _, id := range s.tbl.Neighbors() {
		if forwardPath.Contains(id) {
			continue
		}
		entry, _ := s.tbl.Entry(id)
		sender.SendSubscribe(entry.Handle, forwardPath, filter, timestamp)
	}
	if timestamp > s.peerTimestamps[origin] {
		s.peerFilters[origin] = filter.Clone()
		s.peerTimestamps[origin] = timestamp
	}
	return nil
}

// ForgetIfUnreachable drops the stored filter for id once it is no longer
// reachable through any neighbor, called during peer removal sweeps
// (spec.md §3 Lifecycle, §4.5 peer_removed).
func (s *State) ForgetIfUnreachable(id peerid.ID) {
	if _, ok := s.tbl.DistanceTo(id); !ok {
		delete(s.peerFilters, id)
	}
}

// PeerTimestamp returns the logical timestamp last accepted for origin.
func (s *State) PeerTimestamp(origin peerid.ID) uint64 {
	return s.peerTimestamps[origin]
}
