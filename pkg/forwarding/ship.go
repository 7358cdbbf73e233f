package forwarding

import (
	"sort"

	"github.com/driftmesh/overlay/pkg/peerid"
	"github.com/driftmesh/overlay/pkg/routingtable"
	"github.com/driftmesh/overlay/pkg/topic"
)

// Sender is the callback surface forwarding needs from the transport: hand a
// node message to a direct neighbor's communication handle.
type Sender interface {
	SendPublish(handle routingtable.Handle, msg NodeMessage)
}

// Subscriptions resolves which known peers want a given topic, independent
// of whether they are direct or indirect neighbors. *filterprop.State
// satisfies this.
type Subscriptions interface {
	Receivers(t topic.Topic) []peerid.ID
}

// Deliverer is the local delivery hook handle_publication calls into when
// self is among a message's receivers.
type Deliverer interface {
	DeliverLocally(msg NodeMessage)
}

// Publish implements spec.md §4.4 publish(content): resolve receivers from
// subs, and if any exist, ship a node message stamped with ttl. It reports
// whether anything was shipped.
func Publish(subs Subscriptions, sender Sender, tbl routingtable.Table, t topic.Topic, kind Kind, payload []byte, ttl uint16) bool {
	receivers := subs.Receivers(t)
	if len(receivers) == 0 {
		return false
	}
	msg := NodeMessage{
		Topic:     t,
		Kind:      kind,
		Payload:   payload,
		TTL:       ttl,
		Receivers: peerid.List(receivers),
	}
	Ship(sender, tbl, msg)
	return true
}

type bucket struct {
	handle    routingtable.Handle
	receivers peerid.List
}

// Ship implements spec.md §4.4's bucketing algorithm: one bucket per direct
// neighbor, each receiver routed to the bucket for its first hop, one copy
// of msg emitted per non-empty bucket. Receivers with no known path are
// dropped (spec.md §4.6 "No path to receiver during forwarding").
func Ship(sender Sender, tbl routingtable.Table, msg NodeMessage) {
	neighbors := tbl.Neighbors()
	buckets := make(map[peerid.ID]*bucket, len(neighbors))
	for _, n := range neighbors {
		entry, _ := tbl.Entry(n)
		buckets[n] = &bucket{handle: entry.Handle}
	}
	for _, r := range msg.Receivers {
		if b, direct := buckets[r]; direct {
			b.receivers = append(b.receivers, r)
			continue
		}
		hop, _, ok := tbl.ShortestFirstHop(r)
		if !ok {
			continue
		}
		buckets[hop].receivers = append(buckets[hop].receivers, r)
	}
	for _, id := range sortedKeys(buckets) {
		b := buckets[id]
		if len(b.receivers) == 0 {
			continue
		}
		out := msg.Clone()
		out.Receivers = b.receivers
		sender.SendPublish(b.handle, out)
	}
}

// ShipDirect implements the direct-send shortcut: a single-receiver node
// message sent straight to receiver's handle if it is a direct neighbor,
// otherwise to the tie-broken first hop toward it.
func ShipDirect(sender Sender, tbl routingtable.Table, msg NodeMessage, receiver peerid.ID) bool {
	out := msg.Clone()
	out.Receivers = peerid.List{receiver}
	hop, handle, ok := tbl.ShortestFirstHop(receiver)
	if !ok {
		return false
	}
	_ = hop
	sender.SendPublish(handle, out)
	return true
}

// HandlePublication implements spec.md §4.4's handle_publication transit
// logic: decrement TTL, deliver locally if self is a receiver, then re-ship
// any remaining receivers unless TTL has expired.
func HandlePublication(deliverer Deliverer, sender Sender, tbl routingtable.Table, selfID peerid.ID, msg NodeMessage) {
	if msg.TTL == 0 {
		return
	}
	msg.TTL--
	remaining, delivered := msg.Receivers.Remove(selfID)
	msg.Receivers = remaining
	if delivered {
		local := msg
		local.Receivers = peerid.List{selfID}
		deliverer.DeliverLocally(local)
	}
	if len(msg.Receivers) == 0 {
		return
	}
	if msg.TTL == 0 {
		return
	}
	Ship(sender, tbl, msg)
}

func sortedKeys(buckets map[peerid.ID]*bucket) []peerid.ID {
	out := make([]peerid.ID, 0, len(buckets))
	for id := range buckets {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
