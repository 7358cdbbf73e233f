package forwarding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftmesh/overlay/internal/routingtable"
	"github.com/driftmesh/overlay/pkg/peerid"
	routingtablepkg "github.com/driftmesh/overlay/pkg/routingtable"
	"github.com/driftmesh/overlay/pkg/topic"
)

type stubHandle string

func (h stubHandle) String() string { return string(h) }

type recordingSender struct {
	sent []sent
}

type sent struct {
	handle routingtablepkg.Handle
	msg    NodeMessage
}

func (s *recordingSender) SendPublish(handle routingtablepkg.Handle, msg NodeMessage) {
	s.sent = append(s.sent, sent{handle, msg})
}

type stubSubs map[topic.Topic][]peerid.ID

func (s stubSubs) Receivers(t topic.Topic) []peerid.ID { return s[t] }

type recordingDeliverer struct {
	delivered []NodeMessage
}

func (d *recordingDeliverer) DeliverLocally(msg NodeMessage) {
	d.delivered = append(d.delivered, msg)
}

func TestPublishDropsWhenNoSubscribers(t *testing.T) {
	tbl := routingtable.New()
	sender := &recordingSender{}
	shipped := Publish(stubSubs{}, sender, tbl, "orders", KindData, nil, 3)
	require.False(t, shipped)
	require.Empty(t, sender.sent)
}

func TestPublishShipsToResolvedReceivers(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("X", stubHandle("hX"))
	subs := stubSubs{"orders": {"X"}}
	sender := &recordingSender{}

	shipped := Publish(subs, sender, tbl, "orders", KindData, []byte("payload"), 3)
	require.True(t, shipped)
	require.Len(t, sender.sent, 1)
	require.Equal(t, peerid.List{"X"}, sender.sent[0].msg.Receivers)
	require.EqualValues(t, 3, sender.sent[0].msg.TTL)
}

// TestShipTieBreak reproduces spec.md §8 S2 at the ship layer: self
// connected to X and Y, both reporting distance 2 to Z; exactly one copy
// goes to the lexicographically smaller neighbor.
func TestShipTieBreak(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("X", stubHandle("hX"))
	tbl.Put("Y", stubHandle("hY"))
	tbl.RecordDistance("Y", "Z", 2)
	tbl.RecordDistance("X", "Z", 2)
	sender := &recordingSender{}

	Ship(sender, tbl, NodeMessage{Topic: "t", TTL: 3, Receivers: peerid.List{"Z"}})

	require.Len(t, sender.sent, 1)
	require.Equal(t, stubHandle("hX"), sender.sent[0].handle)
	require.Equal(t, peerid.List{"Z"}, sender.sent[0].msg.Receivers)
}

// TestShipBucketsEverything reproduces invariant 5: the multiset union of
// receivers across emitted buckets equals receivers that are reachable.
func TestShipBucketsEverything(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("X", stubHandle("hX"))
	tbl.Put("Y", stubHandle("hY"))
	tbl.RecordDistance("X", "P", 2)
	tbl.RecordDistance("Y", "Q", 2)
	sender := &recordingSender{}

	Ship(sender, tbl, NodeMessage{Topic: "t", TTL: 3, Receivers: peerid.List{"X", "P", "Q", "unreachable"}})

	var all peerid.List
	for _, s := range sender.sent {
		all = append(all, s.msg.Receivers...)
	}
	require.ElementsMatch(t, peerid.List{"X", "P", "Q"}, all)
}

func TestShipDirectPrefersDirectConnection(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("X", stubHandle("hX"))
	sender := &recordingSender{}

	ok := ShipDirect(sender, tbl, NodeMessage{Topic: "t", TTL: 3}, "X")
	require.True(t, ok)
	require.Equal(t, stubHandle("hX"), sender.sent[0].handle)
	require.Equal(t, peerid.List{"X"}, sender.sent[0].msg.Receivers)
}

func TestShipDirectFallsBackToFirstHop(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("X", stubHandle("hX"))
	tbl.RecordDistance("X", "Z", 2)
	sender := &recordingSender{}

	ok := ShipDirect(sender, tbl, NodeMessage{Topic: "t", TTL: 3}, "Z")
	require.True(t, ok)
	require.Equal(t, stubHandle("hX"), sender.sent[0].handle)
}

func TestShipDirectDropsWhenUnreachable(t *testing.T) {
	tbl := routingtable.New()
	sender := &recordingSender{}
	ok := ShipDirect(sender, tbl, NodeMessage{Topic: "t", TTL: 3}, "nowhere")
	require.False(t, ok)
}

func TestHandlePublicationExpiredOnEntryDrops(t *testing.T) {
	tbl := routingtable.New()
	sender := &recordingSender{}
	deliverer := &recordingDeliverer{}

	HandlePublication(deliverer, sender, tbl, "self", NodeMessage{TTL: 0, Receivers: peerid.List{"self"}})
	require.Empty(t, deliverer.delivered)
	require.Empty(t, sender.sent)
}

// TestHandlePublicationTTLExpiryScenario reproduces spec.md §8 S6: a node
// message published with TTL=1 reaches the TTL=0 hop, delivers locally, and
// stops without forwarding.
func TestHandlePublicationTTLExpiryScenario(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("next", stubHandle("hNext"))
	sender := &recordingSender{}
	deliverer := &recordingDeliverer{}

	HandlePublication(deliverer, sender, tbl, "self", NodeMessage{TTL: 1, Receivers: peerid.List{"self"}})

	require.Len(t, deliverer.delivered, 1)
	require.Equal(t, peerid.List{"self"}, deliverer.delivered[0].Receivers)
	require.Empty(t, sender.sent)
}

func TestHandlePublicationForwardsRemainingReceivers(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("next", stubHandle("hNext"))
	sender := &recordingSender{}
	deliverer := &recordingDeliverer{}

	HandlePublication(deliverer, sender, tbl, "self", NodeMessage{TTL: 5, Receivers: peerid.List{"self", "next"}})

	require.Len(t, deliverer.delivered, 1)
	require.Len(t, sender.sent, 1)
	require.EqualValues(t, 4, sender.sent[0].msg.TTL)
	require.Equal(t, peerid.List{"next"}, sender.sent[0].msg.Receivers)
}

// TestHandlePublicationTTLMonotone reproduces invariant 7: no forwarded
// copy carries a TTL greater than or equal to the TTL observed on entry.
func TestHandlePublicationTTLMonotone(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("next", stubHandle("hNext"))
	sender := &recordingSender{}
	deliverer := &recordingDeliverer{}
	const entryTTL = 5

	HandlePublication(deliverer, sender, tbl, "self", NodeMessage{TTL: entryTTL, Receivers: peerid.List{"next"}})

	require.Len(t, sender.sent, 1)
	require.Less(t, sender.sent[0].msg.TTL, uint16(entryTTL))
}

func TestHandlePublicationNoSelfDelivery(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("next", stubHandle("hNext"))
	sender := &recordingSender{}
	deliverer := &recordingDeliverer{}

	HandlePublication(deliverer, sender, tbl, "self", NodeMessage{TTL: 5, Receivers: peerid.List{"next"}})
	require.Empty(t, deliverer.delivered)
}
