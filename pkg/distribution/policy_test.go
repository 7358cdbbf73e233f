package distribution

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftmesh/overlay/internal/routingtable"
	"github.com/driftmesh/overlay/pkg/forwarding"
	"github.com/driftmesh/overlay/pkg/peerid"
	routingtablepkg "github.com/driftmesh/overlay/pkg/routingtable"
)

type stubHandle string

func (h stubHandle) String() string { return string(h) }

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
}

type sent struct {
	handle routingtablepkg.Handle
	msg    forwarding.NodeMessage
}

func (s *recordingSender) SendPublish(handle routingtablepkg.Handle, msg forwarding.NodeMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sent{handle, msg})
}

func (s *recordingSender) snapshot() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.sent...)
}

type recordingSink struct {
	mu        sync.Mutex
	delivered []forwarding.NodeMessage
}

func (s *recordingSink) HasSubscribers() bool { return true }

func (s *recordingSink) Deliver(msg forwarding.NodeMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, msg)
}

func (s *recordingSink) snapshot() []forwarding.NodeMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]forwarding.NodeMessage(nil), s.delivered...)
}

type emptySink struct{}

func (emptySink) HasSubscribers() bool                 { return false }
func (emptySink) Deliver(msg forwarding.NodeMessage) {}

func newTestPolicy(t *testing.T) (*Policy, *routingtable.Table, *recordingSender, *recordingSink, *recordingSink) {
	tbl := routingtable.New()
	sender := &recordingSender{}
	workers := &recordingSink{}
	stores := &recordingSink{}
	p := New("self", tbl, sender, workers, stores, Options{Forward: true})
	t.Cleanup(p.Close)
	return p, tbl, sender, workers, stores
}

func TestHandlePeerBatchDeliversDataLocallyAndForwards(t *testing.T) {
	p, tbl, sender, workers, _ := newTestPolicy(t)
	tbl.Put("next", stubHandle("hNext"))

	p.BeforeBatch("prev")
	p.HandlePeerBatch("prev", Batch{{Topic: "orders", Kind: forwarding.KindData, TTL: 5, Receivers: peerid.List{"next"}}})
	p.AfterBatch()

	require.Eventually(t, func() bool { return len(workers.snapshot()) == 1 }, time.Second, time.Millisecond)
	require.Len(t, sender.snapshot(), 1)
	require.EqualValues(t, 4, sender.snapshot()[0].msg.TTL)
}

func TestHandlePeerBatchSkipsForwardWhenDisabled(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("next", stubHandle("hNext"))
	sender := &recordingSender{}
	workers := &recordingSink{}
	p := New("self", tbl, sender, workers, &recordingSink{}, Options{Forward: false})
	defer p.Close()

	p.HandlePeerBatch("prev", Batch{{Topic: "orders", Kind: forwarding.KindData, TTL: 5, Receivers: peerid.List{"next"}}})
	require.Empty(t, sender.snapshot())
}

func TestHandlePeerBatchSkipsCloneSuffix(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("next", stubHandle("hNext"))
	sender := &recordingSender{}
	p := New("self", tbl, sender, &recordingSink{}, &recordingSink{}, Options{Forward: true})
	defer p.Close()

	p.HandlePeerBatch("prev", Batch{{Topic: "store/clone", Kind: forwarding.KindCommand, TTL: 5, Receivers: peerid.List{"next"}}})
	require.Empty(t, sender.snapshot())
}

func TestHandlePeerBatchDropsOnTTLExpiry(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("next", stubHandle("hNext"))
	sender := &recordingSender{}
	p := New("self", tbl, sender, &recordingSink{}, &recordingSink{}, Options{Forward: true})
	defer p.Close()

	p.HandlePeerBatch("prev", Batch{{Topic: "orders", Kind: forwarding.KindData, TTL: 1, Receivers: peerid.List{"next"}}})
	require.Empty(t, sender.snapshot())
}

// TestForwardExcludesActiveSender reproduces invariant 6: a batch's active
// sender never receives a message forwarded during handling of its own
// batch, even if it would otherwise be the first hop toward a receiver.
func TestForwardExcludesActiveSender(t *testing.T) {
	tbl := routingtable.New()
	tbl.Put("prev", stubHandle("hPrev"))
	tbl.Put("other", stubHandle("hOther"))
	tbl.RecordDistance("prev", "far", 2)
	sender := &recordingSender{}
	p := New("self", tbl, sender, &recordingSink{}, &recordingSink{}, Options{Forward: true})
	defer p.Close()

	p.BeforeBatch("prev")
	p.HandlePeerBatch("prev", Batch{{Topic: "orders", Kind: forwarding.KindData, TTL: 5, Receivers: peerid.List{"far"}}})
	p.AfterBatch()

	for _, s := range sender.snapshot() {
		require.NotEqual(t, stubHandle("hPrev"), s.handle)
	}
}

// TestBlockReplayScenario reproduces spec.md §8 S4: block(P), deliver three
// peer batches from P, unblock(P). The buffered batches replay with
// identical effect to unblocked delivery.
func TestBlockReplayScenario(t *testing.T) {
	p, tbl, sender, workers, _ := newTestPolicy(t)
	tbl.Put("next", stubHandle("hNext"))
	tbl.Put("P", stubHandle("hP"))

	p.Block("P")
	require.True(t, p.Blocked("P"))

	for i := 0; i < 3; i++ {
		p.HandlePeerBatch("P", Batch{{Topic: "orders", Kind: forwarding.KindData, TTL: 5, Receivers: peerid.List{"next"}}})
	}
	require.Empty(t, sender.snapshot())
	require.Empty(t, workers.snapshot())

	p.Unblock("P")
	require.False(t, p.Blocked("P"))

	require.Eventually(t, func() bool { return len(workers.snapshot()) == 3 }, time.Second, time.Millisecond)
	require.Len(t, sender.snapshot(), 3)
}

func TestUnblockDiscardsBufferWhenPeerGone(t *testing.T) {
	p, tbl, sender, _, _ := newTestPolicy(t)
	tbl.Put("P", stubHandle("hP"))

	p.Block("P")
	p.HandlePeerBatch("P", Batch{{Topic: "orders", Kind: forwarding.KindData, TTL: 5}})

	tbl.Remove("P")
	p.Unblock("P")

	require.Empty(t, sender.snapshot())
}

func TestHandleStoreBatchDispatchesToStores(t *testing.T) {
	p, _, _, _, stores := newTestPolicy(t)
	p.PushStoreBatch(Batch{{Topic: "kv", Kind: forwarding.KindCommand}})
	require.Eventually(t, func() bool { return len(stores.snapshot()) == 1 }, time.Second, time.Millisecond)
}

func TestHandleWorkerBatchSkippedWithoutSubscribers(t *testing.T) {
	tbl := routingtable.New()
	p := New("self", tbl, &recordingSender{}, emptySink{}, emptySink{}, Options{Forward: true})
	defer p.Close()
	// Should not panic even though emptySink.Deliver is a no-op.
	p.PushWorkerBatch(Batch{{Topic: "orders", Kind: forwarding.KindData}})
}
