// Package distribution implements the streaming dataflow policy that sits
// between a peer's inbound/outbound batches and its local workers/stores:
// before/after-batch selector discipline, peer blocking with buffered
// replay, and onward-forwarding decisions (TTL, clone suffix, forward
// option).
//
// Grounded on core_policy's handle_batch / block_peer / unblock_peer
// (_examples/original_source/src/detail/core_policy.cc).
package distribution

import (
	"github.com/gammazero/workerpool"

	"github.com/driftmesh/overlay/pkg/forwarding"
	"github.com/driftmesh/overlay/pkg/peerid"
	"github.com/driftmesh/overlay/pkg/routingtable"
)

// localFanOutWorkers bounds the workerpool used to fan local deliveries out
// to the worker/store sinks without blocking the caller's batch handler.
const localFanOutWorkers = 4

// Options are the forwarding-relevant config knobs (spec.md §6).
type Options struct {
	// Forward enables onward relay of peer-batch messages across peers.
	Forward bool
}

// LocalSink receives locally-destined payloads extracted from peer batches,
// or batches pushed directly by a local worker/store publisher.
type LocalSink interface {
	HasSubscribers() bool
	Deliver(msg forwarding.NodeMessage)
}

// Batch is a sequence of node messages arriving from one peer in one
// scheduling step.
type Batch []forwarding.NodeMessage

// Policy is the per-node distribution policy: one instance owns the
// blocked-peer set, buffered batches, and local fan-out pool for a single
// overlay node.
type Policy struct {
	selfID  peerid.ID
	tbl     routingtable.Table
	sender  forwarding.Sender
	workers LocalSink
	stores  LocalSink
	options Options
	rec     *Recorder

	blockedPeers map[peerid.ID]bool
	blockedMsgs  map[peerid.ID][]Batch
	activeSender peerid.ID

	pool *workerpool.WorkerPool
}

// New returns a distribution policy for selfID, forwarding onward through
// sender/tbl and delivering locally through workers/stores.
func New(selfID peerid.ID, tbl routingtable.Table, sender forwarding.Sender, workers, stores LocalSink, options Options) *Policy {
	return &Policy{
		selfID:       selfID,
		tbl:          tbl,
		sender:       sender,
		workers:      workers,
		stores:       stores,
		options:      options,
		blockedPeers: make(map[peerid.ID]bool),
		blockedMsgs:  make(map[peerid.ID][]Batch),
		pool:         workerpool.New(localFanOutWorkers),
	}
}

// SetRecorder attaches an outbound-message recorder; pass nil to disable.
func (p *Policy) SetRecorder(rec *Recorder) {
	p.rec = rec
}

// Close stops the local fan-out pool, waiting for queued deliveries to
// finish.
func (p *Policy) Close() {
	p.pool.StopWait()
}

// BeforeBatch implements spec.md §4.5 "before each batch": flush is a no-op
// in this synchronous model (there is no separate central buffer to drain),
// but active_sender is set so onward forwarding excludes h for the duration
// of the batch.
func (p *Policy) BeforeBatch(h peerid.ID) {
	p.activeSender = h
}

// AfterBatch implements spec.md §4.5 "after each batch": clears
// active_sender.
func (p *Policy) AfterBatch() {
	p.activeSender = peerid.Nil
}

// HandlePeerBatch implements spec.md §4.5's peer-batch handling. If h is
// currently blocked, the entire batch is buffered for later replay.
func (p *Policy) HandlePeerBatch(h peerid.ID, batch Batch) {
	if p.blockedPeers[h] {
		p.blockedMsgs[h] = append(p.blockedMsgs[h], batch)
		return
	}
	for _, msg := range batch {
		p.handlePeerMessage(msg)
	}
}

func (p *Policy) handlePeerMessage(msg forwarding.NodeMessage) {
	switch msg.Kind {
	case forwarding.KindData:
		if p.workers.HasSubscribers() {
			p.dispatchLocally(p.workers, msg)
		}
	case forwarding.KindCommand:
		if p.stores.HasSubscribers() {
			p.dispatchLocally(p.stores, msg)
		}
	}
	if !p.options.Forward {
		return
	}
	if msg.Topic.HasCloneSuffix() {
		return
	}
	if msg.TTL == 0 {
		return
	}
	msg.TTL--
	if msg.TTL == 0 {
		return
	}
	p.forwardToPeers(msg)
}

// DeliverLocalOnly pushes msg to the matching local sink without any
// onward forwarding, realizing spec.md §6's "(PUBLISH, LOCAL, message) —
// bypass peers, ship locally only" and peer.hh's ship_locally hook.
func (p *Policy) DeliverLocalOnly(msg forwarding.NodeMessage) {
	switch msg.Kind {
	case forwarding.KindData:
		if p.workers.HasSubscribers() {
			p.dispatchLocally(p.workers, msg)
		}
	case forwarding.KindCommand:
		if p.stores.HasSubscribers() {
			p.dispatchLocally(p.stores, msg)
		}
	}
}

func (p *Policy) dispatchLocally(sink LocalSink, msg forwarding.NodeMessage) {
	p.pool.Submit(func() { sink.Deliver(msg) })
}

// forwardToPeers ships msg to the peer graph, excluding the batch's active
// sender so a message is never relayed straight back to where it came from
// (spec.md invariant 6).
func (p *Policy) forwardToPeers(msg forwarding.NodeMessage) {
	if p.rec != nil {
		p.rec.Record(msg)
	}
	forwarding.Ship(excludingSender{inner: p.sender, tbl: p.tbl, exclude: p.activeSender}, p.tbl, msg)
}

// PushWorkerBatch implements spec.md §4.5's "worker batch" handling: a local
// publisher's data messages are delivered to workers and also forwarded to
// peers via Publish semantics. Callers provide a Subscriptions-resolving
// Publish elsewhere; PushWorkerBatch only does the local-delivery half for
// messages that already carry resolved receivers.
func (p *Policy) PushWorkerBatch(batch Batch) {
	for _, msg := range batch {
		if p.workers.HasSubscribers() {
			p.dispatchLocally(p.workers, msg)
		}
	}
}

// PushStoreBatch is PushWorkerBatch's store-batch counterpart.
func (p *Policy) PushStoreBatch(batch Batch) {
	for _, msg := range batch {
		if p.stores.HasSubscribers() {
			p.dispatchLocally(p.stores, msg)
		}
	}
}

// Block implements spec.md §4.5 block(h): subsequent peer batches from h
// accumulate instead of being processed.
func (p *Policy) Block(h peerid.ID) {
	p.blockedPeers[h] = true
}

// Blocked reports whether h is currently blocked.
func (p *Policy) Blocked(h peerid.ID) bool {
	return p.blockedPeers[h]
}

// Unblock implements spec.md §4.5 unblock(h): removes h from blocked_peers
// and, if any batches were buffered and h's inbound path (routing table
// entry) still exists, replays them in order through the normal
// before/handle/after sequence. If the peer is gone, the buffer is
// discarded.
func (p *Policy) Unblock(h peerid.ID) {
	delete(p.blockedPeers, h)
	buffered, ok := p.blockedMsgs[h]
	if !ok {
		return
	}
	delete(p.blockedMsgs, h)
	if _, stillPeered := p.tbl.Entry(h); !stillPeered {
		return
	}
	for _, batch := range buffered {
		p.BeforeBatch(h)
		p.HandlePeerBatch(h, batch)
		p.AfterBatch()
	}
}

// excludingSender wraps a forwarding.Sender so that sends addressed to the
// peer whose handle matches exclude are silently dropped, realizing the
// selector's active_sender discipline.
type excludingSender struct {
	inner   forwarding.Sender
	tbl     routingtable.Table
	exclude peerid.ID
}

func (s excludingSender) SendPublish(handle routingtable.Handle, msg forwarding.NodeMessage) {
	if s.exclude.Valid() {
		if excludedEntry, ok := s.tbl.Entry(s.exclude); ok && excludedEntry.Handle.String() == handle.String() {
			return
		}
	}
	s.inner.SendPublish(handle, msg)
}
