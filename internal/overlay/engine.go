package overlay

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/driftmesh/overlay/internal/config"
	"github.com/driftmesh/overlay/internal/obslog"
	internalrt "github.com/driftmesh/overlay/internal/routingtable"
	"github.com/driftmesh/overlay/pkg/distribution"
	"github.com/driftmesh/overlay/pkg/filterprop"
	"github.com/driftmesh/overlay/pkg/forwarding"
	"github.com/driftmesh/overlay/pkg/peerid"
)

// eventQueueSize bounds the engine's inbound event channel; the actor loop
// drains it strictly in FIFO order (spec.md §5 "Ordering guarantees").
const eventQueueSize = 256

// Engine is the peer task: the single owner of routing table, subscription
// state and distribution policy for one overlay node, the Go realization of
// broker::alm::peer plus core_policy's streaming half.
type Engine struct {
	selfID    peerid.ID
	transport Transport
	tbl       *internalrt.Table
	subs      *filterprop.State
	policy    *distribution.Policy
	reconnect *reconnectScheduler
	options   config.Options
	log       zerolog.Logger

	events       chan Event
	shuttingDown bool
}

// New wires a complete Engine: routing table, subscription flooding state,
// and the streaming distribution policy, all bound to transport and a set
// of local delivery sinks.
func New(transport Transport, workers, stores distribution.LocalSink, options config.Options) *Engine {
	tbl := internalrt.New()
	selfID := transport.ID()
	subs := filterprop.New(selfID, tbl)
	sender := transportSender{t: transport}
	policy := distribution.New(selfID, tbl, sender, workers, stores, distribution.Options{Forward: options.Forward})
	log := obslog.Component("overlay")

	return &Engine{
		selfID:    selfID,
		transport: transport,
		tbl:       tbl,
		subs:      subs,
		policy:    policy,
		reconnect: newReconnectScheduler(transport, log),
		options:   options,
		log:       log,
		events:    make(chan Event, eventQueueSize),
	}
}

// SetRecorder attaches rec to the distribution policy so every message it
// forwards onward from a peer batch is logged until rec's cap is reached.
// Messages sent by local publishes, transit publications and subscription
// floods are not recorded. Pass nil to disable.
func (e *Engine) SetRecorder(rec *distribution.Recorder) {
	e.policy.SetRecorder(rec)
}

// Submit enqueues ev for processing by Run. It is the only thread-safe
// entry point into the engine; everything else runs on the actor goroutine.
func (e *Engine) Submit(ev Event) {
	e.events <- ev
}

// Close stops the distribution policy's local fan-out pool.
func (e *Engine) Close() {
	e.policy.Close()
}

// Run is the single cooperatively scheduled actor loop (spec.md §5): it
// drains e.events until a ShutdownEvent or ctx cancellation, dispatching
// each Event to its handler. No handler here performs blocking I/O.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-e.events:
			if e.dispatch(ev) {
				return nil
			}
		}
	}
}

// dispatch handles one Event, returning true if the engine should stop.
func (e *Engine) dispatch(ev Event) bool {
	switch v := ev.(type) {
	case PublishEvent:
		e.handlePublish(v)
	case PublishLocalEvent:
		e.policy.DeliverLocalOnly(v.Msg)
	case TransitPublicationEvent:
		e.handleTransitPublication(v)
	case SubscribeEvent:
		e.subs.Subscribe(transportSender{t: e.transport}, v.Filter)
	case FilterUpdateEvent:
		e.handleFilterUpdate(v)
	case PeerBatchEvent:
		e.policy.BeforeBatch(v.From)
		e.policy.HandlePeerBatch(v.From, distribution.Batch(v.Batch))
		e.policy.AfterBatch()
	case PeerConnectedEvent:
		e.tbl.Put(v.ID, v.Handle)
	case PeerRemovedEvent:
		e.handlePeerRemoved(v.ID)
	case PeerDisconnectedEvent:
		e.handlePeerRemoved(v.ID)
	case PeerLostEvent:
		if !e.shuttingDown {
			e.reconnect.schedule(v.ID, v.Retry)
		}
	case PeerUnavailableEvent:
		e.log.Debug().Str("handle", v.Handle.String()).Msg("peer unavailable")
	case UnpeerEvent:
		e.handleUnpeer(v.ID)
	case BlockPeerEvent:
		e.policy.Block(v.ID)
	case UnblockPeerEvent:
		e.policy.Unblock(v.ID)
	case RebindEvent:
		e.tbl.Rebind(v.ID, v.NewHandle)
	case GetIDEvent:
		v.Reply <- e.selfID
	case GetDirectSubscriptionsEvent:
		v.Reply <- e.subs.DirectPeerSubscriptions()
	case ShutdownEvent:
		e.shuttingDown = true
		return true
	}
	return false
}

func (e *Engine) handlePublish(v PublishEvent) {
	ttl := e.subs.TTL()
	if ttl < e.options.TTL {
		ttl = e.options.TTL
	}
	shipped := forwarding.Publish(e.subs, transportSender{t: e.transport}, e.tbl, v.Topic, v.Kind, v.Payload, ttl)
	if !shipped {
		e.log.Debug().Str("topic", v.Topic.String()).Msg("no subscribers found for topic")
	}
}

func (e *Engine) handleTransitPublication(v TransitPublicationEvent) {
	forwarding.HandlePublication(localDeliverer{policy: e.policy}, transportSender{t: e.transport}, e.tbl, e.selfID, v.Msg)
}

func (e *Engine) handleFilterUpdate(v FilterUpdateEvent) {
	if err := e.subs.HandleFilterUpdate(transportSender{t: e.transport}, v.Path, v.Filter, v.Timestamp); err != nil {
		e.log.Debug().Err(err).Msg("dropped filter update")
	}
}

func (e *Engine) handlePeerRemoved(id peerid.ID) {
	e.tbl.Remove(id)
	e.subs.ForgetIfUnreachable(id)
}

// handleUnpeer implements SPEC_FULL.md §10.2: removing an id with no
// routing-table entry is a silent no-op (peer.hh's cannot_remove_peer).
func (e *Engine) handleUnpeer(id peerid.ID) {
	if _, ok := e.tbl.Entry(id); !ok {
		e.log.Debug().Str("peer", id.String()).Msg("cannot remove unknown peer")
		return
	}
	e.handlePeerRemoved(id)
}

// localDeliverer adapts the distribution policy's local sinks to
// forwarding.Deliverer for handle_publication's self-delivery step.
type localDeliverer struct {
	policy *distribution.Policy
}

func (d localDeliverer) DeliverLocally(msg forwarding.NodeMessage) {
	d.policy.DeliverLocalOnly(msg)
}
