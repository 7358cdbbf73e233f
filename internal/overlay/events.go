package overlay

import (
	"github.com/driftmesh/overlay/pkg/forwarding"
	"github.com/driftmesh/overlay/pkg/peerid"
	"github.com/driftmesh/overlay/pkg/routingtable"
	"github.com/driftmesh/overlay/pkg/topic"
)

// Event is the closed sum of everything the engine's single-consumer loop
// can dispatch, the Go rewrite of the actor handler surface in spec.md §6
// (design note: "a natural rewrite models each as a variant of an Event
// enum delivered through a single-consumer queue to the peer task").
type Event interface {
	eventKind()
}

// PublishEvent is (PUBLISH, data_message) / (PUBLISH, command_message): a
// local publisher handing content to the core.
type PublishEvent struct {
	Topic   topic.Topic
	Kind    forwarding.Kind
	Payload []byte
}

func (PublishEvent) eventKind() {}

// PublishLocalEvent is (PUBLISH, LOCAL, message): bypass peers, deliver
// only to local workers/stores.
type PublishLocalEvent struct {
	Msg forwarding.NodeMessage
}

func (PublishLocalEvent) eventKind() {}

// TransitPublicationEvent is (PUBLISH, node_message): a message arriving
// from another peer for forwarding/local delivery.
type TransitPublicationEvent struct {
	Msg forwarding.NodeMessage
}

func (TransitPublicationEvent) eventKind() {}

// SubscribeEvent is (SUBSCRIBE, filter): a local subscribe call.
type SubscribeEvent struct {
	Filter topic.Filter
}

func (SubscribeEvent) eventKind() {}

// FilterUpdateEvent is (SUBSCRIBE, path, filter, timestamp): a remote
// subscription-flood update.
type FilterUpdateEvent struct {
	Path      peerid.List
	Filter    topic.Filter
	Timestamp uint64
}

func (FilterUpdateEvent) eventKind() {}

// PeerBatchEvent carries one peer's batch of node messages through the
// streaming distribution policy (spec.md §4.5).
type PeerBatchEvent struct {
	From  peerid.ID
	Batch []forwarding.NodeMessage
}

func (PeerBatchEvent) eventKind() {}

// PeerConnectedEvent, PeerRemovedEvent, PeerDisconnectedEvent and
// PeerLostEvent realize spec.md §4.5's peer lifecycle callbacks.
type PeerConnectedEvent struct {
	ID     peerid.ID
	Handle routingtable.Handle
}

func (PeerConnectedEvent) eventKind() {}

type PeerRemovedEvent struct {
	ID peerid.ID
}

func (PeerRemovedEvent) eventKind() {}

type PeerDisconnectedEvent struct {
	ID     peerid.ID
	Reason error
}

func (PeerDisconnectedEvent) eventKind() {}

type PeerLostEvent struct {
	ID    peerid.ID
	Retry RetryDescriptor
}

func (PeerLostEvent) eventKind() {}

// PeerUnavailableEvent is peer.hh's peer_unavailable: the transport failed
// to establish a connection in the first place (SPEC_FULL.md §10.3).
type PeerUnavailableEvent struct {
	Handle routingtable.Handle
}

func (PeerUnavailableEvent) eventKind() {}

// UnpeerEvent asks the engine to drop a peer by id; removing an unknown id
// is a no-op (SPEC_FULL.md §10.2).
type UnpeerEvent struct {
	ID peerid.ID
}

func (UnpeerEvent) eventKind() {}

// BlockPeerEvent and UnblockPeerEvent drive the distribution policy's
// block/unblock state machine (spec.md §4.5).
type BlockPeerEvent struct {
	ID peerid.ID
}

func (BlockPeerEvent) eventKind() {}

type UnblockPeerEvent struct {
	ID peerid.ID
}

func (UnblockPeerEvent) eventKind() {}

// RebindEvent is core_policy's update_peer/ack_open_success rebind path
// (SPEC_FULL.md §10.6): swap the handle serving an existing peer id without
// losing accumulated routing state.
type RebindEvent struct {
	ID        peerid.ID
	NewHandle routingtable.Handle
}

func (RebindEvent) eventKind() {}

// GetIDEvent is (GET, ID): returns the node's own peer id.
type GetIDEvent struct {
	Reply chan<- peerid.ID
}

func (GetIDEvent) eventKind() {}

// GetDirectSubscriptionsEvent is (GET, PEER, SUBSCRIPTIONS): returns the
// union of filters of direct peers only (SPEC_FULL.md §10.1).
type GetDirectSubscriptionsEvent struct {
	Reply chan<- topic.Filter
}

func (GetDirectSubscriptionsEvent) eventKind() {}

// ShutdownEvent is (SHUTDOWN): the engine loop returns as soon as it handles
// this event; events still queued behind it are not processed.
type ShutdownEvent struct{}

func (ShutdownEvent) eventKind() {}
