package distribution

import (
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/driftmesh/overlay/pkg/forwarding"
)

// Recorder is an append-only log of outbound node messages, capped at a
// fixed message count (spec.md §4.5 "Recording", §6
// output-generator-file-cap). Grounded on core_policy's constructor, which
// opens a generator file writer and tracks remaining_records_
// (_examples/original_source/src/detail/core_policy.cc).
type Recorder struct {
	mu        sync.Mutex
	enc       *cbor.Encoder
	closer    io.Closer
	remaining uint64
}

// NewRecorder wraps w (typically an opened file) as a Recorder that accepts
// at most cap messages. A cap of 0 means the recorder accepts nothing, i.e.
// recording is effectively disabled.
func NewRecorder(w io.Writer, cap uint64) *Recorder {
	r := &Recorder{enc: cbor.NewEncoder(w), remaining: cap}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// Record appends msg if the cap has not been reached, reporting whether it
// was written.
func (r *Recorder) Record(msg forwarding.NodeMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remaining == 0 {
		return false
	}
	if err := r.enc.Encode(msg); err != nil {
		return false
	}
	r.remaining--
	return true
}

// Remaining reports how many more messages the recorder will accept.
func (r *Recorder) Remaining() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Close closes the underlying writer if it supports it.
func (r *Recorder) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
