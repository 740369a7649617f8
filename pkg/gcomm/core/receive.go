package core

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/types"
)

// framingState is the per-source state machine of spec.md §4.4: a receive
// buffer is either waiting to see a complete header, or has parsed a header
// and is waiting for the remainder of that frame's padded payload.
type framingState int

const (
	awaitingHeader framingState = iota
	awaitingPayload
)

// receiveBuffer is a mutex-guarded byte FIFO for one source peer, plus the
// framing state needed to split the byte stream back into discrete
// messages. empty is kept as an atomic mirror of buf.Len()==0 so callers on
// the hot path (Receive's round-robin scan) can skip acquiring mu for
// sources that plainly have nothing queued (invariant I3's fast path).
type receiveBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	state framingState
	// pendingLen is the decoded payload length once state == awaitingPayload.
	pendingLen   int
	paddedNeeded int

	empty atomic.Bool
}

func newReceiveBuffer() *receiveBuffer {
	r := &receiveBuffer{state: awaitingHeader}
	r.empty.Store(true)
	return r
}

// scatter appends raw bytes arriving from the collective exchange (spec.md
// §4.3's "scatter into per-source receive buffers"). Called only by the
// flush engine, never concurrently for the same source.
func (r *receiveBuffer) scatter(data []byte) {
	if len(data) == 0 {
		return
	}
	r.mu.Lock()
	r.buf.Write(data)
	r.empty.Store(false)
	r.mu.Unlock()
}

// tryExtract attempts to pull one complete message out of the buffer,
// advancing the framing state machine as far as the currently buffered
// bytes allow. Returns ok == false if no full message is yet available.
func (r *receiveBuffer) tryExtract(elementSize int) (msg []byte, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tryExtractLocked(elementSize)
}

func (r *receiveBuffer) tryExtractLocked(elementSize int) ([]byte, bool) {
	for {
		if r.state == awaitingHeader {
			if r.buf.Len() < types.HeaderSize {
				r.empty.Store(r.buf.Len() == 0)
				return nil, false
			}
			header := r.buf.Next(types.HeaderSize)
			r.pendingLen = types.DecodeHeader(header)
			r.paddedNeeded = types.PadUp(types.HeaderSize+r.pendingLen, elementSize) - types.HeaderSize
			r.state = awaitingPayload
		}

		if r.buf.Len() < r.paddedNeeded {
			r.empty.Store(r.buf.Len() == 0)
			return nil, false
		}

		padded := r.buf.Next(r.paddedNeeded)
		msg := make([]byte, r.pendingLen)
		copy(msg, padded[:r.pendingLen])
		r.state = awaitingHeader
		r.empty.Store(r.buf.Len() == 0)
		return msg, true
	}
}

// ReceiveFrom is non-blocking (spec.md §6): it returns the next complete
// message already queued from source, or ok == false if none is ready yet.
// Callers poll it to observe newly arrived messages (spec.md scenario 1).
// Safe for concurrent use per source (spec.md §9 open question), but a
// single source must not be read from two goroutines expecting distinct
// messages, since frames are delivered in arrival order with no per-call
// routing key.
func (e *Engine) ReceiveFrom(source int) (msg []byte, ok bool, err error) {
	if err := e.checkOpen(); err != nil {
		return nil, false, err
	}
	if source < 0 || source >= e.size {
		return nil, false, e.wrapf("receive_from", types.ErrInvalidArgument)
	}
	msg, ok = e.recv[source].tryExtract(e.cfg.ElementSize)
	return msg, ok, nil
}

// Receive is non-blocking (spec.md §6): it returns the next available
// message from any source, scanning sources in round-robin order starting
// just after the last source it returned from (spec.md scenario 6,
// fairness), or ok == false if nothing is queued anywhere. Not safe for
// concurrent callers; use ReceiveFrom for per-source concurrent access.
func (e *Engine) Receive() (source int, msg []byte, ok bool, err error) {
	if err := e.checkOpen(); err != nil {
		return 0, nil, false, err
	}

	for i := 0; i < e.size; i++ {
		idx := (e.rrCursor + 1 + i) % e.size
		rb := e.recv[idx]
		if rb.empty.Load() {
			continue
		}
		if m, ok := rb.tryExtract(e.cfg.ElementSize); ok {
			e.rrCursor = idx
			return idx, m, true, nil
		}
	}
	return 0, nil, false, nil
}
