package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/definition"
	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/types"
)

// Engine is the comm core: it owns the send window, the per-source receive
// buffers, the transport, and the background flusher, and implements every
// operation spec.md §6 exposes on the public Comm type. Comm itself (at the
// module root) is a thin wrapper that delegates every call, argument
// validation included, to Engine and only adds the documentation surface;
// Engine is where the concurrency lives.
type Engine struct {
	rank int
	size int
	cfg  types.Configuration
	tr   Transport
	log  types.Logger

	send *sendState
	recv []*receiveBuffer

	// destMu serializes the staging of one frame per destination end to
	// end. The CAS reservation within a single group stays lock-free, but
	// without this a frame split across a forced mid-flush by one producer
	// could be interleaved in the byte stream by another producer's frame
	// to the same destination arriving in between, corrupting the framing
	// state machine on the receiving side. Different destinations never
	// contend with each other.
	destMu []sync.Mutex

	// rrCursor is the round-robin scan position for Receive. Receive is
	// documented as unsafe for concurrent callers, so plain int suffices.
	rrCursor int

	// flushMu is the outer lock spec.md §4.2/§4.6 require around the
	// background flusher's flush-plus-termination-reduce step: runFlusher
	// holds it across both the flush and the AllReduceSum call that follows,
	// and Flush (including the forced flush Send triggers on a saturated
	// window) takes the same lock before touching the internal channel. A
	// forced flush can therefore never land in the gap between this rank's
	// own flush and its contribution to the termination reduction, which
	// would otherwise let two goroutines on the same rank race into the
	// in-process rendezvous at once.
	flushMu sync.Mutex

	// localDone signals this rank's intent to stop the background flusher.
	// The flusher keeps ticking and participating in every peer's
	// termination all-reduce until every rank's localDone is true, so that
	// a peer closing early never strands the others mid-collective.
	localDone atomic.Bool
	closed    atomic.Bool

	flusherDone chan struct{}
}

// NewEngine constructs an Engine for the given transport and configuration.
// The engine's rank and size are taken from the transport; WindowSize must
// already be set by the caller (Comm.New does not fill in a default, so
// without WithWindowSize Validate rejects the configuration).
func NewEngine(tr Transport, cfg types.Configuration) (*Engine, error) {
	cfg = cfg.WithDefaults()
	size := tr.Size()
	if err := cfg.Validate(size); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = definition.NewDefaultLogger()
	}

	e := &Engine{
		rank: tr.Rank(),
		size: size,
		cfg:  cfg,
		tr:   tr,
		log:  logger,
		send:   newSendState(size, cfg),
		recv:   make([]*receiveBuffer, size),
		destMu: make([]sync.Mutex, size),
	}
	for i := range e.recv {
		e.recv[i] = newReceiveBuffer()
	}

	e.flusherDone = make(chan struct{})
	go e.runFlusher()

	return e, nil
}

func (e *Engine) Rank() int { return e.rank }
func (e *Engine) Size() int { return e.size }

// Close signals this rank's intent to stop the background flusher and
// blocks until every rank in the group has done the same, then releases the
// transport. Safe to call once; a second call is a no-op. Callers must
// ensure every peer eventually calls Close, since the termination protocol
// is itself a collective (spec.md §4.6).
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.localDone.Store(true)
	<-e.flusherDone
	return e.tr.Close()
}

func (e *Engine) checkOpen() error {
	if e.closed.Load() {
		return types.ErrClosed
	}
	return nil
}

// flushDeadline is the timeout of the context the background flusher gives
// its own flush each round. Send, Flush, Barrier and BarrierFlush use the
// caller's context instead.
const flushDeadline = 30 * time.Second

func (e *Engine) wrapf(op string, err error) error {
	return fmt.Errorf("gcomm: %s (rank %d): %w", op, e.rank, err)
}
