// Package gcomm implements a collective point-to-point messaging layer on
// top of an external all-to-all transport: every peer stages outbound
// bytes destined for any other peer into a double-buffered send window,
// and a background flusher periodically exchanges staged bytes with the
// whole group and scatters the results into per-source receive buffers.
//
// A Comm does not implement the all-to-all transport itself; it is built
// against the Transport contract in pkg/gcomm/core and ships with
// core.InProcessTransport as a single-process default suitable for tests
// and demos. Production deployments supply their own Transport adapting a
// real MPI-style runtime.
package gcomm

import (
	"context"

	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/core"
	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/types"
)

// Comm is the public handle onto one peer's view of the group. All methods
// are safe for concurrent use except where documented otherwise (notably
// Receive).
type Comm struct {
	engine *core.Engine
}

// New constructs a Comm for the given transport. WithWindowSize must be
// supplied among opts; every other tuning knob has a default.
func New(tr core.Transport, opts ...Option) (*Comm, error) {
	var cfg types.Configuration
	for _, opt := range opts {
		opt(&cfg)
	}

	engine, err := core.NewEngine(tr, cfg)
	if err != nil {
		return nil, err
	}
	return &Comm{engine: engine}, nil
}

// Rank returns this peer's rank in [0, Size).
func (c *Comm) Rank() int { return c.engine.Rank() }

// Size returns the number of peers in the group.
func (c *Comm) Size() int { return c.engine.Size() }

// Send stages payload for delivery to dest, framing it with a length
// header and padding internally. Send may block briefly if dest's window
// slot is saturated, forcing a flush before it can make progress, but does
// not itself wait for delivery; call Flush or rely on the background
// flusher to actually exchange the data.
func (c *Comm) Send(ctx context.Context, dest int, payload []byte) error {
	return c.engine.Send(ctx, dest, payload)
}

// Flush drains the current send window: every peer's staged bytes are
// exchanged over the internal channel and scattered into receive buffers.
// Most callers do not need to call Flush directly, since the background
// flusher does this automatically roughly every FlushInterval; it is
// exposed for callers that need a synchronous guarantee that everything
// sent so far has at least begun its exchange round.
func (c *Comm) Flush(ctx context.Context) error {
	return c.engine.Flush(ctx)
}

// Barrier drains every peer's send window repeatedly until nothing is
// pending, then blocks until every peer has reached the barrier. Use this
// when you need both "everything I sent has arrived" and "everyone has
// caught up" before proceeding.
func (c *Comm) Barrier(ctx context.Context) error {
	return c.engine.Barrier(ctx)
}

// BarrierFlush drains the send window exactly once, like Flush, but runs
// the exchange on the external channel so it cannot interleave with the
// background flusher's activity on the internal channel. Use this for a
// single coordinated round without the repeat-until-empty behavior of
// Barrier.
func (c *Comm) BarrierFlush(ctx context.Context) error {
	return c.engine.BarrierFlush(ctx)
}

// Receive is non-blocking: it returns the next available message from any
// source, in round-robin fairness order across sources, or ok == false if
// nothing is queued yet. Callers poll it to observe newly arrived messages.
// Not safe for concurrent callers; use ReceiveFrom when multiple goroutines
// need to read concurrently from distinct sources.
func (c *Comm) Receive() (source int, payload []byte, ok bool, err error) {
	return c.engine.Receive()
}

// ReceiveFrom is non-blocking: it returns the next complete message already
// queued from source, or ok == false if none is ready yet. Safe for
// concurrent use across distinct sources; only one goroutine should call
// ReceiveFrom for the same source at a time, since messages are delivered
// in arrival order with no per-call routing key.
func (c *Comm) ReceiveFrom(source int) (payload []byte, ok bool, err error) {
	return c.engine.ReceiveFrom(source)
}

// Close signals this rank's intent to stop participating in background
// flushing and blocks until every rank in the group has done the same,
// then releases the transport. Every peer must eventually call Close for
// any one call to return, since shutdown is itself a group collective.
func (c *Comm) Close() error {
	return c.engine.Close()
}
