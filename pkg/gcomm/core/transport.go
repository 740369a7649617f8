package core

import (
	"context"
)

// Channel is one of the two independent collective communicators a
// Transport exposes (see Transport.Internal / Transport.External). Having
// two channels keeps a background, flush-driven collective from
// interleaving with a user-triggered barrier collective on the same
// underlying group.
type Channel interface {
	// AllToAllCounts exchanges N element counts: every peer supplies how
	// many elements it is sending to every other peer and learns how many
	// it will receive from each.
	AllToAllCounts(ctx context.Context, sendCounts []int) (recvCounts []int, err error)

	// AllToAllV performs the variable-length exchange itself, reading
	// elements out of req.SendBuf and writing the concatenated,
	// source-ordered result into req.RecvBuf.
	AllToAllV(ctx context.Context, req AllToAllVRequest) error

	// AllReduceSum sums v across every peer in the group.
	AllReduceSum(ctx context.Context, v int) (int, error)

	// Barrier blocks until every peer has called Barrier.
	Barrier(ctx context.Context) error
}

// AllToAllVRequest carries the arguments of a variable-length all-to-all
// exchange. Counts and offsets are in units of ElementSize bytes, matching
// the transport contract of spec.md §6.
type AllToAllVRequest struct {
	SendBuf     []byte
	SendCounts  []int
	SendOffsets []int

	RecvBuf     []byte
	RecvCounts  []int
	RecvOffsets []int

	ElementSize int
}

// Transport is the external collaborator this module requires but does
// not implement in production: the underlying process-group all-to-all
// primitive (spec.md §1, §6). It is deliberately narrow — rank, size, and
// two independent Channels — so that any real MPI-style runtime can be
// adapted to it with a thin shim.
type Transport interface {
	Rank() int
	Size() int

	// Internal is driven by the background flusher and by explicit Flush
	// calls.
	Internal() Channel

	// External is driven by Barrier / BarrierFlush, so a user-issued
	// collective never interleaves with a background one.
	External() Channel

	// Close releases any transport-owned resources. Safe to call once;
	// further use of the Transport after Close is undefined, matching the
	// "only one comm per process is meaningful" note of spec.md §9.
	Close() error
}
