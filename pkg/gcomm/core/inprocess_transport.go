package core

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	plog "github.com/prometheus/common/log"
)

// InProcessWorld is the default, in-process implementation of the
// collective transport this module needs but does not implement in
// production (spec.md §1 names the all-to-all transport as an external
// collaborator). It runs every peer as a goroutine inside one process and
// implements the four collective primitives as synchronous rendezvous
// barriers over shared memory, so it is only ever appropriate for tests
// and single-host demos — the same role the teacher's TestInvoker and
// UnityCluster play in place of a real transport during tests, except
// promoted here to a real default so gcomm.New works out of the box.
type InProcessWorld struct {
	size     int
	internal *collectiveSet
	external *collectiveSet
}

// collectiveSet holds one rendezvous per collective primitive for a logical
// channel. AllToAllCounts, AllToAllV, AllReduceSum and Barrier each get their
// own rendezvous instance rather than sharing one: a shared rendezvous has
// no notion of which operation a given round's contributions belong to, so
// if a rank's Send-forced flush and its own background flusher ever raced
// into the same rendezvous (the outer flushMu in Engine is what should
// prevent that for a single rank, but this is the structural backstop),
// combine could receive contributions from two different operations and
// panic on the type assertion. Splitting by operation makes that
// impossible regardless of call ordering.
type collectiveSet struct {
	allToAllCounts *rendezvous
	allToAllV      *rendezvous
	allReduceSum   *rendezvous
	barrier        *rendezvous
}

func newCollectiveSet(n int) *collectiveSet {
	return &collectiveSet{
		allToAllCounts: newRendezvous(n),
		allToAllV:      newRendezvous(n),
		allReduceSum:   newRendezvous(n),
		barrier:        newRendezvous(n),
	}
}

// NewInProcessWorld creates a world for size peers. Call Transport(rank)
// once per rank to obtain that peer's Transport handle.
func NewInProcessWorld(size int) *InProcessWorld {
	return &InProcessWorld{
		size:     size,
		internal: newCollectiveSet(size),
		external: newCollectiveSet(size),
	}
}

// Transport returns the Transport handle for the given rank. All ranks
// [0, size) must obtain and drive their handle for any collective to
// complete, since every rendezvous blocks until all size participants
// arrive.
func (w *InProcessWorld) Transport(rank int) *InProcessTransport {
	return &InProcessTransport{rank: rank, world: w}
}

// InProcessTransport is one peer's handle into an InProcessWorld.
type InProcessTransport struct {
	rank   int
	world  *InProcessWorld
	closed atomic.Bool
}

func (t *InProcessTransport) Rank() int { return t.rank }
func (t *InProcessTransport) Size() int { return t.world.size }

func (t *InProcessTransport) Internal() Channel {
	return &inProcessChannel{t: t, cs: t.world.internal}
}

func (t *InProcessTransport) External() Channel {
	return &inProcessChannel{t: t, cs: t.world.external}
}

func (t *InProcessTransport) Close() error {
	t.closed.Store(true)
	return nil
}

type inProcessChannel struct {
	t  *InProcessTransport
	cs *collectiveSet
}

func (c *inProcessChannel) AllToAllCounts(ctx context.Context, sendCounts []int) ([]int, error) {
	res, err := c.cs.allToAllCounts.do(ctx, c.t.rank, sendCounts, combineAllToAllCounts)
	if err != nil {
		plog.Errorf("gcomm: all-to-all-counts failed for rank %d: %v", c.t.rank, err)
		return nil, fmt.Errorf("all_to_all_counts: %w", err)
	}
	return res.([]int), nil
}

func (c *inProcessChannel) AllToAllV(ctx context.Context, req AllToAllVRequest) error {
	_, err := c.cs.allToAllV.do(ctx, c.t.rank, req, combineAllToAllV)
	if err != nil {
		plog.Errorf("gcomm: all-to-all-v failed for rank %d: %v", c.t.rank, err)
		return fmt.Errorf("all_to_all_v: %w", err)
	}
	return nil
}

func (c *inProcessChannel) AllReduceSum(ctx context.Context, v int) (int, error) {
	res, err := c.cs.allReduceSum.do(ctx, c.t.rank, v, combineAllReduceSum)
	if err != nil {
		plog.Errorf("gcomm: all-reduce-sum failed for rank %d: %v", c.t.rank, err)
		return 0, fmt.Errorf("all_reduce_sum: %w", err)
	}
	return res.(int), nil
}

func (c *inProcessChannel) Barrier(ctx context.Context) error {
	_, err := c.cs.barrier.do(ctx, c.t.rank, struct{}{}, combineBarrier)
	if err != nil {
		plog.Errorf("gcomm: barrier failed for rank %d: %v", c.t.rank, err)
		return fmt.Errorf("barrier: %w", err)
	}
	return nil
}

func combineAllToAllCounts(contributions []interface{}) []interface{} {
	n := len(contributions)
	sent := make([][]int, n)
	for i, c := range contributions {
		sent[i] = c.([]int)
	}
	results := make([]interface{}, n)
	for dest := 0; dest < n; dest++ {
		recv := make([]int, n)
		for src := 0; src < n; src++ {
			recv[src] = sent[src][dest]
		}
		results[dest] = recv
	}
	return results
}

func combineAllToAllV(contributions []interface{}) []interface{} {
	n := len(contributions)
	reqs := make([]AllToAllVRequest, n)
	for i, c := range contributions {
		reqs[i] = c.(AllToAllVRequest)
	}
	for dest := 0; dest < n; dest++ {
		e := reqs[dest].ElementSize
		for src := 0; src < n; src++ {
			cnt := reqs[src].SendCounts[dest]
			if cnt == 0 {
				continue
			}
			srcOff := reqs[src].SendOffsets[dest] * e
			dstOff := reqs[dest].RecvOffsets[src] * e
			n := cnt * e
			copy(reqs[dest].RecvBuf[dstOff:dstOff+n], reqs[src].SendBuf[srcOff:srcOff+n])
		}
	}
	results := make([]interface{}, n)
	for i := range results {
		results[i] = struct{}{}
	}
	return results
}

func combineAllReduceSum(contributions []interface{}) []interface{} {
	sum := 0
	for _, c := range contributions {
		sum += c.(int)
	}
	results := make([]interface{}, len(contributions))
	for i := range results {
		results[i] = sum
	}
	return results
}

func combineBarrier(contributions []interface{}) []interface{} {
	results := make([]interface{}, len(contributions))
	for i := range results {
		results[i] = struct{}{}
	}
	return results
}

// rendezvous is a reusable, cyclic N-party barrier: the Nth arrival for a
// generation computes a combined result from every participant's
// contribution via combine, then releases every waiter with its per-rank
// slice of the result. Modeled on the in-memory, single-process transport
// substitutes used across the pack for collective/consensus testing (e.g.
// a shared registry of channels standing in for a real network), adapted
// here for synchronous collectives rather than async message passing.
type rendezvous struct {
	mu            sync.Mutex
	cond          *sync.Cond
	n             int
	generation    uint64
	arrived       int
	contributions []interface{}
	results       []interface{}
}

func newRendezvous(n int) *rendezvous {
	r := &rendezvous{n: n, contributions: make([]interface{}, n)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func (r *rendezvous) do(ctx context.Context, rank int, contribution interface{}, combine func([]interface{}) []interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	gen := r.generation
	r.contributions[rank] = contribution
	r.arrived++
	if r.arrived == r.n {
		r.results = combine(r.contributions)
		r.contributions = make([]interface{}, r.n)
		r.arrived = 0
		r.generation++
		r.cond.Broadcast()
	} else {
		for r.generation == gen {
			r.cond.Wait()
		}
	}
	res := r.results[rank]
	r.mu.Unlock()
	return res, ctx.Err()
}

var (
	_ Transport = (*InProcessTransport)(nil)
	_ Channel   = (*inProcessChannel)(nil)
)
