package core

import (
	"context"
	"errors"
	"time"
)

// runFlusher is the background flush goroutine: every FlushInterval it
// drains the current send group over the internal channel, then
// participates in a distributed termination all-reduce. Each rank
// contributes 1 once its own Close has been called and 0 otherwise; the
// loop exits only once the sum reaches the group size, i.e. every rank has
// asked to stop (spec.md §4.6). This keeps a closing rank's flusher an
// active collective participant for as long as any other rank still needs
// it, so no peer is ever left waiting on a partner that vanished mid-flush.
func (e *Engine) runFlusher() {
	defer close(e.flusherDone)

	ticker := time.NewTicker(e.cfg.FlushInterval)
	defer ticker.Stop()

	for range ticker.C {
		done, err := e.flushAndReduce()
		if err != nil {
			e.log.Errorf("termination all-reduce failed: %v", err)
			continue
		}
		if done {
			return
		}
	}
}

// flushAndReduce drains the current send group and immediately contributes
// this rank's termination state to the all-reduce, both under flushMu held
// as a single outer-locked step (spec.md §4.2, §4.6): Flush takes the same
// lock, so it can never be granted in the gap between this rank's flush and
// its reduce contribution. Without that, a Send-forced flush racing a
// background flush-then-reduce sequence could deliver two of this rank's
// contributions to the in-process rendezvous out of step with its peers.
func (e *Engine) flushAndReduce() (done bool, err error) {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushDeadline)
	ferr := e.flushLocked(ctx, e.tr.Internal())
	cancel()
	if ferr != nil && !errors.Is(ferr, context.DeadlineExceeded) {
		e.log.Errorf("background flush failed: %v", ferr)
	}

	local := 0
	if e.localDone.Load() {
		local = 1
	}
	sum, err := e.tr.Internal().AllReduceSum(context.Background(), local)
	if err != nil {
		return false, err
	}
	return sum == e.size, nil
}
