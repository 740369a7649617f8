package core

import "context"

// BarrierFlush drains the current send group exactly once, the same as
// Flush, but does the collective exchange over the external channel so it
// never interleaves with the background flusher's internal-channel
// activity (spec.md §4.5).
func (e *Engine) BarrierFlush(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.flushMu.Lock()
	defer e.flushMu.Unlock()
	return e.flushLocked(ctx, e.tr.External())
}

// Barrier flushes the internal channel repeatedly until both send groups
// report nothing pending, then performs one plain external-channel Barrier
// collective. This guarantees every peer has fully drained its
// already-staged data before any peer proceeds past the barrier (spec.md
// §4.5), without needing to reason about in-flight internal collectives
// racing the external one.
func (e *Engine) Barrier(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}

	for {
		if err := e.Flush(ctx); err != nil {
			return err
		}
		if !e.hasPending() {
			break
		}
	}

	if err := e.tr.External().Barrier(ctx); err != nil {
		return e.wrapf("barrier", err)
	}
	return nil
}

func (e *Engine) hasPending() bool {
	for _, g := range e.send.groups {
		for i := 0; i < e.size; i++ {
			if g.lengths[i].Load() > 0 {
				return true
			}
		}
	}
	return false
}
