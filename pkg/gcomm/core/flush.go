package core

import (
	"context"
	"runtime"
)

// Flush drains the current send group: it swaps the current-group selector
// so new Sends land in the other group, spin-waits until no writer still
// holds a reference into the drained group, exchanges the staged bytes with
// every peer over the internal channel, scatters the results into the
// per-source receive buffers, and finally resets the drained group for
// reuse (spec.md §4.2, §4.3).
//
// Flush is safe to call concurrently with itself and with the background
// flusher; flushMu serializes every internal-channel collective so two
// callers never race to drain the same group, and so a forced flush from
// Send can never land between the background flusher's own flush and its
// termination-reduce contribution (see runFlusher).
func (e *Engine) Flush(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	e.flushMu.Lock()
	defer e.flushMu.Unlock()
	return e.flushLocked(ctx, e.tr.Internal())
}

func (e *Engine) flushLocked(ctx context.Context, ch Channel) error {
	drainIdx := e.send.swap()
	g := e.send.groups[drainIdx]

	for !g.unique() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			runtime.Gosched()
		}
	}

	sendCounts := make([]int, e.size)
	for i := range sendCounts {
		sendCounts[i] = int(g.lengths[i].Load()) / e.cfg.ElementSize
	}

	recvCounts, err := ch.AllToAllCounts(ctx, sendCounts)
	if err != nil {
		return e.wrapf("flush", err)
	}

	sendOffsets := make([]int, e.size)
	for i, off := range g.slotOffset {
		sendOffsets[i] = off / e.cfg.ElementSize
	}

	recvTotal := 0
	recvOffsets := make([]int, e.size)
	for i, c := range recvCounts {
		recvOffsets[i] = recvTotal
		recvTotal += c
	}
	recvBuf := make([]byte, recvTotal*e.cfg.ElementSize)

	req := AllToAllVRequest{
		SendBuf:     g.window,
		SendCounts:  sendCounts,
		SendOffsets: sendOffsets,
		RecvBuf:     recvBuf,
		RecvCounts:  recvCounts,
		RecvOffsets: recvOffsets,
		ElementSize: e.cfg.ElementSize,
	}
	if err := ch.AllToAllV(ctx, req); err != nil {
		return e.wrapf("flush", err)
	}

	for src := 0; src < e.size; src++ {
		n := recvCounts[src] * e.cfg.ElementSize
		if n == 0 {
			continue
		}
		off := recvOffsets[src] * e.cfg.ElementSize
		e.recv[src].scatter(recvBuf[off : off+n])
	}

	g.reset(e.size, e.cfg.ReclaimIdle)
	return nil
}
