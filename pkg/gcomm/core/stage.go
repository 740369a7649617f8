package core

import (
	"context"
	"time"

	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/types"
)

// stageBackoffLimit bounds the retry loop used when a destination's slot in
// the current group is full (a reservation grants zero bytes). Per the
// resolution of the failed-header-stage open question (SPEC_FULL.md §10),
// Send forces a flush rather than spinning unboundedly once this many
// consecutive reservation failures have been observed.
const stageBackoffLimit = 3

// Send frames payload with a length header and zero padding up to a
// multiple of the element size (spec.md §4.1, §6), then stages the framed
// bytes into dest's slot of the current send group, forcing a flush and
// retrying if the slot is saturated.
func (e *Engine) Send(ctx context.Context, dest int, payload []byte) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if dest < 0 || dest >= e.size {
		return e.wrapf("send", types.ErrInvalidArgument)
	}

	framed := frameMessage(payload, e.cfg.ElementSize)

	e.destMu[dest].Lock()
	defer e.destMu[dest].Unlock()

	written := 0
	attempts := 0
	for written < len(framed) {
		idx, g := e.send.currentGroup()
		g.acquire()

		// Double-check the group is still current after acquiring a
		// reference; if a swap raced us, release and retry against the new
		// current group instead of staging into one that is draining.
		if cur, _ := e.send.currentGroup(); cur != idx {
			g.release()
			continue
		}

		grant := g.reserve(dest, len(framed)-written)
		if grant == 0 {
			g.release()
			attempts++
			if attempts >= stageBackoffLimit {
				if err := e.Flush(ctx); err != nil {
					return e.wrapf("send", err)
				}
				attempts = 0
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond):
			}
			continue
		}

		off := g.slotOffset[dest] + int(g.lengths[dest].Load()) - grant
		copy(g.window[off:off+grant], framed[written:written+grant])
		written += grant
		attempts = 0
		g.release()
	}

	return nil
}

// frameMessage builds the wire frame of spec.md §6: an 8-byte little-endian
// length header followed by payload, zero-padded up to a multiple of
// element.
func frameMessage(payload []byte, element int) []byte {
	total := types.PadUp(types.HeaderSize+len(payload), element)
	buf := make([]byte, total)
	types.EncodeHeader(buf, len(payload))
	copy(buf[types.HeaderSize:], payload)
	return buf
}
