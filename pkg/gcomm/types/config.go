package types

import (
	"fmt"
	"time"
)

// Default tuning values, matching spec.md's literal configuration.
const (
	// DefaultElementSize is the fixed transport quantum E, in bytes.
	DefaultElementSize = 8

	// DefaultFlushInterval is the background flusher's sleep cadence.
	DefaultFlushInterval = 10 * time.Millisecond

	// DefaultReclaimIdle is how long must pass since a send group's last
	// window reclamation before the next reset reclaims its window again.
	DefaultReclaimIdle = 10 * time.Second
)

// Configuration holds everything a Comm needs that is not supplied by the
// transport itself: the send-window size, the transport element size, the
// flusher and reclamation timings, and the pluggable Logger. The local
// rank and the peer group size are not part of it; they always come from
// the Transport.
type Configuration struct {
	// WindowSize is W, the total send-window size in bytes, shared across
	// all N peer slots. Must be at least Size*ElementSize.
	WindowSize int

	// ElementSize is E, the fixed transport quantum in bytes.
	ElementSize int

	// FlushInterval is the background flusher's polling cadence.
	FlushInterval time.Duration

	// ReclaimIdle is the opportunistic-reclamation threshold.
	ReclaimIdle time.Duration

	// Logger receives diagnostic output. A DefaultLogger is used when nil.
	Logger Logger
}

// WithDefaults returns a copy of c with zero-valued fields replaced by the
// package defaults.
func (c Configuration) WithDefaults() Configuration {
	if c.ElementSize == 0 {
		c.ElementSize = DefaultElementSize
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.ReclaimIdle == 0 {
		c.ReclaimIdle = DefaultReclaimIdle
	}
	return c
}

// Validate checks the configuration against a peer group of the given
// size, returning ErrInvalidArgument (wrapped with detail) on violation.
//
// Per the open question on flush-on-failed-header-stage (see
// SPEC_FULL.md §10), Validate also enforces that a single peer's slot can
// hold at least one frame header, so that stage_bytes for a header can
// never be permanently stuck granting zero bytes.
func (c Configuration) Validate(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: peer group size must be positive, got %d", ErrInvalidArgument, size)
	}
	if c.ElementSize <= 0 {
		return fmt.Errorf("%w: element size must be positive, got %d", ErrInvalidArgument, c.ElementSize)
	}
	if c.WindowSize < size*c.ElementSize {
		return fmt.Errorf("%w: window size %d must be at least size*element_size (%d)", ErrInvalidArgument, c.WindowSize, size*c.ElementSize)
	}
	if c.PerPeerCapacity(size) < PadUp(HeaderSize, c.ElementSize) {
		return fmt.Errorf("%w: per-peer capacity %d must be at least one frame header (%d)", ErrInvalidArgument, c.PerPeerCapacity(size), HeaderSize)
	}
	return nil
}

// PerPeerCapacity computes floor(W/N/E)*E, the number of bytes each of the
// size peer slots in the send window may hold.
func (c Configuration) PerPeerCapacity(size int) int {
	perSlot := c.WindowSize / size
	return (perSlot / c.ElementSize) * c.ElementSize
}
