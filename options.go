package gcomm

import (
	"time"

	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/types"
)

// Option configures a Comm at construction time.
type Option func(*types.Configuration)

// WithWindowSize sets W, the total send-window size in bytes shared across
// all peer slots. Required; there is no sane default since it depends on
// the peer group size.
func WithWindowSize(bytes int) Option {
	return func(c *types.Configuration) { c.WindowSize = bytes }
}

// WithElementSize overrides E, the fixed transport quantum in bytes.
// Defaults to types.DefaultElementSize.
func WithElementSize(bytes int) Option {
	return func(c *types.Configuration) { c.ElementSize = bytes }
}

// WithFlushInterval overrides the background flusher's polling cadence.
// Defaults to types.DefaultFlushInterval.
func WithFlushInterval(d time.Duration) Option {
	return func(c *types.Configuration) { c.FlushInterval = d }
}

// WithReclaimIdle overrides the opportunistic window-reclamation idle
// threshold. Defaults to types.DefaultReclaimIdle.
func WithReclaimIdle(d time.Duration) Option {
	return func(c *types.Configuration) { c.ReclaimIdle = d }
}

// WithLogger installs a custom types.Logger. Defaults to
// definition.DefaultLogger, a standard-library log.Logger writing to
// stderr.
func WithLogger(l types.Logger) Option {
	return func(c *types.Configuration) { c.Logger = l }
}
