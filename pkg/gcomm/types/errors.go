package types

import "errors"

// Sentinel error kinds. These map to the error kinds of the comm core:
// FatalInitFailure, FatalTransportFailure and InvalidArgument.
// SaturationStall is deliberately not represented as an error: a
// stage_bytes call returning zero granted bytes is ordinary control flow,
// handled by looping through a flush.
var (
	// ErrFatalInit names an unrecoverable construction failure (transport
	// initialization or send-window allocation). No code path in this
	// module currently returns it; an invalid Configuration is reported as
	// ErrInvalidArgument.
	ErrFatalInit = errors.New("gcomm: fatal initialization failure")

	// ErrFatalTransport names a failed collective exchange primitive. The
	// engine returns transport errors wrapped with the operation and rank,
	// not with ErrFatalTransport, and the background flusher logs a failed
	// round and keeps running rather than aborting.
	ErrFatalTransport = errors.New("gcomm: fatal transport failure")

	// ErrInvalidArgument reports a contract violation: an out-of-range
	// target rank, a zero-length payload, or a nil output where one is
	// required.
	ErrInvalidArgument = errors.New("gcomm: invalid argument")

	// ErrClosed is returned by operations attempted after Close has been
	// called.
	ErrClosed = errors.New("gcomm: comm is closed")
)
