package gcomm

import "github.com/keerthanashanmugam/gcomm/pkg/gcomm/types"

// Sentinel errors returned by this package. Use errors.Is to test for
// them, since every returned error is wrapped with call-specific detail.
var (
	// ErrFatalInit is the error kind for unrecoverable construction
	// failures. New reports an invalid configuration as ErrInvalidArgument,
	// and no code path in this module currently returns ErrFatalInit.
	ErrFatalInit = types.ErrFatalInit

	// ErrFatalTransport is the error kind for failures of the underlying
	// Transport. Transport errors are returned wrapped with the operation
	// and rank but are not wrapped with ErrFatalTransport.
	ErrFatalTransport = types.ErrFatalTransport

	// ErrInvalidArgument is returned for out-of-range ranks, nil payloads,
	// and other caller mistakes.
	ErrInvalidArgument = types.ErrInvalidArgument

	// ErrClosed is returned by any operation attempted after Close.
	ErrClosed = types.ErrClosed
)
