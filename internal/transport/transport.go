package transport

import (
	"context"
	"errors"
)

// Errors
var (
	ErrNotConnected  = errors.New("transport not connected")
	ErrAlreadyClosed = errors.New("transport already closed")
)

// Adapter is a thin capability wrapper around a platform connection
// primitive. One adapter serves one connection attempt; reconnects
// discard the old adapter and open a fresh one.
type Adapter interface {
	// Open establishes the connection and begins delivering events to
	// the Handler. Blocks until the connection is established or fails.
	Open(ctx context.Context, url string) error

	// Send writes one text frame. Returns ErrNotConnected if the
	// connection is not open.
	Send(data []byte) error

	// Close shuts the connection down. Safe to call multiple times;
	// no events are delivered after Close returns.
	Close() error
}

// Handler receives connection events. Calls arrive from the adapter's
// own read goroutine, with no ordering guarantee relative to other
// activity sources; implementations must serialize their own state.
type Handler interface {
	// HandleOpen is called once the connection is established.
	HandleOpen()

	// HandleMessage delivers one received text frame.
	HandleMessage(data []byte)

	// HandleClose is called when the peer closes the connection with a
	// close code, or the connection drops with one attached.
	HandleClose(code int, reason string)

	// HandleError is called for failures without a protocol close code
	// (dial resets, read errors, network loss).
	HandleError(err error)
}
