package transport

import "errors"

var (
	// ErrTransportClosed indicates a send on a closed transport.
	ErrTransportClosed = errors.New("transport closed")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("receiver already started")

	// ErrNilSink indicates a receiver built without a packet sink.
	ErrNilSink = errors.New("packet sink cannot be nil")
)
