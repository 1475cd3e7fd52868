package remote

import "errors"

var (
	// ErrNoRemote indicates no sender has announced a remote token.
	ErrNoRemote = errors.New("no remote announced")

	// ErrNotFound indicates no _dacp._tcp instance matched the DACP-ID.
	ErrNotFound = errors.New("remote service not found")

	// ErrCommandFailed indicates the remote answered with a non-2xx status.
	ErrCommandFailed = errors.New("remote command failed")

	// ErrClientClosed indicates a command on a closed client.
	ErrClientClosed = errors.New("remote client closed")
)
