package rtsp

import "errors"

var (
	// ErrMalformedRequest indicates a header block without a request line.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrHeaderTooLarge indicates a header block over limits.MaxHeaderBlock.
	ErrHeaderTooLarge = errors.New("header block too large")

	// ErrInvalidChallenge indicates an Apple-Challenge that is not base64.
	ErrInvalidChallenge = errors.New("invalid challenge")

	// ErrServerStarted indicates Start was called twice.
	ErrServerStarted = errors.New("server already started")

	// ErrNilHandler indicates a server built without a session handler.
	ErrNilHandler = errors.New("session handler cannot be nil")
)
