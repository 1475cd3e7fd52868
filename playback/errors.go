package playback

import "errors"

var (
	// ErrEmptyBuffer indicates a buffer was due for enqueue with no packets.
	// It is handled like a sink rejection.
	ErrEmptyBuffer = errors.New("output buffer holds no packets")

	// ErrSinkClosed indicates an operation on a closed sink.
	ErrSinkClosed = errors.New("sink closed")

	// ErrSchedulerClosed indicates the scheduler goroutine has exited.
	ErrSchedulerClosed = errors.New("scheduler closed")

	// ErrInvalidConfig indicates unusable scheduler settings.
	ErrInvalidConfig = errors.New("invalid scheduler config")

	// ErrInvalidFormat indicates a malformed magic cookie or fmtp line.
	ErrInvalidFormat = errors.New("invalid audio format")
)
