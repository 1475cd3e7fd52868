package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxDatagram is the read buffer size for audio and control sockets.
	// An ALAC packet of 352 stereo frames plus the 16-byte retransmit header
	// stays well below it.
	MaxDatagram = 2048

	// MaxHeaderBlock bounds a control request's header block, request line
	// and terminating blank line included.
	MaxHeaderBlock = 16 * 1024

	// MaxContentLength bounds a control request body. Artwork is the
	// largest body a sender transmits.
	MaxContentLength = 8 * 1024 * 1024
)

var (
	// ErrMessageEmpty indicates an empty message was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")

	// ErrInvalidLength indicates a declared length that cannot be used
	ErrInvalidLength = errors.New("invalid length")
)

// ValidateMessageSize validates a message against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(message []byte, maxSize int) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(message), maxSize)
	}
	return nil
}

// ValidateDatagram validates a received datagram against MaxDatagram.
func ValidateDatagram(data []byte) error {
	return ValidateMessageSize(data, MaxDatagram)
}

// ValidateContentLength validates a declared body length before any of the
// body is read.
func ValidateContentLength(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: content length %d", ErrInvalidLength, n)
	}
	if n > MaxContentLength {
		return fmt.Errorf("%w: content length %d exceeds limit %d", ErrMessageTooLarge, n, MaxContentLength)
	}
	return nil
}
