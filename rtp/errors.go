package rtp

import "errors"

// Parse errors. Callers drop the datagram; neither is surfaced further.
var (
	// ErrShortPacket indicates the datagram is shorter than its header.
	ErrShortPacket = errors.New("datagram shorter than header")

	// ErrUnknownPayloadType indicates a payload type other than 96 or 86.
	ErrUnknownPayloadType = errors.New("unknown payload type")
)
