package rtp

import (
	"encoding/binary"
	"fmt"

	pionrtp "github.com/pion/rtp"
)

// Kind discriminates the packet variants.
type Kind uint8

const (
	// KindEmpty marks a slot with no packet.
	KindEmpty Kind = iota
	// KindNewAudio is a first-time audio packet (payload type 96).
	KindNewAudio
	// KindRetransmitted is an audio packet resent on request (payload type 86).
	KindRetransmitted
)

// Payload types carried in the second header byte, marker bit masked off.
const (
	PayloadTypeNewAudio      uint8 = 96
	PayloadTypeRetransmitted uint8 = 86

	markerMask uint8 = 0x7F
)

// Header lengths per variant.
const (
	NewAudioHeaderLength      = 12
	RetransmittedHeaderLength = 16
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNewAudio:
		return "new"
	case KindRetransmitted:
		return "retransmitted"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Packet is a parsed audio packet. The zero value is the empty sentinel.
type Packet struct {
	Kind           Kind
	SequenceNumber uint16
	Timestamp      uint32
	Payload        []byte
}

// IsEmpty reports whether p is the empty sentinel.
func (p Packet) IsEmpty() bool {
	return p.Kind == KindEmpty
}

// WithPayload returns a copy of p carrying payload instead of its own.
// The receive path uses it to swap the encrypted payload for the plaintext.
func (p Packet) WithPayload(payload []byte) Packet {
	p.Payload = payload
	return p
}

// PayloadType returns the payload type of a datagram with the marker bit
// cleared. It returns false for datagrams shorter than two bytes.
func PayloadType(data []byte) (uint8, bool) {
	if len(data) < 2 {
		return 0, false
	}
	return data[1] & markerMask, true
}

// Parse decodes a raw datagram. The returned payload is a copy, so the caller
// may reuse data for the next read.
func Parse(data []byte) (Packet, error) {
	pt, ok := PayloadType(data)
	if !ok {
		return Packet{}, ErrShortPacket
	}

	var (
		kind      Kind
		headerLen int
		seqOff    int
	)
	switch pt {
	case PayloadTypeNewAudio:
		kind, headerLen, seqOff = KindNewAudio, NewAudioHeaderLength, 2
	case PayloadTypeRetransmitted:
		kind, headerLen, seqOff = KindRetransmitted, RetransmittedHeaderLength, 6
	default:
		return Packet{}, fmt.Errorf("%w: %d", ErrUnknownPayloadType, pt)
	}

	if len(data) < headerLen {
		return Packet{}, fmt.Errorf("%w: %d bytes, need %d", ErrShortPacket, len(data), headerLen)
	}

	payload := make([]byte, len(data)-headerLen)
	copy(payload, data[headerLen:])

	return Packet{
		Kind:           kind,
		SequenceNumber: binary.BigEndian.Uint16(data[seqOff : seqOff+2]),
		Timestamp:      binary.BigEndian.Uint32(data[seqOff+2 : seqOff+6]),
		Payload:        payload,
	}, nil
}

// FromPion converts a decoded pion/rtp packet into a new audio packet.
// Senders and tests that already hold a pion packet use it to skip a
// marshal/parse round trip.
func FromPion(p *pionrtp.Packet) Packet {
	payload := make([]byte, len(p.Payload))
	copy(payload, p.Payload)
	return Packet{
		Kind:           KindNewAudio,
		SequenceNumber: p.SequenceNumber,
		Timestamp:      p.Timestamp,
		Payload:        payload,
	}
}
