package rtp

import (
	"encoding/binary"
	"fmt"
)

// RetransmitRequestLength is the encoded size of a RetransmitRequest.
const RetransmitRequestLength = 8

// retransmitPrefix is the fixed RTP-like header: version 2, marker set,
// payload type 0x55, sequence number 1.
var retransmitPrefix = [4]byte{0x80, 0xD5, 0x00, 0x01}

// RetransmitRequest asks the sender to resend Count packets starting at Start.
type RetransmitRequest struct {
	Start uint16
	Count uint16
}

// Marshal encodes the request for the control port.
func (r RetransmitRequest) Marshal() []byte {
	buf := make([]byte, RetransmitRequestLength)
	copy(buf, retransmitPrefix[:])
	binary.BigEndian.PutUint16(buf[4:6], r.Start)
	binary.BigEndian.PutUint16(buf[6:8], r.Count)
	return buf
}

// UnmarshalRetransmitRequest decodes a request produced by Marshal.
func UnmarshalRetransmitRequest(data []byte) (RetransmitRequest, error) {
	if len(data) < RetransmitRequestLength {
		return RetransmitRequest{}, fmt.Errorf("%w: %d bytes, need %d", ErrShortPacket, len(data), RetransmitRequestLength)
	}
	if data[0] != retransmitPrefix[0] || data[1] != retransmitPrefix[1] {
		return RetransmitRequest{}, fmt.Errorf("%w: %d", ErrUnknownPayloadType, data[1]&markerMask)
	}
	return RetransmitRequest{
		Start: binary.BigEndian.Uint16(data[4:6]),
		Count: binary.BigEndian.Uint16(data[6:8]),
	}, nil
}
