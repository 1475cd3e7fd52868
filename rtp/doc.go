// Package rtp parses RAOP audio datagrams and encodes retransmission requests.
//
// AirPlay audio arrives as RTP-like UDP datagrams in two layouts:
//
//   - payload type 96: a new audio packet with a 12-byte header
//   - payload type 86: a retransmitted audio packet, the original 12-byte
//     header wrapped behind a 4-byte prefix (16 bytes in total)
//
// Parse turns a datagram into a Packet, a small tagged union whose Kind says
// which layout it came from. KindEmpty is the sentinel used by the jitter
// buffer for slots that hold nothing.
//
//	pkt, err := rtp.Parse(datagram)
//	if err != nil {
//	    return // unknown or truncated datagrams are dropped
//	}
//
// # Sequence Arithmetic
//
// Sequence numbers are 16-bit and wrap. IsNewer applies the half-range rule:
// b is newer than a iff (b - a) mod 65536 < 32768. Every component that
// orders packets uses it, so the jitter buffer's slot overwrite decision and
// its write cursor can never disagree.
//
// # Retransmission Requests
//
// A RetransmitRequest asks the sender's control port to resend Count packets
// starting at Start. The wire form is the fixed prefix 0x80 0xD5 0x00 0x01
// followed by two big-endian 16-bit fields.
package rtp
