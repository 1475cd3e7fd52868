// Package transport implements the UDP side of an AirPlay audio session.
//
// Two sockets are bound: the audio data port, where the sender streams new
// packets, and the control port, where it sends sync packets and answers
// retransmission requests. [UDPTransport] is a single bound socket with a
// read loop; [Receiver] owns both and routes every datagram through
//
//	rtp.Parse -> crypto.PayloadDecrypter -> PacketSink.Insert
//
// # Retransmission
//
// When a new audio packet does not follow the last one seen, the receiver
// asks the control peer for the missing range, provided the peer's address
// is known (it is learned from any datagram on the control port) and fewer
// than the retransmit limit (128) packets are missing. Requests are fire
// and forget: a resent packet arrives on the control port like any other and
// is not matched against its request.
//
// The first new packet of a session resynchronizes the sink to its sequence
// number. [Receiver.Reset] forgets the last sequence number so the next new
// packet resynchronizes again.
//
// # Concurrency
//
// Each socket has its own read goroutine. A mutex serializes the two so
// sequence tracking sees one ordered stream.
package transport
