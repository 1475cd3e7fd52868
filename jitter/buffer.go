package jitter

import (
	"time"

	"github.com/opd-ai/airtunes/rtp"
	"github.com/sirupsen/logrus"
)

const (
	// Capacity is the number of slots in the ring.
	Capacity = 1024

	// SampleRate is the RTP timestamp clock of AirPlay audio.
	SampleRate = 44100

	slotMask = Capacity - 1
)

// Buffer is a 1024-slot ring of packets indexed by sequence number.
// The zero value is an empty buffer with both cursors at 0.
type Buffer struct {
	packets    [Capacity]rtp.Packet
	readIndex  uint16
	writeIndex uint16
}

// Stats is a point-in-time view of the buffer for debug output.
type Stats struct {
	ReadIndex  uint16 `json:"read_index"`
	WriteIndex uint16 `json:"write_index"`
	Distance   uint16 `json:"distance"`
	Occupied   int    `json:"occupied"`
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Insert stores p in its slot.
//
// The packet is rejected when the slot already holds a packet that is not
// older than p, which makes duplicate inserts no-ops. On accept, the write
// index moves to p if p is strictly newer.
//
// Parameters:
//   - p: decrypted packet; empty packets are rejected
//
// Returns:
//   - bool: whether the packet was stored
func (b *Buffer) Insert(p rtp.Packet) bool {
	if p.IsEmpty() {
		return false
	}

	idx := slot(p.SequenceNumber)
	old := b.packets[idx]
	if !old.IsEmpty() && !rtp.IsStrictlyNewer(p.SequenceNumber, old.SequenceNumber) {
		logrus.WithFields(logrus.Fields{
			"function":     "Buffer.Insert",
			"sequence":     p.SequenceNumber,
			"slot_holding": old.SequenceNumber,
		}).Debug("Rejected packet not newer than slot")
		return false
	}

	b.packets[idx] = p
	if rtp.IsStrictlyNewer(p.SequenceNumber, b.writeIndex) {
		b.writeIndex = p.SequenceNumber
	}
	return true
}

// Resync sets both cursors to n and clears every slot.
func (b *Buffer) Resync(n uint16) {
	logrus.WithFields(logrus.Fields{
		"function":       "Buffer.Resync",
		"sequence":       n,
		"previous_read":  b.readIndex,
		"previous_write": b.writeIndex,
	}).Info("Resynchronizing jitter buffer")

	b.packets = [Capacity]rtp.Packet{}
	b.readIndex = n
	b.writeIndex = n
}

// AvailableDelay estimates how much audio is buffered ahead of the read
// cursor: the timestamp distance from the packet at the read cursor to p,
// converted at SampleRate. An empty read slot counts as timestamp 0.
func (b *Buffer) AvailableDelay(p rtp.Packet) time.Duration {
	head := b.packets[slot(b.readIndex)]
	samples := uint64(p.Timestamp - head.Timestamp)
	return time.Duration(samples * uint64(time.Second) / SampleRate)
}

// Pending reports whether the read cursor has not yet passed the write
// cursor. The packet at the write index itself is still pending.
func (b *Buffer) Pending() bool {
	return rtp.IsNewer(b.writeIndex, b.readIndex)
}

// Head returns the slot at the read cursor. The caller compares its sequence
// number against ReadIndex to tell a sequential packet from a stale or
// missing one.
func (b *Buffer) Head() rtp.Packet {
	return b.packets[slot(b.readIndex)]
}

// IsSequential reports whether the head slot holds exactly the packet the
// read cursor expects.
func (b *Buffer) IsSequential() bool {
	head := b.Head()
	return !head.IsEmpty() && head.SequenceNumber == b.readIndex
}

// Advance moves the read cursor forward by one.
func (b *Buffer) Advance() {
	b.readIndex++
}

// CatchUp drops everything buffered ahead of the read cursor by moving it
// to the write cursor. Slots keep their packets.
func (b *Buffer) CatchUp() {
	b.readIndex = b.writeIndex
}

// ReadIndex returns the next sequence number the output expects.
func (b *Buffer) ReadIndex() uint16 {
	return b.readIndex
}

// WriteIndex returns the newest accepted sequence number.
func (b *Buffer) WriteIndex() uint16 {
	return b.writeIndex
}

// Stats returns the cursor positions and slot occupancy.
func (b *Buffer) Stats() Stats {
	occupied := 0
	for i := range b.packets {
		if !b.packets[i].IsEmpty() {
			occupied++
		}
	}
	return Stats{
		ReadIndex:  b.readIndex,
		WriteIndex: b.writeIndex,
		Distance:   rtp.Distance(b.readIndex, b.writeIndex),
		Occupied:   occupied,
	}
}

func slot(seq uint16) int {
	return int(seq) & slotMask
}
