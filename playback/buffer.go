package playback

import (
	"time"

	"github.com/opd-ai/airtunes/rtp"
)

// PacketDescription locates one encoded packet inside a Buffer.
type PacketDescription struct {
	SequenceNumber uint16
	Offset         int
	Size           int
}

// Buffer is a fixed-capacity output buffer holding whole packets back to
// back. Buffers are owned by the scheduler except between Sink.Enqueue and
// the matching release.
type Buffer struct {
	id           int
	data         []byte
	descriptions []PacketDescription
}

func newBuffer(id, size int) *Buffer {
	return &Buffer{
		id:   id,
		data: make([]byte, 0, size),
	}
}

// ID identifies the buffer within its pool.
func (b *Buffer) ID() int { return b.id }

// Bytes returns the packed payloads.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of payload bytes held.
func (b *Buffer) Len() int { return len(b.data) }

// Capacity returns the maximum number of payload bytes.
func (b *Buffer) Capacity() int { return cap(b.data) }

// PacketCount returns the number of packets held.
func (b *Buffer) PacketCount() int { return len(b.descriptions) }

// Descriptions returns where each packet sits in Bytes.
func (b *Buffer) Descriptions() []PacketDescription { return b.descriptions }

// Fits reports whether n more bytes fit.
func (b *Buffer) Fits(n int) bool {
	return len(b.data)+n <= cap(b.data)
}

// Duration is the playing time of the buffer in format f.
func (b *Buffer) Duration(f Format) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	frames := uint64(len(b.descriptions)) * uint64(f.FramesPerPacket)
	return time.Duration(frames * uint64(time.Second) / uint64(f.SampleRate))
}

func (b *Buffer) add(p rtp.Packet) {
	b.descriptions = append(b.descriptions, PacketDescription{
		SequenceNumber: p.SequenceNumber,
		Offset:         len(b.data),
		Size:           len(p.Payload),
	})
	b.data = append(b.data, p.Payload...)
}

func (b *Buffer) reset() {
	b.data = b.data[:0]
	b.descriptions = b.descriptions[:0]
}
