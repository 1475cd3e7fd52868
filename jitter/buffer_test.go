package jitter

import (
	"math/rand"
	"testing"
	"time"

	"github.com/opd-ai/airtunes/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packet(seq uint16) rtp.Packet {
	return rtp.Packet{
		Kind:           rtp.KindNewAudio,
		SequenceNumber: seq,
		Timestamp:      uint32(seq) * 352,
		Payload:        []byte{byte(seq >> 8), byte(seq)},
	}
}

func assertRingInvariant(t *testing.T, b *Buffer) {
	t.Helper()
	for i, p := range b.packets {
		if p.IsEmpty() {
			continue
		}
		require.Equal(t, i, int(p.SequenceNumber)%Capacity, "slot %d holds %d", i, p.SequenceNumber)
	}
}

// drain mirrors the output path: skip non-sequential slots, collect the rest.
func drain(b *Buffer) []uint16 {
	var got []uint16
	for b.Pending() {
		if b.IsSequential() {
			got = append(got, b.Head().SequenceNumber)
		}
		b.Advance()
	}
	return got
}

func TestBuffer_Insert(t *testing.T) {
	tests := []struct {
		name       string
		resync     uint16
		insert     []uint16
		accepted   []bool
		writeIndex uint16
	}{
		{
			name:       "In order",
			resync:     10,
			insert:     []uint16{10, 11, 12},
			accepted:   []bool{true, true, true},
			writeIndex: 12,
		},
		{
			name:       "Out of order keeps newest write index",
			resync:     10,
			insert:     []uint16{12, 10, 11},
			accepted:   []bool{true, true, true},
			writeIndex: 12,
		},
		{
			name:       "Duplicate rejected",
			resync:     5,
			insert:     []uint16{5, 5},
			accepted:   []bool{true, false},
			writeIndex: 5,
		},
		{
			name:       "Older packet for occupied slot rejected",
			resync:     1024,
			insert:     []uint16{2048, 1024},
			accepted:   []bool{true, false},
			writeIndex: 2048,
		},
		{
			name:       "Newer packet overwrites slot",
			resync:     0,
			insert:     []uint16{0, 1024},
			accepted:   []bool{true, true},
			writeIndex: 1024,
		},
		{
			name:       "Wraparound",
			resync:     65534,
			insert:     []uint16{65534, 65535, 0, 1},
			accepted:   []bool{true, true, true, true},
			writeIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			b.Resync(tt.resync)
			for i, seq := range tt.insert {
				assert.Equal(t, tt.accepted[i], b.Insert(packet(seq)), "insert %d", seq)
			}
			assert.Equal(t, tt.writeIndex, b.WriteIndex())
			assert.Equal(t, tt.resync, b.ReadIndex())
			assertRingInvariant(t, b)
		})
	}
}

func TestBuffer_InsertEmptyRejected(t *testing.T) {
	b := New()
	assert.False(t, b.Insert(rtp.Packet{}))
	assert.Equal(t, 0, b.Stats().Occupied)
}

func TestBuffer_RingInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := New()
	b.Resync(uint16(rng.Intn(65536)))
	base := b.ReadIndex()

	for i := 0; i < 20000; i++ {
		seq := base + uint16(rng.Intn(4096)) - 2048
		b.Insert(packet(seq))
		if i%97 == 0 {
			base += uint16(rng.Intn(64))
		}
	}
	assertRingInvariant(t, b)
}

func TestBuffer_Resync(t *testing.T) {
	b := New()
	for seq := uint16(300); seq < 900; seq++ {
		b.Insert(packet(seq))
	}
	b.Advance()

	for _, n := range []uint16{0, 7, 65535, 40000} {
		b.Resync(n)
		assert.Equal(t, n, b.ReadIndex())
		assert.Equal(t, n, b.WriteIndex())
		assert.Equal(t, 0, b.Stats().Occupied)
	}
}

func TestBuffer_Idempotence(t *testing.T) {
	once := New()
	twice := New()
	once.Resync(100)
	twice.Resync(100)

	for _, seq := range []uint16{100, 103, 101} {
		once.Insert(packet(seq))
		twice.Insert(packet(seq))
		twice.Insert(packet(seq))
	}
	assert.Equal(t, once, twice)
}

func TestBuffer_GapSkipped(t *testing.T) {
	b := New()
	b.Resync(100)
	for _, seq := range []uint16{100, 101, 103, 104} {
		require.True(t, b.Insert(packet(seq)))
	}

	assert.Equal(t, []uint16{100, 101, 103, 104}, drain(b))
	assert.Equal(t, uint16(105), b.ReadIndex())
	assert.False(t, b.Pending())
}

func TestBuffer_LateRetransmitDropped(t *testing.T) {
	b := New()
	b.Resync(100)
	for _, seq := range []uint16{100, 102} {
		b.Insert(packet(seq))
	}
	assert.Equal(t, []uint16{100, 102}, drain(b))

	// 101 arrives after the cursor passed it.
	b.Insert(packet(101))
	assert.False(t, b.Pending())
	assert.Empty(t, drain(b))
}

func TestBuffer_StaleSlotSkipped(t *testing.T) {
	b := New()
	b.Resync(0)
	b.Insert(packet(0))
	drain(b)

	// Slot 0 still holds sequence 0 when the cursor reaches 1024.
	for seq := uint16(1); seq <= 1023; seq++ {
		b.Insert(packet(seq))
	}
	drain(b)
	b.Insert(packet(1025))

	assert.Equal(t, uint16(1024), b.ReadIndex())
	assert.False(t, b.IsSequential())
	assert.Equal(t, []uint16{1025}, drain(b))
}

func TestBuffer_AvailableDelay(t *testing.T) {
	b := New()
	b.Resync(0)
	b.Insert(packet(0))

	tests := []struct {
		name string
		p    rtp.Packet
		want time.Duration
	}{
		{name: "Same packet", p: packet(0), want: 0},
		{name: "One second ahead", p: rtp.Packet{Kind: rtp.KindNewAudio, Timestamp: 44100}, want: time.Second},
		{name: "Two seconds ahead", p: rtp.Packet{Kind: rtp.KindNewAudio, Timestamp: 88200}, want: 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.AvailableDelay(tt.p))
		})
	}
}

func TestBuffer_AvailableDelayTimestampWrap(t *testing.T) {
	b := New()
	b.Resync(9)
	b.Insert(rtp.Packet{Kind: rtp.KindNewAudio, SequenceNumber: 9, Timestamp: 0xFFFFFFFF - 44099})

	later := rtp.Packet{Kind: rtp.KindNewAudio, SequenceNumber: 10, Timestamp: 44100}
	assert.Equal(t, 2*time.Second, b.AvailableDelay(later))
}

func TestBuffer_CatchUp(t *testing.T) {
	b := New()
	b.Resync(50)
	for seq := uint16(50); seq < 60; seq++ {
		b.Insert(packet(seq))
	}

	b.CatchUp()
	assert.Equal(t, uint16(59), b.ReadIndex())
	assert.Equal(t, 10, b.Stats().Occupied)
	assert.Equal(t, []uint16{59}, drain(b))
}

func TestBuffer_Stats(t *testing.T) {
	b := New()
	b.Resync(65530)
	for _, seq := range []uint16{65530, 65531, 2} {
		b.Insert(packet(seq))
	}

	assert.Equal(t, Stats{ReadIndex: 65530, WriteIndex: 2, Distance: 8, Occupied: 3}, b.Stats())
}
