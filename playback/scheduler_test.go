package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opd-ai/airtunes/metrics"
	"github.com/opd-ai/airtunes/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 352 samples per packet; 30ms is crossed between 4 and 5 packets ahead.
const testDelay = 30 * time.Millisecond

func audioPacket(seq uint16) rtp.Packet {
	return rtp.Packet{
		Kind:           rtp.KindNewAudio,
		SequenceNumber: seq,
		Timestamp:      uint32(seq) * 352,
		Payload:        []byte{byte(seq), byte(seq)},
	}
}

func newTestScheduler(t *testing.T, sink Sink, mutate func(*Config)) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PlaybackDelay = testDelay
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewScheduler(sink, cfg, metrics.New())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stats(t *testing.T, s *Scheduler) Stats {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, err := s.Stats(ctx)
	require.NoError(t, err)
	return st
}

// pollStats is for use inside assert.Eventually, where require must not run.
func pollStats(s *Scheduler) Stats {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, _ := s.Stats(ctx)
	return st
}

func insertAll(s *Scheduler, seqs ...uint16) {
	for _, seq := range seqs {
		s.Insert(audioPacket(seq))
	}
}

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name        string
		sink        Sink
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{name: "Valid defaults", sink: &mockSink{}},
		{name: "Nil sink", sink: nil, expectError: true, errorMsg: "nil sink"},
		{name: "Zero buffers", sink: &mockSink{}, mutate: func(c *Config) { c.BufferCount = 0 }, expectError: true, errorMsg: "buffer count"},
		{name: "Zero buffer size", sink: &mockSink{}, mutate: func(c *Config) { c.BufferSize = 0 }, expectError: true, errorMsg: "buffer size"},
		{name: "Negative delay", sink: &mockSink{}, mutate: func(c *Config) { c.PlaybackDelay = -1 }, expectError: true, errorMsg: "negative playback delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			s, err := NewScheduler(tt.sink, cfg, nil)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Len(t, s.free, cfg.BufferCount)
		})
	}
}

func TestScheduler_StartConfiguresDefaultFormat(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, nil)
	stats(t, s)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, DefaultFormat(), sink.format)
	assert.NotNil(t, sink.release)
}

func TestScheduler_GapSkipped(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, nil)

	s.Resync(100)
	s.SetRemotePlaying(true)
	insertAll(s, 100, 101, 103, 104)

	st := stats(t, s)
	assert.Equal(t, [][]uint16{{100, 101, 103, 104}}, sink.enqueuedSequences())
	assert.Equal(t, []byte{100, 100, 101, 101, 103, 103, 104, 104}, sink.payloads[0])
	assert.Equal(t, "playing", st.State)
	assert.True(t, st.Playing)
	assert.Equal(t, uint64(1), st.Skipped)
	assert.Equal(t, uint16(105), st.Buffer.ReadIndex)
	assert.Equal(t, 2, st.FreeBuffers)

	starts, _, _ := sink.counts()
	assert.Equal(t, 1, starts)
}

func TestScheduler_WaitsForPlaybackDelay(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, nil)

	s.Resync(100)
	s.SetRemotePlaying(true)
	insertAll(s, 100, 101, 102, 103)

	st := stats(t, s)
	assert.Empty(t, sink.enqueuedSequences())
	assert.Equal(t, "buffering", st.State)
	assert.False(t, st.Playing)

	insertAll(s, 104)
	st = stats(t, s)
	assert.Equal(t, [][]uint16{{100, 101, 102, 103, 104}}, sink.enqueuedSequences())
	assert.True(t, st.Playing)
}

func TestScheduler_WaitsForRemotePlaying(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, nil)

	s.Resync(0)
	insertAll(s, 0, 1, 2, 3, 4, 5, 6)

	st := stats(t, s)
	assert.Empty(t, sink.enqueuedSequences())
	assert.Equal(t, "buffering", st.State)

	s.SetRemotePlaying(true)
	insertAll(s, 7)
	st = stats(t, s)
	assert.Equal(t, [][]uint16{{0, 1, 2, 3, 4, 5, 6, 7}}, sink.enqueuedSequences())
	assert.True(t, st.Playing)
}

func TestScheduler_SplitsAcrossBuffers(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, func(c *Config) { c.BufferSize = 4 })

	s.Resync(100)
	s.SetRemotePlaying(true)
	insertAll(s, 100, 101, 103, 104)

	st := stats(t, s)
	assert.Equal(t, [][]uint16{{100, 101}, {103, 104}}, sink.enqueuedSequences())
	assert.Equal(t, 1, st.FreeBuffers)
}

func TestScheduler_OversizedPacketDropped(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, func(c *Config) { c.BufferSize = 4 })

	s.Resync(10)
	s.SetRemotePlaying(true)
	s.Insert(rtp.Packet{Kind: rtp.KindNewAudio, SequenceNumber: 10, Timestamp: 0, Payload: make([]byte, 6)})
	insertAll(s, 11)
	s.Insert(rtp.Packet{Kind: rtp.KindNewAudio, SequenceNumber: 12, Timestamp: 44100, Payload: []byte{1}})

	st := stats(t, s)
	assert.Equal(t, [][]uint16{{11}, {12}}, sink.enqueuedSequences())
	assert.Equal(t, uint64(1), st.Skipped)
}

func TestScheduler_ForcedResetOnEnqueueFailure(t *testing.T) {
	sink := &mockSink{enqueueErr: errors.New("device gone")}
	s := newTestScheduler(t, sink, nil)

	s.Resync(100)
	s.SetRemotePlaying(true)
	insertAll(s, 100, 101, 103, 104)

	st := stats(t, s)
	assert.False(t, st.Playing)
	assert.Equal(t, "buffering", st.State)
	assert.Equal(t, uint64(1), st.ForcedResets)
	assert.Equal(t, 3, st.FreeBuffers)
	assert.Equal(t, uint16(104), st.Buffer.ReadIndex)
	assert.Equal(t, uint16(104), st.Buffer.WriteIndex)
	assert.Equal(t, 4, st.Buffer.Occupied, "forced reset keeps slots")

	starts, pauses, _ := sink.counts()
	assert.Equal(t, 0, starts)
	assert.Equal(t, 1, pauses)
}

func TestScheduler_UnderrunForcesReset(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, nil)

	s.Resync(0)
	s.SetRemotePlaying(true)
	insertAll(s, 0, 1, 2, 3, 4)
	require.Equal(t, 2, stats(t, s).FreeBuffers)

	// The only queued buffer plays out and nothing new has arrived.
	require.True(t, sink.releaseOldest())
	assert.Eventually(t, func() bool {
		return pollStats(s).ForcedResets == 1
	}, time.Second, 5*time.Millisecond)

	st := stats(t, s)
	assert.False(t, st.Playing)
	assert.Equal(t, 3, st.FreeBuffers)
}

func TestScheduler_ReleasedBufferRefilled(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, func(c *Config) { c.BufferCount = 1 })

	s.Resync(0)
	s.SetRemotePlaying(true)
	insertAll(s, 0, 1, 2, 3, 4)
	stats(t, s)
	require.Equal(t, [][]uint16{{0, 1, 2, 3, 4}}, sink.enqueuedSequences())

	insertAll(s, 5, 6)
	stats(t, s)
	require.True(t, sink.releaseOldest())

	assert.Eventually(t, func() bool {
		return len(sink.enqueuedSequences()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint16{5, 6}, sink.enqueuedSequences()[1])
}

func TestScheduler_Pause(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, nil)

	s.Resync(0)
	s.SetRemotePlaying(true)
	insertAll(s, 0, 1, 2, 3, 4)
	s.Pause()

	st := stats(t, s)
	assert.Equal(t, "paused", st.State)
	assert.False(t, st.Playing)
	_, pauses, _ := sink.counts()
	assert.Equal(t, 1, pauses)

	s.SetRemotePlaying(true)
	assert.Equal(t, "buffering", stats(t, s).State)
}

func TestScheduler_ResyncClearsState(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, nil)

	s.Resync(0)
	s.SetRemotePlaying(true)
	insertAll(s, 0, 1, 2, 3, 4, 5)
	require.True(t, stats(t, s).Playing)

	s.Resync(500)
	st := stats(t, s)
	assert.Equal(t, "idle", st.State)
	assert.False(t, st.Playing)
	assert.Equal(t, uint16(500), st.Buffer.ReadIndex)
	assert.Equal(t, uint16(500), st.Buffer.WriteIndex)
	assert.Equal(t, 0, st.Buffer.Occupied)
	_, pauses, _ := sink.counts()
	assert.Equal(t, 1, pauses)
}

func TestScheduler_ResetReturnsBuffers(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, nil)

	s.Resync(0)
	s.SetRemotePlaying(true)
	insertAll(s, 0, 1, 2, 3, 4)
	require.True(t, stats(t, s).Playing)
	s.Reset()

	assert.Eventually(t, func() bool {
		return pollStats(s).FreeBuffers == 3
	}, time.Second, 5*time.Millisecond)
	st := stats(t, s)
	assert.False(t, st.Playing)
	assert.Equal(t, "buffering", st.State)
	assert.Empty(t, sink.heldSequences())
}

func TestScheduler_ResetThenResyncDropsOldAudio(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, func(c *Config) { c.BufferSize = 4 })

	s.Resync(0)
	s.SetRemotePlaying(true)
	for seq := uint16(0); seq <= 20; seq++ {
		insertAll(s, seq)
	}
	require.True(t, stats(t, s).Playing)
	require.NotEmpty(t, sink.heldSequences())

	s.Reset()
	s.Resync(1000)
	for seq := uint16(1000); seq <= 1010; seq++ {
		insertAll(s, seq)
	}

	assert.Eventually(t, func() bool {
		held := sink.heldSequences()
		if len(held) == 0 {
			return false
		}
		for _, seq := range held {
			if seq < 1000 {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
	assert.True(t, stats(t, s).Playing)
}

func TestScheduler_ResyncFlushesSink(t *testing.T) {
	sink := &mockSink{}
	s := newTestScheduler(t, sink, nil)

	s.Resync(0)
	s.SetRemotePlaying(true)
	insertAll(s, 0, 1, 2, 3, 4)
	require.True(t, stats(t, s).Playing)
	require.NotEmpty(t, sink.heldSequences())

	s.Resync(100)
	assert.Eventually(t, func() bool {
		return pollStats(s).FreeBuffers == 3
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, sink.heldSequences())
}

func TestScheduler_StatsAfterClose(t *testing.T) {
	s, err := NewScheduler(&mockSink{}, DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Close())

	_, err = s.Stats(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerClosed)
}
