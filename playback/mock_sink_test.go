package playback

import (
	"sync"
)

// mockSink records calls and only releases buffers when told to.
type mockSink struct {
	mu         sync.Mutex
	release    ReleaseFunc
	format     Format
	enqueueErr error
	held       []*Buffer
	enqueued   [][]uint16
	payloads   [][]byte
	starts     int
	pauses     int
	resets     int
	closed     bool
}

func (m *mockSink) Open(release ReleaseFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release = release
	return nil
}

func (m *mockSink) Configure(format Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.format = format
	return nil
}

func (m *mockSink) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	return nil
}

func (m *mockSink) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	return nil
}

func (m *mockSink) Reset() error {
	m.mu.Lock()
	m.resets++
	held := m.held
	m.held = nil
	release := m.release
	m.mu.Unlock()

	for _, b := range held {
		release(b)
	}
	return nil
}

func (m *mockSink) Enqueue(b *Buffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	var seqs []uint16
	for _, d := range b.Descriptions() {
		seqs = append(seqs, d.SequenceNumber)
	}
	m.enqueued = append(m.enqueued, seqs)
	m.payloads = append(m.payloads, append([]byte(nil), b.Bytes()...))
	m.held = append(m.held, b)
	return nil
}

func (m *mockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// releaseOldest plays the oldest held buffer.
func (m *mockSink) releaseOldest() bool {
	m.mu.Lock()
	if len(m.held) == 0 {
		m.mu.Unlock()
		return false
	}
	b := m.held[0]
	m.held = m.held[1:]
	release := m.release
	m.mu.Unlock()

	release(b)
	return true
}

func (m *mockSink) enqueuedSequences() [][]uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]uint16(nil), m.enqueued...)
}

// heldSequences lists the sequence numbers of every buffer still queued.
func (m *mockSink) heldSequences() []uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var seqs []uint16
	for _, b := range m.held {
		for _, d := range b.Descriptions() {
			seqs = append(seqs, d.SequenceNumber)
		}
	}
	return seqs
}

func (m *mockSink) counts() (starts, pauses, resets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.pauses, m.resets
}
