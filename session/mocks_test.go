package session

import (
	"context"
	"net"
	"sync"

	"github.com/opd-ai/airtunes/crypto"
	"github.com/opd-ai/airtunes/playback"
	"github.com/opd-ai/airtunes/remote"
	"github.com/opd-ai/airtunes/rtp"
)

type mockPlayback struct {
	mu        sync.Mutex
	calls     []string
	remote    []bool
	formats   []playback.Format
	inserted  []rtp.Packet
	statsErr  error
	statsResp playback.Stats
}

func (m *mockPlayback) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockPlayback) Insert(p rtp.Packet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, p)
}

func (m *mockPlayback) Resync(uint16) { m.record("resync") }
func (m *mockPlayback) Pause()        { m.record("pause") }
func (m *mockPlayback) Reset()        { m.record("reset") }

func (m *mockPlayback) SetRemotePlaying(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remote = append(m.remote, on)
}

func (m *mockPlayback) Configure(f playback.Format) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formats = append(m.formats, f)
}

func (m *mockPlayback) Stats(context.Context) (playback.Stats, error) {
	return m.statsResp, m.statsErr
}

type mockReceiver struct {
	mu         sync.Mutex
	decrypters []*crypto.PayloadDecrypter
	resets     int
	audio      net.Addr
	control    net.Addr
}

func (m *mockReceiver) SetDecrypter(d *crypto.PayloadDecrypter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decrypters = append(m.decrypters, d)
}

func (m *mockReceiver) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
}

func (m *mockReceiver) AudioAddr() net.Addr   { return m.audio }
func (m *mockReceiver) ControlAddr() net.Addr { return m.control }

type mockRemote struct {
	mu       sync.Mutex
	tokens   [][2]string
	commands []remote.Command
	err      error
}

func (m *mockRemote) UpdateToken(token, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, [2]string{token, id})
}

func (m *mockRemote) Send(_ context.Context, cmd remote.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, cmd)
	return m.err
}
