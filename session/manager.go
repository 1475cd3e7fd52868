package session

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/airtunes/crypto"
	"github.com/opd-ai/airtunes/metadata"
	"github.com/opd-ai/airtunes/playback"
	"github.com/opd-ai/airtunes/remote"
	"github.com/opd-ai/airtunes/rtp"
	"github.com/opd-ai/airtunes/rtsp"
	"github.com/sirupsen/logrus"
)

// Playback is the part of playback.Scheduler the manager drives.
type Playback interface {
	Insert(p rtp.Packet)
	Resync(n uint16)
	SetRemotePlaying(on bool)
	Pause()
	Reset()
	Configure(format playback.Format)
	Stats(ctx context.Context) (playback.Stats, error)
}

// Receiver is the part of transport.Receiver the manager drives.
type Receiver interface {
	SetDecrypter(d *crypto.PayloadDecrypter)
	Reset()
	AudioAddr() net.Addr
	ControlAddr() net.Addr
}

// Remote is the part of remote.Client the manager drives.
type Remote interface {
	UpdateToken(token, id string)
	Send(ctx context.Context, cmd remote.Command) error
}

// Config holds identity and fallback ports.
type Config struct {
	HardwareAddress net.HardwareAddr
	// AudioPort and ControlPort are reported to SETUP when the receiver
	// has no bound address.
	AudioPort   int
	ControlPort int
}

// Manager is the session coordinator. All methods are safe for concurrent
// use.
type Manager struct {
	id       string
	cfg      Config
	engine   *crypto.Engine
	playback Playback
	receiver Receiver
	remote   Remote

	mu          sync.RWMutex
	track       metadata.TrackInfo
	player      metadata.PlayerInfo
	subscribers map[int]chan Event
	nextSub     int
	closed      bool
}

var _ rtsp.SessionHandler = (*Manager)(nil)

// NewManager creates a coordinator. receiver and rc may be nil.
func NewManager(cfg Config, engine *crypto.Engine, pb Playback, receiver Receiver, rc Remote) (*Manager, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if pb == nil {
		return nil, ErrNilPlayback
	}
	return &Manager{
		id:          uuid.NewString(),
		cfg:         cfg,
		engine:      engine,
		playback:    pb,
		receiver:    receiver,
		remote:      rc,
		track:       metadata.NewTrackInfo(),
		subscribers: make(map[int]chan Event),
	}, nil
}

// ID returns the manager's log correlation id.
func (m *Manager) ID() string {
	return m.id
}

// Sign answers an Apple-Challenge.
func (m *Manager) Sign(data []byte) ([]byte, error) {
	return m.engine.Sign(data)
}

// HardwareAddress returns the advertised MAC address.
func (m *Manager) HardwareAddress() net.HardwareAddr {
	return m.cfg.HardwareAddress
}

// ServerPorts returns the bound audio and control ports.
func (m *Manager) ServerPorts() (audio, control int) {
	audio, control = m.cfg.AudioPort, m.cfg.ControlPort
	if m.receiver == nil {
		return audio, control
	}
	if addr, ok := m.receiver.AudioAddr().(*net.UDPAddr); ok && addr != nil {
		audio = addr.Port
	}
	if addr, ok := m.receiver.ControlAddr().(*net.UDPAddr); ok && addr != nil {
		control = addr.Port
	}
	return audio, control
}

// BeginPlayback marks the sender as playing.
func (m *Manager) BeginPlayback() {
	playing := true
	m.UpdatePlayerInfo(metadata.Values{IsPlaying: &playing})
	m.logger("Manager.BeginPlayback").Info("Playback session started")
}

// ResetPlayback flushes queued output and makes the next packet resync the
// jitter buffer.
func (m *Manager) ResetPlayback() {
	m.playback.Reset()
	if m.receiver != nil {
		m.receiver.Reset()
	}
	m.logger("Manager.ResetPlayback").Debug("Playback reset")
}

// EndPlayback clears the track, pauses output and marks the sender stopped.
func (m *Manager) EndPlayback() {
	m.mu.Lock()
	m.track.Reset()
	m.mu.Unlock()
	m.publish(EventTrackInfo)

	m.playback.Pause()

	playing := false
	m.UpdatePlayerInfo(metadata.Values{IsPlaying: &playing})
	m.logger("Manager.EndPlayback").Info("Playback session ended")
}

// UpdateRemote forwards the Active-Remote token.
func (m *Manager) UpdateRemote(token, id string) {
	if m.remote != nil {
		m.remote.UpdateToken(token, id)
	}
}

// UpdateEncryption installs the stream's payload key and decoder format.
// A stream without key material leaves the receiver without a decrypter,
// so its packets are dropped.
func (m *Manager) UpdateEncryption(info metadata.SDPInfo) error {
	if info.Fmtp != "" {
		cfg, err := playback.ParseFmtp(info.Fmtp)
		if err != nil {
			m.logger("Manager.UpdateEncryption").WithError(err).Warn("Ignoring unusable fmtp")
		} else {
			m.playback.Configure(cfg.Format())
		}
	}

	if m.receiver == nil {
		return nil
	}
	if !info.IsEncrypted() {
		m.receiver.SetDecrypter(nil)
		m.logger("Manager.UpdateEncryption").Error("Session description carries no payload key")
		return crypto.ErrNoKeyMaterial
	}

	key, err := m.engine.Decrypt(info.EncryptedKey)
	if err != nil {
		m.receiver.SetDecrypter(nil)
		return fmt.Errorf("unwrap payload key: %w", err)
	}
	defer crypto.ZeroBytes(key)
	dec, err := crypto.NewPayloadDecrypter(key, info.IV)
	if err != nil {
		m.receiver.SetDecrypter(nil)
		return fmt.Errorf("payload decrypter: %w", err)
	}
	m.receiver.SetDecrypter(dec)

	m.logger("Manager.UpdateEncryption").WithField("codec", info.Codec).Info("Session key installed")
	return nil
}

// UpdateTrackInfo merges v into the track record.
func (m *Manager) UpdateTrackInfo(v metadata.Values) {
	m.mu.Lock()
	changed := m.track.Apply(v)
	m.mu.Unlock()
	if changed {
		m.publish(EventTrackInfo)
	}
}

// UpdatePlayerInfo merges v into the player record. A change of the
// playing flag gates the playback scheduler.
func (m *Manager) UpdatePlayerInfo(v metadata.Values) {
	m.mu.Lock()
	changed := m.player.Apply(v)
	playing := m.player.IsPlaying
	m.mu.Unlock()

	if v.IsPlaying != nil {
		m.playback.SetRemotePlaying(playing)
	}
	if changed {
		m.publish(EventPlayerInfo)
	}
}

// TrackInfo returns a snapshot of the track record.
func (m *Manager) TrackInfo() metadata.TrackInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.track.Clone()
}

// PlayerInfo returns a snapshot of the player record.
func (m *Manager) PlayerInfo() metadata.PlayerInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.player
}

// Stats returns the scheduler's state.
func (m *Manager) Stats(ctx context.Context) (playback.Stats, error) {
	return m.playback.Stats(ctx)
}

// Play asks the sender to toggle playback.
func (m *Manager) Play(ctx context.Context) error {
	return m.send(ctx, remote.CommandPlayPause)
}

// Pause asks the sender to pause.
func (m *Manager) Pause(ctx context.Context) error {
	return m.send(ctx, remote.CommandPause)
}

// Next asks the sender to skip to the next track.
func (m *Manager) Next(ctx context.Context) error {
	return m.send(ctx, remote.CommandNext)
}

// Previous asks the sender to go back a track.
func (m *Manager) Previous(ctx context.Context) error {
	return m.send(ctx, remote.CommandPrevious)
}

func (m *Manager) send(ctx context.Context, cmd remote.Command) error {
	if m.remote == nil {
		return ErrNoRemoteControl
	}
	return m.remote.Send(ctx, cmd)
}

// Subscribe returns a channel of events and a function that cancels the
// subscription and closes the channel. buffer is the channel capacity.
func (m *Manager) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if sub, ok := m.subscribers[id]; ok {
				delete(m.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close ends every subscription.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for id, ch := range m.subscribers {
		delete(m.subscribers, id)
		close(ch)
	}
	return nil
}

// publish sends a snapshot to every subscriber without blocking.
func (m *Manager) publish(t EventType) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ev := Event{
		Type:   t,
		Track:  m.track.Clone(),
		Player: m.player,
		Time:   time.Now(),
	}
	for id, ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			logrus.WithFields(logrus.Fields{
				"function":   "Manager.publish",
				"session_id": m.id,
				"subscriber": id,
				"event":      string(t),
			}).Debug("Subscriber full, event dropped")
		}
	}
}

func (m *Manager) logger(function string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"function":   function,
		"session_id": m.id,
	})
}
