package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/opd-ai/airtunes/crypto"
	"github.com/opd-ai/airtunes/metrics"
	"github.com/opd-ai/airtunes/rtp"
	"github.com/sirupsen/logrus"
)

// DefaultRetransmitLimit is the largest gap, exclusive, worth asking for.
const DefaultRetransmitLimit = 128

// PacketSink accepts decrypted packets. playback.Scheduler satisfies it.
type PacketSink interface {
	Insert(p rtp.Packet)
	Resync(n uint16)
}

// packetSender is the part of UDPTransport the receiver sends through.
type packetSender interface {
	Send(data []byte, addr net.Addr) error
}

// ReceiverConfig holds the receiver's bind addresses and retransmit limit.
type ReceiverConfig struct {
	AudioAddr       string
	ControlAddr     string
	RetransmitLimit int
}

// Receiver owns the audio and control sockets of a session.
type Receiver struct {
	cfg     ReceiverConfig
	sink    PacketSink
	metrics *metrics.Collector

	mu          sync.Mutex
	audio       *UDPTransport
	controlConn *UDPTransport
	control     packetSender
	controlPeer net.Addr
	decrypter   *crypto.PayloadDecrypter
	last        uint16
	hasLast     bool
	keyMissing  bool
}

// NewReceiver creates a receiver feeding sink. The collector may be nil.
func NewReceiver(cfg ReceiverConfig, sink PacketSink, m *metrics.Collector) (*Receiver, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	if cfg.RetransmitLimit <= 0 {
		cfg.RetransmitLimit = DefaultRetransmitLimit
	}
	return &Receiver{cfg: cfg, sink: sink, metrics: m}, nil
}

// Start binds the audio and control sockets.
func (r *Receiver) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.audio != nil {
		return ErrAlreadyStarted
	}

	control, err := NewUDPTransport(r.cfg.ControlAddr, r.handleControl)
	if err != nil {
		return fmt.Errorf("bind control port %s: %w", r.cfg.ControlAddr, err)
	}
	audio, err := NewUDPTransport(r.cfg.AudioAddr, r.handleAudio)
	if err != nil {
		_ = control.Close()
		return fmt.Errorf("bind audio port %s: %w", r.cfg.AudioAddr, err)
	}

	r.audio = audio
	r.controlConn = control
	r.control = control

	logrus.WithFields(logrus.Fields{
		"function":     "Receiver.Start",
		"audio_addr":   audio.LocalAddr().String(),
		"control_addr": control.LocalAddr().String(),
	}).Info("RTP receiver listening")
	return nil
}

// Close closes both sockets.
func (r *Receiver) Close() error {
	r.mu.Lock()
	audio, control := r.audio, r.controlConn
	r.mu.Unlock()

	var errs []error
	if audio != nil {
		errs = append(errs, audio.Close())
	}
	if control != nil {
		errs = append(errs, control.Close())
	}
	return errors.Join(errs...)
}

// AudioAddr returns the bound audio address, or nil before Start.
func (r *Receiver) AudioAddr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.audio == nil {
		return nil
	}
	return r.audio.LocalAddr()
}

// ControlAddr returns the bound control address, or nil before Start.
func (r *Receiver) ControlAddr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.controlConn == nil {
		return nil
	}
	return r.controlConn.LocalAddr()
}

// ControlPeer returns the last address seen on the control port.
func (r *Receiver) ControlPeer() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controlPeer
}

// SetDecrypter installs the session's payload decrypter. Passing nil makes
// every packet fail with crypto.ErrNoKeyMaterial.
func (r *Receiver) SetDecrypter(d *crypto.PayloadDecrypter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decrypter = d
	r.keyMissing = false
}

// Reset forgets the last sequence number. The next new packet resyncs the
// sink.
func (r *Receiver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasLast = false
}

func (r *Receiver) handleAudio(data []byte, _ net.Addr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.process(data)
}

func (r *Receiver) handleControl(data []byte, addr net.Addr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controlPeer = addr
	r.process(data)
}

// process runs with r.mu held.
func (r *Receiver) process(data []byte) {
	pkt, err := rtp.Parse(data)
	if err != nil {
		r.metrics.PacketDropped(metrics.ReasonMalformed)
		return
	}
	r.metrics.PacketReceived(pkt.Kind.String())

	if pkt.Kind == rtp.KindNewAudio {
		r.handleNewAudio(pkt)
	}

	plain, err := r.decrypter.Decrypt(pkt.Payload)
	if err != nil {
		r.metrics.PacketDropped(metrics.ReasonNoKey)
		if !r.keyMissing {
			r.keyMissing = true
			logrus.WithFields(logrus.Fields{
				"function": "Receiver.process",
				"sequence": pkt.SequenceNumber,
				"error":    err.Error(),
			}).Error("Dropping audio: no session key")
		}
		return
	}
	r.sink.Insert(pkt.WithPayload(plain))
}

func (r *Receiver) handleNewAudio(pkt rtp.Packet) {
	r.requestMissing(pkt)

	if !r.hasLast {
		r.sink.Resync(pkt.SequenceNumber)
		r.last = pkt.SequenceNumber
		r.hasLast = true
	}
	if rtp.IsNewer(pkt.SequenceNumber, r.last) {
		r.last = pkt.SequenceNumber
	}
}

func (r *Receiver) requestMissing(pkt rtp.Packet) {
	if !r.hasLast {
		return
	}
	expected := r.last + 1
	if pkt.SequenceNumber == expected {
		return
	}
	missing := int(rtp.Distance(expected, pkt.SequenceNumber))
	if r.controlPeer == nil || r.control == nil || missing >= r.cfg.RetransmitLimit {
		return
	}

	req := rtp.RetransmitRequest{Start: expected, Count: uint16(missing)}
	if err := r.control.Send(req.Marshal(), r.controlPeer); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Receiver.requestMissing",
			"peer":     r.controlPeer.String(),
			"error":    err.Error(),
		}).Debug("Retransmit request not sent")
		return
	}
	r.metrics.RetransmitRequested(missing)

	logrus.WithFields(logrus.Fields{
		"function": "Receiver.requestMissing",
		"start":    expected,
		"count":    missing,
		"current":  pkt.SequenceNumber,
		"last":     r.last,
	}).Debug("Requested retransmission")
}
