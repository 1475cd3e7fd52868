package airtunes

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/opd-ai/airtunes/advertise"
	"github.com/opd-ai/airtunes/api"
	"github.com/opd-ai/airtunes/crypto"
	"github.com/opd-ai/airtunes/metadata"
	"github.com/opd-ai/airtunes/metrics"
	"github.com/opd-ai/airtunes/playback"
	"github.com/opd-ai/airtunes/remote"
	"github.com/opd-ai/airtunes/rtsp"
	"github.com/opd-ai/airtunes/session"
	"github.com/opd-ai/airtunes/transport"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyStarted is returned by a second call to Start.
var ErrAlreadyStarted = errors.New("receiver already started")

// AirTunes is a complete receiver: control server, audio sockets, playback
// scheduler, remote control client and optional advertisement and HTTP API.
type AirTunes struct {
	options *Options

	metrics   *metrics.Collector
	engine    *crypto.Engine
	sink      playback.Sink
	scheduler *playback.Scheduler
	receiver  *transport.Receiver
	remote    *remote.Client
	manager   *session.Manager
	rtsp      *rtsp.Server
	api       *api.Server

	mu         sync.Mutex
	started    bool
	advertiser *advertise.Advertiser
	ctx        context.Context
	cancel     context.CancelFunc
	apiDone    chan struct{}
}

// New builds a receiver from options. Nothing listens until Start.
func New(options *Options) (*AirTunes, error) {
	if options == nil {
		options = NewOptions()
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	key, err := loadKey(options.KeyFile)
	if err != nil {
		return nil, err
	}
	engine, err := crypto.NewEngine(key)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	sink := options.Sink
	if sink == nil {
		sink = playback.NewNullSink()
	}
	scheduler, err := playback.NewScheduler(sink, playback.Config{
		BufferCount:   options.BufferCount,
		BufferSize:    options.BufferSize,
		PlaybackDelay: options.PlaybackDelay,
	}, m)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	receiver, err := transport.NewReceiver(transport.ReceiverConfig{
		AudioAddr:       options.addr(options.AudioPort),
		ControlAddr:     options.addr(options.ControlPort),
		RetransmitLimit: options.RetransmitLimit,
	}, scheduler, m)
	if err != nil {
		return nil, fmt.Errorf("create receiver: %w", err)
	}

	rc := remote.NewClient(remote.NewZeroconfResolver(), nil)

	manager, err := session.NewManager(session.Config{
		HardwareAddress: options.HardwareAddress,
		AudioPort:       options.AudioPort,
		ControlPort:     options.ControlPort,
	}, engine, scheduler, receiver, rc)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	registry := rtsp.NewRegistry()
	manager.RegisterBodies(registry)

	server, err := rtsp.NewServer(rtsp.ServerConfig{
		ListenAddr:  options.addr(options.RTSPPort),
		IdleTimeout: options.IdleTimeout,
	}, manager, registry, m)
	if err != nil {
		return nil, fmt.Errorf("create rtsp server: %w", err)
	}

	a := &AirTunes{
		options:   options,
		metrics:   m,
		engine:    engine,
		sink:      sink,
		scheduler: scheduler,
		receiver:  receiver,
		remote:    rc,
		manager:   manager,
		rtsp:      server,
	}
	if options.APIAddr != "" {
		a.api = api.New(manager, m)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "New",
		"name":       options.Name,
		"session_id": manager.ID(),
		"rtsp_port":  options.RTSPPort,
		"api":        options.APIAddr != "",
	}).Info("Receiver created")
	return a, nil
}

func loadKey(path string) (*rsa.PrivateKey, error) {
	if path != "" {
		key, err := crypto.LoadPrivateKey(path)
		if err != nil {
			return nil, fmt.Errorf("load private key: %w", err)
		}
		return key, nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "loadKey",
	}).Warn("No key file configured, generating an ephemeral key; AirPlay senders will reject challenge responses")
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}
	return key, nil
}

// Start runs the scheduler, binds every socket and publishes the
// advertisement. A failed advertisement is logged and does not stop the
// receiver.
func (a *AirTunes) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return ErrAlreadyStarted
	}

	a.ctx, a.cancel = context.WithCancel(context.Background())
	if err := a.scheduler.Start(a.ctx); err != nil {
		a.cancel()
		return err
	}
	if err := a.receiver.Start(); err != nil {
		a.cancel()
		return err
	}
	if err := a.rtsp.Start(); err != nil {
		a.cancel()
		_ = a.receiver.Close()
		return fmt.Errorf("start rtsp server: %w", err)
	}
	a.started = true

	if a.options.Advertise {
		a.publish()
	}
	if a.api != nil {
		a.apiDone = make(chan struct{})
		go a.runAPI(a.ctx, a.apiDone)
	}
	return nil
}

func (a *AirTunes) publish() {
	port := a.options.RTSPPort
	if addr, ok := a.rtsp.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	adv, err := advertise.Publish(advertise.Config{
		Name:            a.options.Name,
		HardwareAddress: a.options.HardwareAddress,
		Port:            port,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "AirTunes.publish",
			"error":    err.Error(),
		}).Warn("Advertisement failed, receiver reachable by address only")
		return
	}
	a.advertiser = adv
}

func (a *AirTunes) runAPI(ctx context.Context, done chan struct{}) {
	defer close(done)
	if err := a.api.Run(ctx, a.options.APIAddr); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "AirTunes.runAPI",
			"addr":     a.options.APIAddr,
			"error":    err.Error(),
		}).Error("HTTP API stopped")
	}
}

// Close stops every component. It is safe to call more than once.
func (a *AirTunes) Close() error {
	a.mu.Lock()
	cancel, apiDone, adv := a.cancel, a.apiDone, a.advertiser
	a.advertiser = nil
	a.apiDone = nil
	a.mu.Unlock()

	var errs []error
	errs = append(errs, adv.Close())
	errs = append(errs, a.rtsp.Close())
	errs = append(errs, a.receiver.Close())
	if cancel != nil {
		cancel()
	}
	if apiDone != nil {
		<-apiDone
	}
	errs = append(errs, a.scheduler.Close())
	errs = append(errs, a.remote.Close())
	errs = append(errs, a.manager.Close())

	logrus.WithFields(logrus.Fields{
		"function": "AirTunes.Close",
	}).Info("Receiver closed")
	return errors.Join(errs...)
}

// Play asks the sender to toggle playback.
func (a *AirTunes) Play(ctx context.Context) error {
	return a.manager.Play(ctx)
}

// Pause asks the sender to pause.
func (a *AirTunes) Pause(ctx context.Context) error {
	return a.manager.Pause(ctx)
}

// Next asks the sender to skip to the next track.
func (a *AirTunes) Next(ctx context.Context) error {
	return a.manager.Next(ctx)
}

// Previous asks the sender to go back a track.
func (a *AirTunes) Previous(ctx context.Context) error {
	return a.manager.Previous(ctx)
}

// TrackInfo returns a copy of the current track metadata.
func (a *AirTunes) TrackInfo() metadata.TrackInfo {
	return a.manager.TrackInfo()
}

// PlayerInfo returns the current player state.
func (a *AirTunes) PlayerInfo() metadata.PlayerInfo {
	return a.manager.PlayerInfo()
}

// Subscribe streams metadata changes. Call the returned function to stop.
func (a *AirTunes) Subscribe(buffer int) (<-chan session.Event, func()) {
	return a.manager.Subscribe(buffer)
}

// Stats returns a playback snapshot.
func (a *AirTunes) Stats(ctx context.Context) (playback.Stats, error) {
	return a.manager.Stats(ctx)
}

// RTSPAddr returns the control server address, or nil before Start.
func (a *AirTunes) RTSPAddr() net.Addr {
	return a.rtsp.Addr()
}

// AudioAddr returns the audio socket address, or nil before Start.
func (a *AirTunes) AudioAddr() net.Addr {
	return a.receiver.AudioAddr()
}

// ControlAddr returns the control socket address, or nil before Start.
func (a *AirTunes) ControlAddr() net.Addr {
	return a.receiver.ControlAddr()
}

// PublicKey returns the key senders wrap session keys with.
func (a *AirTunes) PublicKey() *rsa.PublicKey {
	return a.engine.PublicKey()
}

// Metrics returns the receiver's collector.
func (a *AirTunes) Metrics() *metrics.Collector {
	return a.metrics
}
