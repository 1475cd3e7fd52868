package rtsp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/airtunes/metrics"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultIdleTimeout closes a connection that sends nothing for this
	// long. Senders keep the connection alive with periodic requests.
	DefaultIdleTimeout = 30 * time.Second

	writeTimeout = 5 * time.Second
)

// SessionHandler is the session coordinator as seen from the control
// channel.
type SessionHandler interface {
	Signer
	BeginPlayback()
	ResetPlayback()
	EndPlayback()
	HardwareAddress() net.HardwareAddr
	ServerPorts() (audio, control int)
	UpdateRemote(token, id string)
}

// ServerConfig configures a Server.
type ServerConfig struct {
	ListenAddr string
	// IdleTimeout bounds the wait for the next request. Zero disables it.
	IdleTimeout time.Duration
	// SessionID is returned in the SETUP Session header.
	SessionID string
}

// Server accepts control connections. At most one connection is the
// session connection; a SETUP on any connection closes all the others.
type Server struct {
	cfg      ServerConfig
	handler  SessionHandler
	registry *Registry
	metrics  *metrics.Collector

	listener net.Listener
	clients  map[string]*conn
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a server. A nil registry discards every body; the
// collector may be nil.
func NewServer(cfg ServerConfig, handler SessionHandler, registry *Registry, m *metrics.Collector) (*Server, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if cfg.SessionID == "" {
		cfg.SessionID = "1"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		handler:  handler,
		registry: registry,
		metrics:  m,
		clients:  make(map[string]*conn),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start listens and begins accepting connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return ErrServerStarted
	}

	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = listener

	logrus.WithFields(logrus.Fields{
		"function":      "Server.Start",
		"listen_addr":   listener.Addr().String(),
		"content_types": s.registry.ContentTypes(),
	}).Info("RTSP server listening")

	s.wg.Add(1)
	go s.acceptConnections(listener)
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of open control connections.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close stops accepting, closes every connection and waits for their
// goroutines.
func (s *Server) Close() error {
	s.cancel()

	s.mu.Lock()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for _, c := range s.clients {
		c.close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// acceptConnections handles incoming connections until the listener closes.
func (s *Server) acceptConnections(listener net.Listener) {
	defer s.wg.Done()
	for {
		netConn, err := listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logrus.WithFields(logrus.Fields{
				"function": "Server.acceptConnections",
				"error":    err.Error(),
			}).Warn("Accept failed")
			time.Sleep(50 * time.Millisecond)
			continue
		}

		c := newConn(s, netConn)
		if !s.registerClient(c) {
			netConn.Close()
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.unregisterClient(c)
			c.serve()
		}()
	}
}

// registerClient adds a connection unless the server is closing.
func (s *Server) registerClient(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.clients[c.id] = c
	s.metrics.ConnectionOpened()

	logrus.WithFields(logrus.Fields{
		"function":    "Server.registerClient",
		"conn_id":     c.id,
		"remote_addr": c.remoteAddr(),
	}).Info("Control connection opened")
	return true
}

// unregisterClient removes and closes a connection.
func (s *Server) unregisterClient(c *conn) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	c.close()
	s.metrics.ConnectionClosed()

	logrus.WithFields(logrus.Fields{
		"function": "Server.unregisterClient",
		"conn_id":  c.id,
	}).Info("Control connection closed")
}

// setSession makes c the session connection by closing every other one.
func (s *Server) setSession(c *conn) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, other := range s.clients {
		if id == c.id {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"function":   "Server.setSession",
			"conn_id":    id,
			"session_id": c.id,
		}).Info("Disconnecting superseded control connection")
		other.close()
	}
}

func newConnID() string {
	return uuid.NewString()
}
