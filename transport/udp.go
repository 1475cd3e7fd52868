package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/airtunes/limits"
	"github.com/sirupsen/logrus"
)

// Handler processes one received datagram. data is only valid until the
// handler returns.
type Handler func(data []byte, addr net.Addr)

// UDPTransport is a bound UDP socket with a read loop feeding a Handler.
// Datagrams are handled one at a time on the read goroutine.
type UDPTransport struct {
	conn       net.PacketConn
	listenAddr net.Addr
	handler    Handler
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewUDPTransport binds listenAddr and starts reading.
func NewUDPTransport(listenAddr string, handler Handler) (*UDPTransport, error) {
	conn, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	transport := &UDPTransport{
		conn:       conn,
		listenAddr: conn.LocalAddr(),
		handler:    handler,
		ctx:        ctx,
		cancel:     cancel,
	}

	logrus.WithFields(logrus.Fields{
		"function":   "NewUDPTransport",
		"local_addr": transport.listenAddr.String(),
	}).Debug("UDP transport bound")

	transport.wg.Add(1)
	go transport.processPackets()

	return transport, nil
}

// Send writes data to addr.
func (t *UDPTransport) Send(data []byte, addr net.Addr) error {
	if t.ctx.Err() != nil {
		return ErrTransportClosed
	}
	_, err := t.conn.WriteTo(data, addr)
	return err
}

// Close stops the read loop and closes the socket.
func (t *UDPTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.cancel()
		err = t.conn.Close()
		t.wg.Wait()
	})
	return err
}

// LocalAddr returns the bound address.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.listenAddr
}

// processPackets runs until Close.
func (t *UDPTransport) processPackets() {
	defer t.wg.Done()
	// One spare byte so an oversized datagram reads as too large instead of
	// being truncated to the limit.
	buffer := make([]byte, limits.MaxDatagram+1)

	for {
		select {
		case <-t.ctx.Done():
			return
		default:
			t.processIncomingPacket(buffer)
		}
	}
}

// processIncomingPacket reads and dispatches a single datagram.
func (t *UDPTransport) processIncomingPacket(buffer []byte) {
	data, addr, err := t.readPacketData(buffer)
	if err != nil {
		return
	}
	if err := limits.ValidateDatagram(data); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "UDPTransport.processIncomingPacket",
			"remote":   addr,
			"error":    err.Error(),
		}).Debug("Dropping datagram")
		return
	}
	if t.handler != nil {
		t.handler(data, addr)
	}
}

// readPacketData reads with a short deadline so Close is noticed promptly.
func (t *UDPTransport) readPacketData(buffer []byte) ([]byte, net.Addr, error) {
	_ = t.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

	n, addr, err := t.conn.ReadFrom(buffer)
	if err != nil {
		return nil, nil, t.handleReadError(err)
	}

	return buffer[:n], addr, nil
}

// handleReadError logs anything other than deadline expiry and shutdown.
func (t *UDPTransport) handleReadError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return err
	}
	if t.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"function":   "UDPTransport.readPacketData",
		"local_addr": t.listenAddr.String(),
		"error":      err.Error(),
	}).Warn("UDP read failed")
	return err
}
