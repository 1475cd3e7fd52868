package rtsp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/airtunes/limits"
	"github.com/sirupsen/logrus"
)

// conn is one control connection.
type conn struct {
	id        string
	server    *Server
	netConn   net.Conn
	reader    *bufio.Reader
	closeOnce sync.Once
}

func newConn(s *Server, netConn net.Conn) *conn {
	return &conn{
		id:      newConnID(),
		server:  s,
		netConn: netConn,
		reader:  bufio.NewReader(netConn),
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		_ = c.netConn.Close()
	})
}

func (c *conn) remoteAddr() string {
	return c.netConn.RemoteAddr().String()
}

// serve reads and answers requests until the connection fails or closes.
func (c *conn) serve() {
	for {
		if timeout := c.server.cfg.IdleTimeout; timeout > 0 {
			_ = c.netConn.SetReadDeadline(time.Now().Add(timeout))
		}

		req, err := c.readRequest()
		if err != nil {
			c.logReadError(err)
			return
		}
		if err := c.handle(req); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "conn.serve",
				"conn_id":  c.id,
				"method":   req.Method,
				"error":    err.Error(),
			}).Warn("Failed to write response")
			return
		}
	}
}

func (c *conn) logReadError(err error) {
	fields := logrus.Fields{
		"function": "conn.serve",
		"conn_id":  c.id,
		"error":    err.Error(),
	}
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		logrus.WithFields(fields).Debug("Control connection ended")
	case errors.As(err, &netErr) && netErr.Timeout():
		logrus.WithFields(fields).Info("Control connection timed out")
	default:
		logrus.WithFields(fields).Warn("Dropping control connection")
	}
}

// readRequest reads one header block and its body.
func (c *conn) readRequest() (*Request, error) {
	block, err := readHeaderBlock(c.reader)
	if err != nil {
		return nil, err
	}
	req, err := ParseRequest(block)
	if err != nil {
		return nil, err
	}

	length, err := req.ContentLength()
	if err != nil {
		return nil, err
	}
	if err := limits.ValidateContentLength(length); err != nil {
		return nil, err
	}
	if length > 0 {
		req.Body = make([]byte, length)
		if _, err := io.ReadFull(c.reader, req.Body); err != nil {
			return nil, fmt.Errorf("read %d byte body: %w", length, err)
		}
	}
	return req, nil
}

// readHeaderBlock reads up to and including the blank line ending a header
// block. Blank lines before the request line are skipped.
func readHeaderBlock(r *bufio.Reader) ([]byte, error) {
	var block []byte
	lineStart := 0
	for {
		part, err := r.ReadSlice('\n')
		if len(block)+len(part) > limits.MaxHeaderBlock {
			return nil, ErrHeaderTooLarge
		}
		block = append(block, part...)

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(bytes.TrimSpace(block)) > 0 {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		line := block[lineStart:]
		lineStart = len(block)
		if len(bytes.TrimRight(line, "\r\n")) == 0 {
			if len(bytes.TrimSpace(block)) == 0 {
				block = block[:0]
				lineStart = 0
				continue
			}
			return block, nil
		}
	}
}

// handle runs the method, consumes the body, answers, then updates the
// remote token.
func (c *conn) handle(req *Request) error {
	c.server.metrics.RTSPRequest(req.Method)

	logrus.WithFields(logrus.Fields{
		"function":       "conn.handle",
		"conn_id":        c.id,
		"method":         req.Method,
		"uri":            req.URI,
		"cseq":           req.CSeq(),
		"content_type":   req.ContentType(),
		"content_length": len(req.Body),
	}).Debug("RTSP request")

	c.handleMethod(req)
	c.dispatchBody(req)

	if err := c.respond(req); err != nil {
		return err
	}

	if token, id, ok := req.RemoteToken(); ok {
		c.server.handler.UpdateRemote(token, id)
	}
	return nil
}

func (c *conn) handleMethod(req *Request) {
	h := c.server.handler
	switch req.Method {
	case MethodSetup:
		c.server.setSession(c)
		h.BeginPlayback()
	case MethodRecord, MethodFlush:
		if info := req.Header(HeaderRTPInfo); info != "" {
			logrus.WithFields(logrus.Fields{
				"function": "conn.handleMethod",
				"conn_id":  c.id,
				"method":   req.Method,
				"rtp_info": info,
			}).Debug("Playback reset")
		}
		h.ResetPlayback()
	case MethodTeardown:
		h.EndPlayback()
	}
}

func (c *conn) dispatchBody(req *Request) {
	if len(req.Body) == 0 {
		return
	}
	contentType := req.ContentType()
	fn, ok := c.server.registry.Lookup(contentType)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function":     "conn.dispatchBody",
			"conn_id":      c.id,
			"content_type": contentType,
			"size":         len(req.Body),
		}).Debug("Discarding body of unregistered type")
		return
	}
	fn(req.Body)
}

func (c *conn) respond(req *Request) error {
	resp := NewResponse(req.CSeq())

	switch req.Method {
	case MethodOptions:
		resp.AddPublic()
		if challenge := req.Header(HeaderAppleChallenge); challenge != "" {
			c.addChallengeResponse(resp, challenge)
		}
	case MethodSetup:
		audio, control := c.server.handler.ServerPorts()
		resp.AddSetup(audio, control, c.server.cfg.SessionID)
	}

	_ = c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.netConn.Write(resp.Bytes())
	return err
}

// addChallengeResponse signs the challenge with the address the sender
// connected to. A challenge that cannot be answered leaves the header out;
// the sender then refuses the receiver.
func (c *conn) addChallengeResponse(resp *Response, challenge string) {
	var local net.IP
	if addr, ok := c.netConn.LocalAddr().(*net.TCPAddr); ok {
		local = addr.IP
	}

	signature, err := ChallengeResponse(c.server.handler, challenge, local, c.server.handler.HardwareAddress())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "conn.addChallengeResponse",
			"conn_id":  c.id,
			"error":    err.Error(),
		}).Error("Failed to answer Apple-Challenge")
		return
	}
	resp.AddChallengeResponse(signature)
}
