package api

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/opd-ai/airtunes/session"
)

const writeTimeout = 5 * time.Second

// handleEvents upgrades the request and streams session events, starting
// with a snapshot of the current state.
func (s *Server) handleEvents(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("upgrade websocket: %w", err)
	}
	s.serveEvents(conn)
	return nil
}

func (s *Server) serveEvents(conn *websocket.Conn) {
	defer conn.Close()

	events, cancel := s.controller.Subscribe(eventBuffer)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(1 << 10)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	snapshot := session.Event{
		Type:   session.EventPlayerInfo,
		Track:  s.controller.TrackInfo(),
		Player: s.controller.PlayerInfo(),
		Time:   time.Now(),
	}
	if err := writeEvent(conn, snapshot); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeTimeout))
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev session.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(ev)
}
