package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opd-ai/airtunes/metadata"
	"github.com/opd-ai/airtunes/metrics"
	"github.com/opd-ai/airtunes/playback"
	"github.com/opd-ai/airtunes/remote"
	"github.com/opd-ai/airtunes/session"
	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout = 5 * time.Second
	eventBuffer     = 32
)

// Controller is the session surface the API exposes.
type Controller interface {
	TrackInfo() metadata.TrackInfo
	PlayerInfo() metadata.PlayerInfo
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Subscribe(buffer int) (<-chan session.Event, func())
	Stats(ctx context.Context) (playback.Stats, error)
}

// Server is the Echo application.
type Server struct {
	echo       *echo.Echo
	controller Controller
	metrics    *metrics.Collector
	upgrader   websocket.Upgrader
}

// New constructs the API. The collector may be nil.
func New(controller Controller, m *metrics.Collector) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:       e,
		controller: controller,
		metrics:    m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
	s.registerRoutes()
	return s
}

// Echo exposes the underlying Echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/info", s.handleInfo)
	s.echo.GET("/artwork", s.handleArtwork)
	s.echo.POST("/play", s.command(s.controller.Play))
	s.echo.POST("/pause", s.command(s.controller.Pause))
	s.echo.POST("/next", s.command(s.controller.Next))
	s.echo.POST("/previous", s.command(s.controller.Previous))
	s.echo.GET("/events", s.handleEvents)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	s.echo.GET("/debug/buffer", s.handleBuffer)
}

// Run starts Echo and blocks until ctx cancellation or startup failure.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	logrus.WithFields(logrus.Fields{
		"function": "Server.Run",
		"addr":     addr,
	}).Info("HTTP API listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.echo.Shutdown(shutCtx)
		return nil
	}
}

type infoResponse struct {
	Track      metadata.TrackInfo  `json:"track"`
	Player     metadata.PlayerInfo `json:"player"`
	HasArtwork bool                `json:"has_artwork"`
}

func (s *Server) handleInfo(c echo.Context) error {
	track := s.controller.TrackInfo()
	return c.JSON(http.StatusOK, infoResponse{
		Track:      track,
		Player:     s.controller.PlayerInfo(),
		HasArtwork: track.HasArtwork(),
	})
}

func (s *Server) handleArtwork(c echo.Context) error {
	track := s.controller.TrackInfo()
	if !track.HasArtwork() {
		return echo.NewHTTPError(http.StatusNotFound, "no artwork")
	}
	contentType := track.ArtworkType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, contentType, track.Artwork)
}

// command wraps a transport command. A sender that has not announced a
// remote is a conflict; any other failure is a bad gateway.
func (s *Server) command(fn func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := fn(c.Request().Context())
		switch {
		case err == nil:
			return c.NoContent(http.StatusNoContent)
		case errors.Is(err, remote.ErrNoRemote), errors.Is(err, session.ErrNoRemoteControl):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			logrus.WithFields(logrus.Fields{
				"function": "Server.command",
				"path":     c.Path(),
				"error":    err.Error(),
			}).Warn("Remote command failed")
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
	}
}

func (s *Server) handleBuffer(c echo.Context) error {
	st, err := s.controller.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}
