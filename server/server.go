// Package server serves a development copy of the makeradmin memberbooth
// API backed by a devstore.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/directory/devstore"
	"github.com/existflow/memberbooth/internal/logger"
)

// Server is the development directory server
type Server struct {
	store *devstore.Store
	echo  *echo.Echo
}

// New creates a server for store
func New(store *devstore.Store) *Server {
	s := &Server{store: store}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			res := c.Response()
			logger.Info("HTTP Response",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("duration", time.Since(start).String()))
			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/health", s.handleHealth)

	api := e.Group("/multiaccess/memberbooth")
	api.Use(s.authMiddleware)
	api.GET("/tag", s.handleTag)
	api.GET("/member", s.handleMember)
	api.POST("/pinlogin", s.handlePinLogin)
	api.POST("/label", s.handleLabel)

	s.echo = e
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown
func (s *Server) Start(addr string) error {
	logger.Info("Development directory listening", logger.F("addr", addr),
		logger.F("tag_path", directory.TagPath))
	return s.echo.Start(addr)
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
