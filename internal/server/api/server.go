// Package api exposes the vault operations over HTTP using echo.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/cryptovault/internal/logging"
	sc "github.com/dmitrijs2005/cryptovault/internal/server/config"
	"github.com/dmitrijs2005/cryptovault/internal/server/services"
)

type Server struct {
	echo   *echo.Echo
	vault  *services.VaultService
	logger logging.Logger
	config *sc.Config
}

func NewServer(vault *services.VaultService, logger logging.Logger, config *sc.Config) *Server {
	s := &Server{vault: vault, logger: logger, config: config}
	s.echo = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(s.config.MaxUploadSize))

	e.GET("/healthz", s.healthz)

	api := e.Group("/api/v1")
	if !s.config.AuthDisabled {
		api.Use(BearerAuth([]byte(s.config.AuthSecretKey)))
	}

	api.POST("/files", s.upload)
	api.GET("/files", s.list)
	api.GET("/files/:filename", s.download)
	api.GET("/files/:filename/url", s.presign)
	api.GET("/files/:filename/verify", s.verify)
	api.DELETE("/files/:filename", s.remove)
	api.POST("/admin/reconcile", s.reconcile)

	return e
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.config.EndpointAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info(ctx, "http server started", "addr", s.config.EndpointAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
