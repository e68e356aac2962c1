// Package server wires the HTTP surface: the REST API, the metrics
// endpoint, the public feeds and the background sync loop.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/coachcal/coachcal/internal/profile"
	"github.com/coachcal/coachcal/server/metrics"
	apiv1 "github.com/coachcal/coachcal/server/router/api/v1"
	syncsvc "github.com/coachcal/coachcal/server/service/sync"
	"github.com/coachcal/coachcal/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	syncer     *syncsvc.Service
	refresher  *syncsvc.Refresher
	exporter   *metrics.Exporter
}

func NewServer(ctx context.Context, prof *profile.Profile, st *store.Store) (*Server, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))

	exporter := metrics.NewExporter()
	provider := newCalendarProvider(prof, st)
	syncer := syncsvc.NewService(st, provider, prof, exporter)

	s := &Server{
		Profile:    prof,
		Store:      st,
		echoServer: echoServer,
		syncer:     syncer,
		refresher:  syncsvc.NewRefresher(syncer, prof.SyncInterval),
		exporter:   exporter,
	}

	apiV1Service := apiv1.NewAPIV1Service(prof, st, syncer, provider)
	apiV1Service.RegisterRoutes(echoServer)

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	echoServer.GET("/feeds/sessions", func(c echo.Context) error {
		atom, err := syncer.UpcomingFeed(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.Blob(http.StatusOK, "application/atom+xml", []byte(atom))
	})

	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	if err := s.refresher.Start(); err != nil {
		return err
	}

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.refresher.Stop()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server shutdown")
}
