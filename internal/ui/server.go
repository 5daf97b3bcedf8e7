// Package ui serves a browser view of a live timeline. Frames are pushed to
// the page over datastar server-sent events; clicks and scrolls come back as
// plain HTTP requests and are forwarded to the timeline session.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/flowline/internal/timeline"
	"github.com/leapstack-labs/flowline/internal/ui/notifier"
	"github.com/leapstack-labs/flowline/internal/ui/resources"
)

// DefaultDatastarURL is the client bundle loaded by the page.
const DefaultDatastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// Controller receives interactions from the browser.
type Controller interface {
	Select(stageID string)
	Scroll()
}

// Server is the timeline web server.
type Server struct {
	port        int
	frames      *notifier.Notifier[timeline.Frame]
	ctrl        Controller
	logger      *slog.Logger
	title       string
	datastarURL string
}

// Config holds configuration for the UI server.
type Config struct {
	Port        int
	Frames      *notifier.Notifier[timeline.Frame]
	Controller  Controller
	Logger      *slog.Logger
	Title       string
	DatastarURL string
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	frames := cfg.Frames
	if frames == nil {
		frames = notifier.New[timeline.Frame]()
	}
	datastarURL := cfg.DatastarURL
	if datastarURL == "" {
		datastarURL = DefaultDatastarURL
	}
	return &Server{
		port:        cfg.Port,
		frames:      frames,
		ctrl:        cfg.Controller,
		logger:      logger,
		title:       cfg.Title,
		datastarURL: datastarURL,
	}
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)
	s.routes(r)
	return r
}

func (s *Server) routes(r chi.Router) {
	r.Handle("/static/*", resources.Handler())
	r.Get("/", s.Page)
	r.Get("/frame", s.CurrentFrame)
	r.Get("/updates", s.Updates)
	r.Post("/select/{stageID}", s.SelectStage)
	r.Delete("/select", s.ClearSelection)
	r.Post("/scroll", s.Scroll)
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Frames returns the notifier the server streams from.
func (s *Server) Frames() *notifier.Notifier[timeline.Frame] {
	return s.frames
}
