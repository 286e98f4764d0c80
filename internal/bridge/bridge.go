package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/framehello/internal/discovery"
	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/session"
	"github.com/muurk/framehello/internal/version"
)

const (
	// ServiceType is the mDNS service type the bridge advertises
	ServiceType = discovery.ServiceType

	// ServiceDomain is the mDNS domain
	ServiceDomain = discovery.ServiceDomain

	// DefaultPort is the default listen port
	DefaultPort = 8787

	shutdownTimeout = 5 * time.Second
)

// Controller is the part of a session the bridge drives.
type Controller interface {
	Do(a session.Action) error
	Snapshot() session.Snapshot
	LogSince(seq int) []session.LogEntry
	Subscribe() (<-chan session.Update, func())
}

var _ Controller = (*session.Session)(nil)

// Config holds the bridge configuration
type Config struct {
	Host      string
	Port      int
	Advertise bool   // Register the service over mDNS
	Instance  string // mDNS instance name; defaults to "framehello on <hostname>"
}

// Server serves one session.
type Server struct {
	config Config
	ctl    Controller
	hub    *hub
}

// New creates a bridge for ctl
func New(ctl Controller, config Config) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Instance == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "localhost"
		}
		config.Instance = "framehello on " + host
	}
	return &Server{
		config: config,
		ctl:    ctl,
		hub:    newHub(ctl),
	}
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// ListenAndServe listens on the configured address and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	port := s.config.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	logging.Info("Starting bridge",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("advertise", s.config.Advertise),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("bridge server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down bridge...")

		s.hub.closeAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Bridge shutdown timeout, forcing close", zap.Error(err))
			return srv.Close()
		}
		return nil
	})

	if s.config.Advertise {
		g.Go(func() error {
			return s.advertise(gctx, port)
		})
	}

	return g.Wait()
}

// advertise registers the bridge over mDNS until ctx ends.
func (s *Server) advertise(ctx context.Context, port int) error {
	txt := []string{
		"version=" + version.Version,
		"path=" + discovery.DefaultPath,
	}
	server, err := zeroconf.Register(s.config.Instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("mdns register: %w", err)
	}
	logging.Info("mDNS advertising",
		zap.String("instance", s.config.Instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)

	<-ctx.Done()
	server.Shutdown()
	return nil
}

// Clients returns the number of connected WebSocket clients
func (s *Server) Clients() int {
	return s.hub.count()
}
