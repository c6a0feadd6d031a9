// Package server runs the HTTP listener and the background daemons
// under one lifecycle: start everything, wait for a signal or a fatal
// error, then shut everything down within the graceful timeout.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/startupgate/startupgate/config"
)

// Daemon is a long-running component tied to the server's lifetime.
type Daemon interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

type Server struct {
	configProvider *config.Provider
	handler        http.Handler
	logger         *slog.Logger
	daemons        []Daemon
	reloadFunc     func() error

	// exitFunc is swappable so tests can observe the exit code.
	exitFunc func(code int)
}

// NewServer builds a server around the given handler. reloadFunc runs
// on SIGHUP; pass nil when config reload is not wanted.
func NewServer(provider *config.Provider, handler http.Handler, logger *slog.Logger, reloadFunc func() error) *Server {
	if reloadFunc == nil {
		reloadFunc = func() error { return nil }
	}
	return &Server{
		configProvider: provider,
		handler:        handler,
		logger:         logger,
		reloadFunc:     reloadFunc,
		exitFunc:       os.Exit,
	}
}

// AddDaemon registers a daemon to start with the server and stop with
// it. Daemons start in registration order and stop concurrently.
func (s *Server) AddDaemon(d Daemon) {
	s.daemons = append(s.daemons, d)
}

// Run blocks until shutdown completes, then calls the exit func. SIGINT
// and SIGQUIT trigger shutdown; SIGHUP triggers a config reload and the
// server keeps running.
func (s *Server) Run() {
	cfg := s.configProvider.Get().Server

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       cfg.ReadTimeout.Duration,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration,
		WriteTimeout:      cfg.WriteTimeout.Duration,
		IdleTimeout:       cfg.IdleTimeout.Duration,
	}

	serverError := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	started, startErr := s.startDaemons()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(signals)

	exitCode := 0
	if startErr != nil {
		s.logger.Error("daemon startup failed", "err", startErr)
		exitCode = 1
	} else {
	wait:
		for {
			select {
			case sig := <-signals:
				if sig == syscall.SIGHUP {
					s.logger.Info("reloading configuration")
					if err := s.reloadFunc(); err != nil {
						s.logger.Error("config reload failed", "err", err)
					}
					continue
				}
				s.logger.Info("received shutdown signal", "signal", sig)
				break wait
			case err := <-serverError:
				s.logger.Error("http server error", "err", err)
				exitCode = 1
				break wait
			}
		}
	}

	gracefulCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracefulTimeout.Duration)
	defer cancel()

	shutdownGroup, _ := errgroup.WithContext(gracefulCtx)
	shutdownGroup.Go(func() error {
		if err := srv.Shutdown(gracefulCtx); err != nil {
			s.logger.Error("http server shutdown error", "err", err)
			return err
		}
		s.logger.Info("http server stopped")
		return nil
	})
	for _, d := range started {
		shutdownGroup.Go(func() error {
			if err := d.Stop(gracefulCtx); err != nil {
				s.logger.Error("daemon shutdown error", "daemon", d.Name(), "err", err)
				return err
			}
			s.logger.Info("daemon stopped", "daemon", d.Name())
			return nil
		})
	}
	if err := shutdownGroup.Wait(); err != nil {
		exitCode = 1
	}

	s.logger.Info("shutdown complete")
	s.exitFunc(exitCode)
}

// startDaemons starts each registered daemon in order and returns the
// ones that started; a failure stops the sequence and the caller shuts
// the successful ones down again.
func (s *Server) startDaemons() ([]Daemon, error) {
	var started []Daemon
	for _, d := range s.daemons {
		if err := d.Start(); err != nil {
			return started, err
		}
		s.logger.Info("daemon started", "daemon", d.Name())
		started = append(started, d)
	}
	return started, nil
}
