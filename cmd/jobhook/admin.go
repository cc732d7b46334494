package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"mercator-hq/jobhook/pkg/evidence"
	"mercator-hq/jobhook/pkg/policy/manager"
	"mercator-hq/jobhook/pkg/telemetry/health"
)

// adminServer serves /metrics, /health, /ready and /version while a
// long-running command is active.
type adminServer struct {
	srv    *http.Server
	addr   net.Addr
	errCh  chan error
	logger *slog.Logger
}

// newAdminHandler builds the admin mux. mgr may be nil.
func newAdminHandler(a *app, mgr *manager.Manager) http.Handler {
	checker := health.New(2 * time.Second)
	if mgr != nil {
		checker.RegisterCheck("policy", func(ctx context.Context) error {
			return mgr.Stats().LastReloadErr
		})
	}
	if a.store != nil {
		store := a.store
		checker.RegisterCheck("evidence", func(ctx context.Context) error {
			_, err := store.Count(ctx, &evidence.Query{})
			return err
		})
	}

	mux := http.NewServeMux()
	mux.Handle(a.cfg.Telemetry.Metrics.Path, a.collector.Handler())
	health.Register(mux, checker, health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
	})
	return mux
}

// startAdminServer listens on addr and serves in the background.
func startAdminServer(addr string, handler http.Handler, logger *slog.Logger) (*adminServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &adminServer{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr:   ln.Addr(),
		errCh:  make(chan error, 1),
		logger: logger.With("component", "admin"),
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
		close(s.errCh)
	}()

	s.logger.Info("admin endpoint listening", "address", s.addr.String())
	return s, nil
}

// Shutdown stops the server, waiting at most until ctx is done.
func (s *adminServer) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.errCh
}
