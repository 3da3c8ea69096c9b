package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Serve listens on addr and serves h until ctx is cancelled, then shuts
// down gracefully. ready, if non-nil, receives the bound address once the
// listener is open.
func Serve(ctx context.Context, addr string, h *Handler, ready chan<- string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:      h.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(h.log.Handler(), slog.LevelError),
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		h.log.Info("shutting down server", slog.String("address", ln.Addr().String()))
		sctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(sctx)
	}()

	h.log.Info("starting server", slog.String("address", ln.Addr().String()))
	if ready != nil {
		ready <- ln.Addr().String()
	}
	err = srv.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}
	h.log.Info("server stopped", slog.String("address", ln.Addr().String()))
	return nil
}
