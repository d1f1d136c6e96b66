//nolint:revive // exported
package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/the-dev-tools/kanban/internal/api/middleware/mwcompress"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Service is one routable endpoint: a method+path pattern in Go 1.22 mux
// syntax and its handler.
type Service struct {
	Handler http.Handler
	Pattern string
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Content-Encoding",
			"Content-Type",
		},
		MaxAge: int(time.Second),
	})
}

// Server mode constants
const (
	ServerModeUDS = "uds"
	ServerModeTCP = "tcp"
)

func newH2CServer(mux *http.ServeMux) *http.Server {
	handler := mwcompress.New(newCORS().Handler(mux))
	return &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		// INFO: Use h2c so we can serve HTTP/2 without TLS.
		Handler: h2c.NewHandler(handler, &http2.Server{
			IdleTimeout:          0,
			MaxConcurrentStreams: 100000,
		}),
	}
}

// ListenServices starts the server listening on either a Unix socket or TCP
// port, and drains it gracefully when ctx is canceled.
//
// Environment variables:
//   - SERVER_MODE: "uds" or "tcp" (default)
//   - SERVER_SOCKET_PATH: custom socket path (uds mode)
//   - PORT: port number (tcp mode, defaults to 8080)
func ListenServices(ctx context.Context, services []Service) error {
	mux := http.NewServeMux()

	for _, service := range services {
		slog.Info("Registering route", "pattern", service.Pattern)
		mux.Handle(service.Pattern, service.Handler)
	}

	mode := os.Getenv("SERVER_MODE")
	if mode == "" {
		mode = ServerModeTCP
	}

	switch mode {
	case ServerModeTCP:
		return listenTCP(ctx, mux)
	case ServerModeUDS:
		return listenIPC(ctx, mux)
	default:
		slog.Warn("Unknown SERVER_MODE, falling back to tcp", "mode", mode)
		return listenTCP(ctx, mux)
	}
}

func listenTCP(ctx context.Context, mux *http.ServeMux) error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := newH2CServer(mux)
	srv.Addr = ":" + port

	slog.Info("Server listening on TCP", "port", port)
	return serveUntilDone(ctx, srv, srv.ListenAndServe)
}

// serveUntilDone runs serve and, when ctx is canceled first, drains the
// server with a bounded Shutdown so ListenServices returns instead of
// blocking until process death.
func serveUntilDone(ctx context.Context, srv *http.Server, serve func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- serve()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Graceful shutdown failed, closing", "error", err)
		_ = srv.Close()
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
