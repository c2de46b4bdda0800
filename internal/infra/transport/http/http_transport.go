package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mkrupp/inventory-tracker/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// ServerAddr is the network address to listen on. Empty disables the server.
	ServerAddr string `env:"ADDR" default:""`

	// ReadHeaderTimeout is the timeout for reading request headers
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" default:"5s"`

	ReadTimeout  time.Duration `env:"READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" default:"10s"`

	// ShutdownTimeout bounds how long in-flight requests may finish after ctx ends
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// Enabled reports whether a listen address is configured.
func (cfg HTTPTransportConfig) Enabled() bool {
	return cfg.ServerAddr != ""
}

// Wrap applies the standard middleware chain for logging, tracing, and panic recovery.
func Wrap(handler http.Handler, log logging.Logger) http.Handler {
	handler = RescueingMiddleware(handler, log)
	handler = LoggingMiddleware(handler, log)
	handler = TracingMiddleware(handler)

	return handler
}

// ListenAndServe serves handler on cfg.ServerAddr until ctx is done, then
// shuts the server down gracefully. A server stopped through ctx is not an error.
func ListenAndServe(ctx context.Context, handler http.Handler, cfg HTTPTransportConfig) error {
	sock, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return Serve(ctx, sock, handler, cfg)
}

// Serve is ListenAndServe on an existing listener. The listener is closed on return.
func Serve(ctx context.Context, sock net.Listener, handler http.Handler, cfg HTTPTransportConfig) error {
	log := logging.GetLogger("infra.transport.http")

	//nolint:exhaustruct
	server := &http.Server{
		Handler:           Wrap(handler, log),
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		stopped <- server.Shutdown(shutdownCtx)
	}()

	log.DebugContext(ctx, "listening", "addr", sock.Addr().String())

	if err := server.Serve(sock); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	if err := <-stopped; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.DebugContext(ctx, "stopped", "addr", sock.Addr().String())

	return nil
}
