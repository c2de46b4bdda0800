package http_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	context_ "github.com/mkrupp/inventory-tracker/internal/infra/context"
	"github.com/mkrupp/inventory-tracker/internal/infra/logging"
	transport "github.com/mkrupp/inventory-tracker/internal/infra/transport/http"
)

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	var seen string

	handler := transport.TracingMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = context_.TraceIDFromContext(r.Context())
	}))

	t.Run("keeps incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.Header.Set(transport.TraceIDHeader, "abc")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc", seen)
		assert.Equal(t, "abc", rec.Header().Get(transport.TraceIDHeader))
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(transport.TraceIDHeader))
	})
}

func TestRescueingMiddleware(t *testing.T) {
	t.Parallel()

	handler := transport.RescueingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServeStopsWithContext(t *testing.T) {
	t.Parallel()

	sock, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- transport.Serve(ctx, sock, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}), transport.HTTPTransportConfig{
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   time.Second,
		})
	}()

	resp, err := http.Get("http://" + sock.Addr().String() + "/") //nolint:noctx
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.NotEmpty(t, resp.Header.Get(transport.TraceIDHeader))

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
