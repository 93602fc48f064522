package internal_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brodo/wasmpack-pages/internal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestDevServer_ServesContentBase(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "todomvc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "todomvc", "index.js"), []byte("console.log(1)"), 0o644))

	metrics := internal.NewMetrics()
	metrics.Observe("todomvc", 150*time.Millisecond, nil)
	h := internal.NewDevServer("127.0.0.1:0", base, metrics, zerolog.Nop()).Handler()

	code, body := get(t, h, "/todomvc/index.js")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "console.log(1)", body)

	code, _ = get(t, h, "/todomvc/missing.js")
	require.Equal(t, http.StatusNotFound, code)

	code, body = get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"status":"ok"}`, body)

	code, body = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `wasmpack_pages_builds_total{outcome="success",package="todomvc"} 1`)
}

func TestDevServer_RunStopsOnCancel(t *testing.T) {
	s := internal.NewDevServer("127.0.0.1:0", t.TempDir(), nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
