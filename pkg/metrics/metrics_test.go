package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/appshell/pkg/status"
)

// resetRegistry returns the package to its disabled state.
func resetRegistry(t *testing.T) {
	t.Helper()
	registry = nil
	registryOnce = sync.Once{}
	t.Cleanup(func() {
		registry = nil
		registryOnce = sync.Once{}
	})
}

func TestConstructorsReturnNilWhenDisabled(t *testing.T) {
	resetRegistry(t)

	assert.False(t, IsEnabled())
	assert.Nil(t, NewBridgeMetrics())
	assert.Nil(t, NewS3Metrics())
}

func TestInitRegistryIsIdempotent(t *testing.T) {
	resetRegistry(t)

	InitRegistry()
	first := GetRegistry()
	InitRegistry()

	assert.True(t, IsEnabled())
	assert.Same(t, first, GetRegistry())
}

func TestBridgeMetrics(t *testing.T) {
	resetRegistry(t)
	InitRegistry()

	m, ok := NewBridgeMetrics().(*bridgeMetrics)
	require.True(t, ok)

	m.RecordOperation("readFile", status.OK, time.Millisecond)
	m.RecordOperation("readFile", status.OK, time.Millisecond)
	m.RecordOperation("readFile", status.ErrNotFound, time.Millisecond)
	m.RecordRootOpen(nil)
	m.RecordRootOpen(errors.New("denied"))
	m.ObserveUsage(17, 5<<20)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("readFile", "NO_ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("readFile", "ERR_NOT_FOUND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rootOpensTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rootOpensTotal.WithLabelValues("error")))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.usedBytes))
	assert.Equal(t, float64(5<<20), testutil.ToFloat64(m.quotaBytes))
}

func TestS3Metrics(t *testing.T) {
	resetRegistry(t)
	InitRegistry()

	m, ok := NewS3Metrics().(*s3Metrics)
	require.True(t, ok)

	m.ObserveOperation("PutObject", 20*time.Millisecond, nil)
	m.ObserveOperation("PutObject", 20*time.Millisecond, errors.New("throttled"))
	m.RecordBytes("write", 1024)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("PutObject", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("PutObject", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("PutObject")))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.bytesTransferred.WithLabelValues("write")))
}

func TestServerDisabled(t *testing.T) {
	resetRegistry(t)

	srv := NewServer(ServerConfig{})
	assert.Equal(t, 9091, srv.Port())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServerExposesRegistry(t *testing.T) {
	resetRegistry(t)
	InitRegistry()

	m := NewBridgeMetrics()
	m.RecordOperation("stat", status.OK, time.Millisecond)

	srv := NewServer(ServerConfig{Port: 19091})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `appshell_bridge_operations_total{code="NO_ERROR",operation="stat"} 1`)
	assert.Contains(t, string(body), "go_goroutines")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "19091")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerServeAndShutdown(t *testing.T) {
	resetRegistry(t)
	InitRegistry()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ServerConfig{})
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServerStartReportsBindFailure(t *testing.T) {
	resetRegistry(t)

	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()

	srv := NewServer(ServerConfig{Port: busy.Addr().(*net.TCPAddr).Port})
	assert.ErrorContains(t, srv.Start(t.Context()), "listen on port")
}
