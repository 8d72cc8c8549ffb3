package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectpulse/internal/config"
	"projectpulse/internal/sheet"
	"projectpulse/internal/shared/testutil"
	"projectpulse/pkg/contracts/events"
)

type stubSource struct {
	mu  sync.Mutex
	err error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context) (*sheet.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return sheet.NewTable(testutil.ProjectSheetRows())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Dashboard.RefreshInterval = 0
	return cfg
}

func newTestApp(t *testing.T, src *stubSource) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(context.Background(), testConfig(t), logger,
		WithSource(src),
		WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	return a
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_WiresComponents(t *testing.T) {
	a := newTestApp(t, &stubSource{})

	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Server)
	assert.NotNil(t, a.Dashboard)
	assert.NotNil(t, a.Hub)
	assert.NotNil(t, a.Exporter)
	assert.Equal(t, "stub", a.Source.Name())
	assert.Equal(t, config.SnapshotStoreNone, a.Snapshots.Name())
	assert.DirExists(t, a.Paths.ReportsDir)
}

func TestNew_InvalidLocale(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.Currency = "not-a-currency"
	logger, _ := testutil.NewTestLogger(t)

	_, err := New(context.Background(), cfg, logger,
		WithSource(&stubSource{}),
		WithRegistry(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestRouter_ServesAfterRefresh(t *testing.T) {
	a := newTestApp(t, &stubSource{})

	rec := get(t, a.Router, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, a.Router, "/api/projects")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, err := a.Dashboard.RefreshNow(context.Background())
	require.NoError(t, err)

	rec = get(t, a.Router, "/api/projects")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 3, body.Count)

	rec = get(t, a.Router, "/api/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	a := newTestApp(t, &stubSource{})

	rec := get(t, a.Router, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Not Found"`)
}

func TestRouter_Metrics(t *testing.T) {
	a := newTestApp(t, &stubSource{})

	get(t, a.Router, "/api/health/live")
	rec := get(t, a.Router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/health/live"`)
}

func TestRouter_WebSocketReceivesRefresh(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	a.Hub.Start()
	t.Cleanup(a.Hub.Stop)

	srv := httptest.NewServer(a.Router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	read := func() events.Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg events.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	assert.Equal(t, events.TypeConnection, read().Type)
	require.Eventually(t, func() bool { return a.Hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	_, err = a.Dashboard.RefreshNow(context.Background())
	require.NoError(t, err)

	msg := read()
	assert.Equal(t, events.TypeDataUpdate, msg.Type)
}

func TestApplication_StartStop(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	a, err := New(context.Background(), testConfig(t), logger,
		WithSource(&stubSource{}),
		WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)

	require.NoError(t, a.Start(context.Background()))
	require.Eventually(t, a.Dashboard.Ready, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx))

	select {
	case <-a.Dashboard.Done():
	default:
		t.Fatal("refresh loop still running after Stop")
	}
	assert.Equal(t, 0, a.Hub.ClientCount())
	assert.True(t, handler.ContainsMessage("application shutdown complete"))
	testutil.AssertNoErrors(t, handler)
}

func TestApplication_StartWithFailingSource(t *testing.T) {
	src := &stubSource{err: errors.New("sheet unavailable")}
	a := newTestApp(t, src)

	require.NoError(t, a.Start(context.Background()))
	require.Eventually(t, func() bool {
		return a.Dashboard.Status().ConsecutiveFailures == 1
	}, 2*time.Second, 10*time.Millisecond)

	rec := get(t, a.Router, "/api/refresh/last")
	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "sheet unavailable")

	require.NoError(t, a.Stop(context.Background()))
}
