package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-link-guard/internal/config"
)

func newTestRouter(t *testing.T, health HealthFunc) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	cfg := config.Config{OTEL: config.OTELConfig{ServiceName: "test-svc"}}
	RegisterRoutes(r, cfg, zerolog.New(&buf), health)
	return r, &buf
}

func do(r http.Handler, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_HealthMetricsFallbacks(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("GET /health = %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("expected request id and no-store headers, got %v", w.Header())
	}

	w = do(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "linkguard_ops_http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	w = do(r, http.MethodGet, "/nope", nil)
	var body errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("404 body not json: %v", err)
	}
	if w.Code != http.StatusNotFound || body.Code != "not_found" || body.RequestID == "" {
		t.Fatalf("GET /nope = %d %+v", w.Code, body)
	}

	if w = do(r, http.MethodPost, "/health", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_Unhealthy(t *testing.T) {
	r, buf := newTestRouter(t, func() error { return errors.New("update loop stopped") })

	w := do(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "update loop stopped") {
		t.Fatalf("GET /health = %d %q", w.Code, w.Body.String())
	}
	if !strings.Contains(buf.String(), "health check failed") {
		t.Fatalf("expected warn log, got:\n%s", buf.String())
	}
}

func TestRegisterRoutes_MetricsGzippedOnce(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/metrics", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", w.Code)
	}
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q; want gzip", got)
	}
	// a single gzip layer starts with the magic bytes and does not nest
	b := w.Body.Bytes()
	if len(b) < 2 || b[0] != 0x1f || b[1] != 0x8b {
		t.Fatalf("body is not gzip")
	}
}

func TestNewRouter_UsesConfiguredMode(t *testing.T) {
	prev := gin.Mode()
	t.Cleanup(func() { gin.SetMode(prev) })

	r := NewRouter(config.Config{GinMode: gin.TestMode}, zerolog.Nop(), nil)
	if gin.Mode() != gin.TestMode {
		t.Fatalf("gin mode = %q", gin.Mode())
	}
	if w := do(r, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	r, _ := newTestRouter(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, r, zerolog.Nop()) }()

	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v after cancel", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}
}

func TestServe_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if err := Serve(context.Background(), ln.Addr().String(), http.NotFoundHandler(), zerolog.Nop()); err == nil {
		t.Fatalf("expected error binding an address in use")
	}
}
