package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func newEngine(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	lg := zerolog.New(buf).Level(zerolog.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(lg), Recovery(lg))
	return r
}

func serve(r http.Handler, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)
	var seen string
	r.GET("/rid", func(c *gin.Context) {
		seen = RequestIDFrom(c)
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/rid", nil)
	if gen := w.Header().Get(requestIDHeader); gen == "" || gen != seen {
		t.Fatalf("generated id %q, context saw %q", gen, seen)
	}

	w = serve(r, http.MethodGet, "/rid", map[string]string{"x-request-id": "abc-123"})
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected propagated request id, got %q", got)
	}

	long := strings.Repeat("a", maxRequestIDLength+1)
	w = serve(r, http.MethodGet, "/rid", map[string]string{requestIDHeader: long})
	if got := w.Header().Get(requestIDHeader); got == long || got == "" {
		t.Fatalf("oversized id should be replaced, got %q", got)
	}
}

func TestLogger_LevelsFollowOutcome(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusBadRequest)
	})

	serve(r, http.MethodGet, "/ok", nil)
	serve(r, http.MethodGet, "/missing", nil)
	serve(r, http.MethodGet, "/err", nil)

	logs := buf.String()
	if !strings.Contains(logs, `"level":"debug"`) || !strings.Contains(logs, `"path":"/ok"`) {
		t.Fatalf("expected debug line with route path, got:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"path":"unmatched"`) {
		t.Fatalf("expected warn line for unmatched route, got:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"errors"`) {
		t.Fatalf("expected error line carrying gin errors, got:\n%s", logs)
	}
}

func TestRecovery_PanicsToJSON500AndLogs(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(&buf)
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/panic", map[string]string{requestIDHeader: "rid-1"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-1" {
		t.Fatalf("unexpected body: %v", body)
	}
	if !strings.Contains(buf.String(), `"message":"panic recovered"`) {
		t.Fatalf("expected panic log, got:\n%s", buf.String())
	}
}

func TestLoggerFrom_ScopedAndFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bare := gin.New()
	bare.GET("/use", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("dropped")
		c.Status(http.StatusOK)
	})
	if w := serve(bare, http.MethodGet, "/use", nil); w.Code != http.StatusOK {
		t.Fatalf("fallback logger should be usable, got %d", w.Code)
	}

	var buf bytes.Buffer
	r := newEngine(&buf)
	r.GET("/use", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("custom")
		c.Status(http.StatusOK)
	})
	serve(r, http.MethodGet, "/use", nil)
	out := buf.String()
	if !strings.Contains(out, `"message":"custom"`) || !strings.Contains(out, `"request_id"`) {
		t.Fatalf("expected request-scoped line with request_id, got:\n%s", out)
	}
}
