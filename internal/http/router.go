// Package httpapi serves the bot's ops endpoint: a liveness probe and the
// Prometheus scrape target. It carries no moderation logic.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-link-guard/internal/config"
	"github.com/tbourn/go-link-guard/internal/http/middleware"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// HealthFunc reports whether the bot is healthy. A nil HealthFunc always
// reports healthy.
type HealthFunc func() error

// errorResponse is the JSON envelope for ops errors.
type errorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// RegisterRoutes installs middleware and the ops routes on r.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. Logger (injected zerolog)
//  4. Recovery
//  5. Metrics
//  6. NoStore
//  7. gzip
func RegisterRoutes(r *gin.Engine, cfg config.Config, log zerolog.Logger, health HealthFunc) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Metrics())
	r.Use(middleware.NoStore())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "not_found", "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		fail(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(); err != nil {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("health check failed")
				fail(c, http.StatusServiceUnavailable, "unhealthy", err.Error())
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// gzip is applied by the router; promhttp must not compress again.
	metrics := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		DisableCompression: true,
	})
	r.GET("/metrics", gin.WrapH(metrics))
}

// NewRouter builds a gin engine in the configured mode with the ops routes.
func NewRouter(cfg config.Config, log zerolog.Logger, health HealthFunc) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	RegisterRoutes(r, cfg, log, health)
	return r
}

// Serve runs an HTTP server for h on addr until ctx is done, then shuts it
// down gracefully. It returns nil after a clean shutdown.
func Serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
