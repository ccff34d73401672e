package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/campusline/platform/shared/logger"
	"github.com/campusline/platform/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 30 * time.Second

// NewRouter returns a gin engine with the middleware every service shares and
// the Prometheus endpoint mounted at /metrics.
func NewRouter(service string, log logger.Logger, development bool) *gin.Engine {
	if !development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.Recovery(log, development),
		middleware.LoggingMiddleware(log),
		middleware.MetricsMiddleware(service),
		middleware.ErrorHandler(log, development),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, log logger.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", logger.Fields{"addr": addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("HTTP server shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("HTTP server stopped", nil)
	return nil
}
