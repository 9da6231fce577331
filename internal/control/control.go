// Package control serves the HTTP API for reshaping the synth graph while
// it plays.
package control

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/aliendaw/internal/errors"
	"github.com/tphakala/aliendaw/internal/logger"
	"github.com/tphakala/aliendaw/internal/rtsync"
	"github.com/tphakala/aliendaw/internal/synth"
)

const (
	componentControl = "control"
	apiPrefix        = "/api/v1"
	shutdownTimeout  = 5 * time.Second
)

// GraphMetrics is notified after graph edits.
type GraphMetrics interface {
	SetGraphNodes(n int)
	RecordOperation(operation, status string)
}

// Options configures a Controller.
type Options struct {
	Graph *rtsync.Shared[synth.Node]
	// SampleRate is used for sine nodes created through the API.
	SampleRate float32
	// Stats, when set, backs GET /stats.
	Stats func() any
	// Metrics, when set, is served at GET /metrics.
	Metrics      http.Handler
	GraphMetrics GraphMetrics
}

// Controller owns the echo instance and the graph handle.
type Controller struct {
	echo       *echo.Echo
	graph      *rtsync.Shared[synth.Node]
	sampleRate float32
	stats      func() any
	metrics    GraphMetrics
	log        logger.Logger
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// New builds the controller and registers its routes.
func New(opts Options) *Controller {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	c := &Controller{
		echo:       e,
		graph:      opts.Graph,
		sampleRate: opts.SampleRate,
		stats:      opts.Stats,
		metrics:    opts.GraphMetrics,
		log:        logger.Global().Module(componentControl),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			c.log.Debug("request",
				logger.String("method", v.Method),
				logger.String("path", v.URIPath),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency))
			return nil
		},
	}))

	api := e.Group(apiPrefix)
	api.GET("/health", c.Health)
	c.initGraphRoutes(api.Group("/graph"))
	if opts.Stats != nil {
		api.GET("/stats", c.Stats)
	}
	if opts.Metrics != nil {
		api.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	return c
}

// Echo returns the underlying echo instance.
func (c *Controller) Echo() *echo.Echo { return c.echo }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (c *Controller) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.echo.Start(addr)
	}()
	c.log.Info("control API listening", logger.String("addr", addr))

	select {
	case err := <-errCh:
		return c.serveError(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.echo.Shutdown(shutdownCtx); err != nil {
		return c.serveError(err)
	}
	return c.serveError(<-errCh)
}

func (c *Controller) serveError(err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.New(err).
		Component(componentControl).
		Category(errors.CategoryHTTP).
		Context("operation", "serve").
		Build()
}

// Health handles GET /api/v1/health.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// Stats handles GET /api/v1/stats.
func (c *Controller) Stats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.stats())
}

// HandleError writes an ErrorResponse with a status derived from err.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := statusFor(err)
	resp := ErrorResponse{
		Error:         err.Error(),
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
	c.log.Warn("API error",
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Error(err),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method))
	return ctx.JSON(code, resp)
}

// statusFor maps graph errors to HTTP status codes.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, synth.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, synth.ErrNotMixer), errors.Is(err, synth.ErrNotClip), errors.Is(err, synth.ErrReplaceRoot):
		return http.StatusConflict
	case errors.Is(err, synth.ErrInvalidVolume), errors.Is(err, synth.ErrInvalidNode),
		errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
