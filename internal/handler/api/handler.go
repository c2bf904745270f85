package api

import (
	"context"
	"fmt"
	"time"

	"DarkPull/internal/domain/models"
	"DarkPull/internal/service/metrics"
	"DarkPull/internal/service/ratelimit"
	"DarkPull/internal/usecase"
	xhttp "DarkPull/pkg/http"
	applogger "DarkPull/pkg/logger"
	xutil "DarkPull/pkg/util"

	"github.com/labstack/echo/v4"
)

// RateLimit bounds requests per client IP on the /api group.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// Handler serves the screening, backtest and pipeline endpoints.
type Handler struct {
	screener   *usecase.Screener
	backtester *usecase.Backtester
	ingestor   *usecase.Ingestor
	pipeline   *usecase.Orchestrator
	rl         *ratelimit.Limiter
	limit      RateLimit
	logger     *applogger.Logger
}

func NewHandler(screener *usecase.Screener, backtester *usecase.Backtester, ingestor *usecase.Ingestor, pipeline *usecase.Orchestrator, limit RateLimit, logger *applogger.Logger) *Handler {
	metrics.Register()
	if logger == nil {
		logger = applogger.Nop()
	}
	return &Handler{
		screener:   screener,
		backtester: backtester,
		ingestor:   ingestor,
		pipeline:   pipeline,
		rl:         ratelimit.New(),
		limit:      limit,
		logger:     logger.With("api"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", ratelimit.Middleware(h.rl, h.limit.Capacity, h.limit.RefillPerSec))

	dp := g.Group("/darkpool")
	dp.GET("/screen", h.observe("screen", h.Screen))
	dp.GET("/baseline", h.observe("baseline", h.Baseline))
	dp.POST("/ingest", h.observe("ingest", h.Ingest))

	g.POST("/straddle/backtest", h.observe("backtest", h.Backtest))
	g.POST("/pipeline/run", h.observe("pipeline", h.RunPipeline))
}

func (h *Handler) observe(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		defer func() {
			metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		}()
		c.Set("endpoint", endpoint)
		return next(c)
	}
}

// errorRules maps the domain error taxonomy onto the response envelope.
var errorRules = []xhttp.ErrorRule{
	{Target: models.ErrInvalidInput, Build: func(err error) *xhttp.AppError {
		return xhttp.BadRequestError(err.Error())
	}},
	{Target: models.ErrUpstreamUnavailable, Build: func(error) *xhttp.AppError {
		return xhttp.BadGatewayError("market data provider unavailable")
	}},
	{Target: context.DeadlineExceeded, Build: func(error) *xhttp.AppError {
		return xhttp.BadGatewayError("request timed out")
	}},
}

// fail maps use case errors onto HTTP responses.
func (h *Handler) fail(c echo.Context, err error) error {
	endpoint, _ := c.Get("endpoint").(string)
	metrics.APIErrors.WithLabelValues(endpoint).Inc()

	appErr := xhttp.MapError(err, errorRules...)
	switch {
	case appErr.Status >= 500 && appErr.Code == "ERR_INTERNAL":
		h.logger.Error("request failed", applogger.String("endpoint", endpoint), applogger.Error(err))
	case appErr.Status >= 500:
		h.logger.Warn(appErr.Message, applogger.String("endpoint", endpoint), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// date parses an optional YYYY-MM-DD, defaulting to the current trading date.
func (h *Handler) date(raw string) (time.Time, error) {
	if raw == "" {
		return h.screener.Today(), nil
	}
	d, err := xutil.ParseDate(raw)
	if err != nil {
		return d, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return d, nil
}
