package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DarkPull/internal/usecase"
	"DarkPull/pkg/config"
	xhttp "DarkPull/pkg/http"
	applogger "DarkPull/pkg/logger"

	"github.com/robfig/cron/v3"
)

// scheduledRunTimeout bounds one cron-triggered pipeline run.
const scheduledRunTimeout = 30 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	handler  xhttp.Handler
	pipeline *usecase.Orchestrator
	logger   *applogger.Logger

	httpServer *xhttp.Server
	cron       *cron.Cron
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, handler xhttp.Handler, pipeline *usecase.Orchestrator, logger *applogger.Logger) *App {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &App{cfg: cfg, handler: handler, pipeline: pipeline, logger: logger}
}

// Run starts the HTTP server and the optional pipeline schedule, then blocks
// until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(a.cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(a.logger.With("http")),
		xhttp.WithHealth(a.health),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	if err := a.schedule(ctx); err != nil {
		_ = a.httpServer.Stop(context.Background())
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// schedule registers the daily pipeline run when a cron spec is configured.
func (a *App) schedule(ctx context.Context) error {
	spec := a.cfg.Pipeline.Schedule
	if spec == "" || a.pipeline == nil {
		return nil
	}
	a.cron = cron.New(
		cron.WithLocation(a.cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := a.cron.AddFunc(spec, func() { a.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("pipeline schedule %q: %w", spec, err)
	}
	a.cron.Start()
	a.logger.Info("pipeline scheduled",
		applogger.String("spec", spec),
		applogger.String("timezone", a.cfg.DarkPool.Timezone),
	)
	return nil
}

func (a *App) runScheduled(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, scheduledRunTimeout)
	defer cancel()

	res, err := a.pipeline.Run(ctx, usecase.RunOptions{})
	if err != nil {
		a.logger.Warn("scheduled pipeline run failed",
			applogger.String("run_id", res.Summary.RunID),
			applogger.String("failed_step", res.FailedStep),
			applogger.Error(err),
		)
		return
	}
	a.logger.Info("scheduled pipeline run complete",
		applogger.String("run_id", res.Summary.RunID),
		applogger.Int("profitable", res.Summary.Profitable),
	)
}

func (a *App) health() interface{} {
	return map[string]interface{}{
		"environment":   a.cfg.Environment,
		"store":         a.cfg.Store.Backend,
		"provider":      a.cfg.Provider.BaseURL,
		"provider_auth": a.cfg.Provider.APIKey != "",
		"kafka":         a.cfg.Kafka.Enabled,
		"webhook":       a.cfg.Notify.WebhookURL != "",
		"schedule":      a.cfg.Pipeline.Schedule,
	}
}

// shutdown stops the scheduler, waiting for a running job, then the HTTP server.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")

	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
