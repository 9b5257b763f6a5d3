package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/shopping-notifier/api/openapi"
	"github.com/donaldgifford/shopping-notifier/internal/api/handlers"
	"github.com/donaldgifford/shopping-notifier/internal/api/middleware"
	"github.com/donaldgifford/shopping-notifier/internal/engine"
	"github.com/donaldgifford/shopping-notifier/pkg/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server, batch driver and scheduler",
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer a.Close()

	e := newServer(a)

	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		a.driver.Run(ctx)
	}()

	var sched *engine.Scheduler
	if cfg.Schedule.Enabled {
		sched, err = engine.NewScheduler(a.driver, cfg.Schedule.Interval, logger.Component(log, "scheduler"))
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		sched.Start()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		<-sched.Stop().Done()
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	<-driverDone

	log.Info("server stopped")
	return nil
}

// newServer builds the Echo instance with middleware, probes, metrics and
// the huma API.
func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = a.cfg.Server.ReadTimeout
	e.Server.WriteTimeout = a.cfg.Server.WriteTimeout

	httpLog := logger.Component(a.log, "http")
	e.Use(middleware.RequestLog(httpLog))
	e.Use(middleware.Recovery(httpLog))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(a.ledger, a.driver)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("Shopping Notifier API", Version))
	handlers.RegisterInvokeRoutes(api, handlers.NewInvokeHandler(a.driver, a.driver))
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(a.limiter))
	openapi.RegisterRoutes(e)

	return e
}
