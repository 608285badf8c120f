package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/sellerdesk/support-portal/internal/api/http"
	"github.com/sellerdesk/support-portal/internal/api/http/handlers"
	"github.com/sellerdesk/support-portal/internal/auth"
	"github.com/sellerdesk/support-portal/internal/bootstrap"
	"github.com/sellerdesk/support-portal/internal/config"
	"github.com/sellerdesk/support-portal/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to bootstrap", zap.Error(err))
	}
	defer c.Close()

	authMiddleware := auth.NewAuthMiddleware(c.Auth.TokenManager(), c.UserRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, c.Metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, c.Metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": c.Postgres,
			"redis":    c.Redis,
		}),
		Auth:           handlers.NewAuthHandler(c.Auth, c.Users),
		Tickets:        handlers.NewTicketsHandler(c.Tickets),
		Comments:       handlers.NewCommentsHandler(c.Comments),
		Notifications:  handlers.NewNotificationsHandler(c.Notifications),
		SLA:            handlers.NewSLAHandler(c.SLA),
		Users:          handlers.NewUsersHandler(c.Users),
		AuthMiddleware: authMiddleware,
		Evaluator:      c.Evaluator,
		Metrics:        c.Metrics,
	})

	if cfg.SLA.MonitorEnabled {
		scheduler, err := c.Monitor.Start(cfg.SLA.MonitorSchedule)
		if err != nil {
			logger.Fatal("failed to start sla monitor", zap.Error(err))
		}
		defer func() { <-scheduler.Stop().Done() }()
		logger.Info("sla monitor scheduled", zap.String("schedule", cfg.SLA.MonitorSchedule))
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
