// Package bootstrap assembles the service graph shared by the API server and
// the supportctl CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sellerdesk/support-portal/internal/access"
	"github.com/sellerdesk/support-portal/internal/cache"
	"github.com/sellerdesk/support-portal/internal/config"
	"github.com/sellerdesk/support-portal/internal/events"
	"github.com/sellerdesk/support-portal/internal/observability"
	"github.com/sellerdesk/support-portal/internal/persistence"
	"github.com/sellerdesk/support-portal/internal/priority"
	"github.com/sellerdesk/support-portal/internal/repository"
	"github.com/sellerdesk/support-portal/internal/routing"
	"github.com/sellerdesk/support-portal/internal/service"
	"github.com/sellerdesk/support-portal/internal/sla"
	"github.com/sellerdesk/support-portal/internal/slack"
	"github.com/sellerdesk/support-portal/internal/snapshot"
	"github.com/sellerdesk/support-portal/internal/worker"
)

const monitorLockKey = "lock:sla_monitor"

// Container holds long-lived components.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Policy     *config.Policy
	Evaluator  *access.Evaluator
	Dispatcher events.Dispatcher
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository

	Tickets       *service.TicketService
	Comments      *service.CommentService
	Notifications *service.NotificationService
	Users         *service.UserService
	Auth          *service.AuthService
	SLA           *service.SLAService
	Vendors       *service.VendorService
	Categories    *service.CategoryService
	Monitor       *worker.SLAMonitor
}

// New connects to Postgres and Redis and wires every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	policy, err := config.LoadPolicy(cfg.Policy.File)
	if err != nil {
		return nil, err
	}
	calendar, err := cfg.SLA.CalendarOptions()
	if err != nil {
		return nil, fmt.Errorf("sla calendar: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.PoolHandle() == nil {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)

	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    observability.NewMetrics(),
		Postgres:   pg,
		Redis:      rdb,
		Policy:     policy,
		Evaluator:  access.NewEvaluator(policy.Roles),
		Dispatcher: events.NewInMemoryDispatcher(),
	}

	pool := pg.PoolHandle()
	c.TicketRepo = repository.NewTicketRepository(pool)
	c.UserRepo = repository.NewUserRepository(pool)
	slaConfigRepo := repository.NewSLAConfigRepository(pool)
	vendorRepo := repository.NewVendorRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	scorer := priority.NewScorer(policy.PriorityTables())
	calculator := sla.NewCalculator(calendar)
	historyCache := cache.NewVendorHistoryCache(rdb.Client, cfg.Redis.HistoryCacheTTL, cfg.SLA.HistoryWindowDays, c.TicketRepo.VendorHistory)

	c.Tickets = service.NewTicketService(service.TicketDependencies{
		TicketRepo:    c.TicketRepo,
		VendorRepo:    vendorRepo,
		CategoryRepo:  categoryRepo,
		TagRepo:       repository.NewTagRepository(pool),
		SLAConfigRepo: slaConfigRepo,
		CounterRepo:   repository.NewCounterRepository(pool),
		HistoryRepo:   repository.NewTicketHistoryRepository(pool),
		UserRepo:      c.UserRepo,
		VendorHistory: historyCache,
		Evaluator:     c.Evaluator,
		Scorer:        scorer,
		Calculator:    calculator,
		Snapshots:     snapshot.NewBuilder(scorer.IssuePoints, nil),
		Dispatcher:    c.Dispatcher,
		Metrics:       c.Metrics,
		Logger:        logger.Named("tickets"),
	})
	c.Comments = service.NewCommentService(service.CommentDependencies{
		Tickets:     c.Tickets,
		CommentRepo: repository.NewCommentRepository(pool),
		UserRepo:    c.UserRepo,
		Evaluator:   c.Evaluator,
		Dispatcher:  c.Dispatcher,
		Logger:      logger.Named("comments"),
	})

	var sender slack.Sender
	if client := slack.NewClient(cfg.Slack, logger.Named("slack")); client.Enabled() {
		sender = client
	} else {
		logger.Warn("slack delivery disabled, no bot token or webhook configured")
	}
	c.Notifications = service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       c.Dispatcher,
		TicketRepo:       c.TicketRepo,
		UserRepo:         c.UserRepo,
		NotificationRepo: repository.NewNotificationRepository(pool),
		Router:           routing.NewRouter(cfg.Slack.Channels),
		Slack:            sender,
		Guard:            cache.NewDeliveryGuard(rdb.Client, cfg.Redis.DeliveryTTL),
		Metrics:          c.Metrics,
		Logger:           logger.Named("notifications"),
		PublicURL:        cfg.App.PublicURL,
	})
	c.Notifications.RegisterHandlers()

	c.Users = service.NewUserService(*cfg, c.UserRepo, c.Evaluator, logger.Named("users"))
	c.Auth = service.NewAuthService(*cfg, c.UserRepo)
	c.SLA = service.NewSLAService(slaConfigRepo, calculator, nil)
	c.Vendors = service.NewVendorService(vendorRepo, policy.GMVThresholds())
	c.Categories = service.NewCategoryService(categoryRepo)
	c.Monitor = worker.NewSLAMonitor(worker.SLAMonitorDependencies{
		Tickets:    c.TicketRepo,
		Dispatcher: c.Dispatcher,
		Lock:       cache.NewLock(rdb.Client, monitorLockKey, 5*time.Minute),
		AtRiskFor:  calculator.AtRiskWindow(),
		Metrics:    c.Metrics,
		Logger:     logger.Named("sla_monitor"),
	})
	return c, nil
}

// Close releases connections.
func (c *Container) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}
