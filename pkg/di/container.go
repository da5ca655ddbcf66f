package di

import (
	"context"
	"fmt"
	"time"

	"command-bot/backend/internal/alerts"
	"command-bot/backend/internal/bot"
	"command-bot/backend/internal/recovery"
	"command-bot/backend/internal/riddle"
	"command-bot/backend/internal/store"
	"command-bot/backend/internal/ws"
	"command-bot/backend/pkg/config"
	"command-bot/backend/pkg/grpcserver"
	"command-bot/backend/pkg/health"
	"command-bot/backend/pkg/jwt"
	"command-bot/backend/pkg/logger"
	"command-bot/backend/pkg/middleware"
	"command-bot/backend/pkg/observability"
	"command-bot/backend/pkg/resilience"
	"command-bot/backend/pkg/scheduler"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// HealthCheckPeriod is how often the background health checks run
const HealthCheckPeriod = 30 * time.Second

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *gorm.DB

	Store      *store.Store
	Tracker    *recovery.Tracker
	Fetcher    *riddle.HTTPFetcher
	Game       *riddle.Game
	Notifier   *alerts.Notifier
	Audit      *alerts.AuditRepository
	Redis      *redis.Client
	NATS       *nats.Conn
	Limiter    *middleware.RateLimiter
	Metrics    *observability.Metrics
	Dispatcher *bot.Dispatcher
	Hub        *ws.Hub

	JWTService *jwt.Service
	Health     *health.Checker
	GRPC       *grpcserver.Server
	Scheduler  *scheduler.Scheduler
}

// New builds the container. db may be nil, in which case deletion alerts are
// not audited.
func New(cfg *config.Config, db *gorm.DB, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Container{Config: cfg, Logger: log, DB: db}

	metrics, err := observability.NewMetrics(cfg.Observability.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	c.Metrics = metrics

	// Recency cache shared by deletion recovery and riddles
	c.Store = store.New(cfg.Cache.MaxSize)
	c.Store.SetOnEvicted(func(key string, _ any) {
		metrics.StoreEvictions.Add(context.Background(), 1)
		log.Debug("Cache entry evicted", "key", key)
	})
	if err := metrics.ObserveStoreSize(func() int64 { return int64(c.Store.Len()) }); err != nil {
		return nil, fmt.Errorf("failed to observe store size: %w", err)
	}
	c.Tracker = recovery.NewTracker(c.Store, log)

	c.Fetcher = riddle.NewHTTPFetcher(riddle.FetcherConfig{
		URL:     cfg.Riddle.APIURL,
		Timeout: cfg.Riddle.Timeout,
		Retries: cfg.Riddle.Retries,
	}, log)
	c.Game = riddle.NewGame(c.Store, c.Fetcher)

	if err := c.initAlerts(); err != nil {
		return nil, err
	}

	c.Limiter = middleware.NewRateLimiter(log, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Bot.CommandRate),
		Burst:          cfg.Bot.CommandBurst,
		ExpiryDuration: time.Hour,
	})

	c.Dispatcher = bot.NewDispatcher(bot.Options{
		Prefix:   cfg.Bot.Prefix,
		OwnerID:  cfg.Bot.OwnerID,
		Tracker:  c.Tracker,
		Game:     c.Game,
		Notifier: c.Notifier,
		Limiter:  c.Limiter,
		Metrics:  metrics,
		Logger:   log,
	})
	c.Hub = ws.NewHub(c.Dispatcher, log)

	c.JWTService = jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)

	c.GRPC = grpcserver.New(log)
	c.Health = health.NewChecker(log, HealthCheckPeriod)
	c.registerHealthChecks()
	c.Health.OnChange(c.GRPC.SetServing)

	if c.Scheduler, err = scheduler.New(log); err != nil {
		return nil, err
	}
	if err := c.scheduleMaintenance(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) initAlerts() error {
	cfg := c.Config
	c.Notifier = alerts.NewNotifier(c.Logger)

	if cfg.Redis.URL != "" {
		client, err := alerts.NewRedisClient(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to init redis: %w", err)
		}
		c.Redis = client
		c.Notifier.Add(alerts.NewRedisPublisher(client, cfg.Bot.AlertChannel))
	}

	if cfg.NATS.URL != "" {
		conn, err := alerts.ConnectNATS(cfg.NATS.URL, 5*time.Second)
		if err != nil {
			// Alerts still reach the owner and the other sinks
			c.Logger.LogError(err, "NATS alert sink disabled", "url", cfg.NATS.URL)
		} else {
			c.NATS = conn
			c.Notifier.Add(alerts.NewNATSPublisher(conn, cfg.NATS.Subject))
		}
	}

	if c.DB != nil {
		c.Audit = alerts.NewAuditRepository(c.DB)
		if err := c.Audit.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate audit table: %w", err)
		}
		c.Notifier.Add(c.Audit)
	}

	return nil
}

func (c *Container) registerHealthChecks() {
	c.Health.RegisterCheck("store", true, func(context.Context) (health.Status, string, error) {
		return health.StatusUp, c.Store.String(), nil
	})

	c.Health.RegisterCheck("riddle-api", false, func(context.Context) (health.Status, string, error) {
		switch c.Fetcher.Breaker().State() {
		case resilience.StateOpen:
			return health.StatusDegraded, "Circuit open, riddles unavailable", nil
		case resilience.StateHalfOpen:
			return health.StatusDegraded, "Circuit probing", nil
		default:
			return health.StatusUp, "Circuit closed", nil
		}
	})

	c.Health.RegisterCheck("bridge", false, func(context.Context) (health.Status, string, error) {
		n := len(c.Hub.ActiveConnections())
		if n == 0 {
			return health.StatusDegraded, "No bridge connected", nil
		}
		return health.StatusUp, fmt.Sprintf("%d bridge connection(s)", n), nil
	})

	if c.Redis != nil {
		c.Health.RegisterPingCheck("redis", false, func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		})
	}

	if c.NATS != nil {
		c.Health.RegisterCheck("nats", false, func(context.Context) (health.Status, string, error) {
			if !c.NATS.IsConnected() {
				return health.StatusDegraded, "NATS is " + c.NATS.Status().String(), nil
			}
			return health.StatusUp, "NATS is connected", nil
		})
	}

	if c.DB != nil {
		c.Health.RegisterPingCheck("database", true, func(context.Context) error {
			return config.Ping(c.DB)
		})
	}
}

func (c *Container) scheduleMaintenance() error {
	interval := c.Config.Maintenance.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	if err := c.Scheduler.Every("rate-limiter-prune", interval, func() {
		if removed := c.Limiter.Prune(); removed > 0 {
			c.Logger.Debug("Pruned idle rate limiter keys", "removed", removed)
		}
	}); err != nil {
		return err
	}

	return c.Scheduler.Every("store-stats", interval, func() {
		stats := c.Store.Stats()
		c.Logger.Info("Cache stats", "size", stats.Size, "capacity", stats.Capacity, "evictions", stats.Evictions)
	})
}

// Start launches the background workers. They stop when ctx is done.
func (c *Container) Start(ctx context.Context) {
	go c.Hub.Run(ctx)
	c.Health.Start(ctx)
	c.Scheduler.Start()
}

// Close releases connections held by the container
func (c *Container) Close(ctx context.Context) {
	if err := c.Scheduler.Stop(); err != nil {
		c.Logger.LogError(err, "Failed to stop scheduler")
	}
	c.GRPC.Stop(ctx)
	if err := c.Metrics.Shutdown(ctx); err != nil {
		c.Logger.LogError(err, "Failed to shut down metrics")
	}
	if c.NATS != nil {
		c.NATS.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.LogError(err, "Failed to close redis")
		}
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
