// internal/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	router "yieldwallet/internal/api"
	"yieldwallet/internal/api/handler"
	apimw "yieldwallet/internal/api/middleware"
	"yieldwallet/internal/config"
	"yieldwallet/internal/events"
	"yieldwallet/internal/lease"
	"yieldwallet/internal/migrations"
	"yieldwallet/internal/repository/postgres"
	"yieldwallet/internal/scheduler"
	"yieldwallet/internal/service"
	"yieldwallet/internal/util"
	"yieldwallet/pkg/db"
)

// limiterCleanupInterval is how often idle rate limiters are dropped.
const limiterCleanupInterval = 10 * time.Minute

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client // nil when REDIS_ADDR is unset

	Repositories service.Repositories

	// Services
	LedgerService service.LedgerService
	AccrualEngine *service.AccrualEngine
	Scheduler     *scheduler.AccrualScheduler

	// HTTP API
	HTTPHandler http.Handler

	stopCleanup chan struct{}
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	if err := util.InitLogger(cfg.LogLevel); err != nil {
		return err
	}
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database and bring the schema up to date
	database, err := db.NewPostgresDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	if err := migrations.Apply(ctx, app.DB); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	app.Logger.Info("Database connection established.")

	// 4. Redis backs event publishing and the accrual lease. Without it both stay in-process.
	var (
		publisher events.Publisher = events.NewLogPublisher(app.Logger)
		locker    lease.Locker     = lease.NewLocalLocker()
	)
	if cfg.Redis.Addr != "" {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := app.Redis.Ping(pingCtx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		publisher = events.NewRedisPublisher(app.Redis, app.Logger)
		locker = lease.NewRedisLocker(app.Redis, app.Logger)
		app.Logger.Info("Redis connection established.", zap.String("addr", cfg.Redis.Addr))
	} else {
		app.Logger.Warn("REDIS_ADDR not set; events are logged only and the accrual lease is process-local")
	}

	// 5. Initialize Repositories
	app.Repositories = service.Repositories{
		Wallets:      postgres.NewWalletRepository(app.DB),
		Transactions: postgres.NewTransactionRepository(app.DB),
		Positions:    postgres.NewPositionRepository(app.DB),
		Withdrawals:  postgres.NewWithdrawalRepository(app.DB),
		Plans:        postgres.NewPlanCatalog(app.DB),
	}

	// 6. Initialize Services
	clock := util.SystemClock{Location: cfg.Location}
	app.LedgerService = service.NewLedgerService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.Repositories,
		service.DefaultTxFuncs(),
		service.LedgerOptions{
			CheckinBonus: cfg.CheckinBonus,
			Clock:        clock,
			Publisher:    publisher,
			Logger:       app.Logger,
		},
	)
	app.AccrualEngine = service.NewAccrualEngine(
		app.DB,
		app.DB,
		app.Repositories,
		service.DefaultTxFuncs(),
		publisher,
		app.Logger,
		cfg.Accrual.Workers,
	)
	app.Scheduler = scheduler.NewAccrualScheduler(app.AccrualEngine, locker, scheduler.Config{
		Schedule: cfg.Accrual.Schedule,
		Location: cfg.Location,
		LeaseTTL: cfg.Accrual.LeaseTTL,
	}, app.Logger)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	limiter := apimw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, app.Logger)
	app.stopCleanup = make(chan struct{})
	limiter.StartCleanup(limiterCleanupInterval, app.stopCleanup)

	app.HTTPHandler = router.NewRouter(
		handler.NewLedgerHandler(app.LedgerService, app.Logger),
		handler.NewAccrualHandler(app.Scheduler, clock, app.Logger),
		limiter,
		app.Logger,
	)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// StartScheduler starts the daily accrual job when it is enabled in configuration.
func (app *Application) StartScheduler(ctx context.Context) error {
	if !app.Config.Accrual.Enabled {
		app.Logger.Info("Accrual scheduler disabled by configuration.")
		return nil
	}
	return app.Scheduler.Start(ctx)
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Scheduler != nil {
		app.Scheduler.Stop(ctx)
	}
	if app.stopCleanup != nil {
		close(app.stopCleanup)
		app.stopCleanup = nil
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", zap.Error(err))
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	_ = app.Logger.Sync()
	return nil
}
