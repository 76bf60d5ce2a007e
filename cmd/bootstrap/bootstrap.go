package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medminion/config"
	deliveryHttp "medminion/internal/delivery/http"
	"medminion/internal/delivery/http/handler"
	"medminion/internal/delivery/http/middleware"
	"medminion/internal/domain/repository"
	"medminion/internal/infrastructure/cache"
	"medminion/internal/infrastructure/database"
	gormRepo "medminion/internal/repository"
	"medminion/internal/repository/mongostore"
	"medminion/internal/service"
	"medminion/internal/usecase"
	"medminion/pkg/metrics"
	"medminion/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	MongoClient *mongo.Client
	RedisClient *redis.Client
	Metrics     *metrics.Metrics
	Server      *http.Server

	slotLocker service.SlotLocker
	scheduler  *service.ReconcileScheduler
	reconciler usecase.ReconcileUsecase
}

// stores bundles the repositories of the selected backend
type stores struct {
	transactor      repository.Transactor
	doctorRepo      repository.DoctorRepository
	scheduleRepo    repository.DoctorScheduleRepository
	appointmentRepo repository.AppointmentRepository
	auditRepo       repository.AuditLogRepository
}

// LoadConfig loads configuration and sets up the logger accordingly
func LoadConfig() (*config.Config, *logrus.Logger, error) {
	log := setupLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown LOG_LEVEL %q, keeping %s", cfg.App.LogLevel, log.GetLevel())
	}
	log.Info("Configuration loaded successfully")
	return cfg, log, nil
}

// New creates a new App instance with all dependencies initialized
func New(ctx context.Context) (*App, error) {
	cfg, log, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New(),
	}

	s, err := app.connectStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.RedisClient = redisClient
	}

	app.Server = app.initializeServer(s)

	if cfg.Reconcile.Enabled {
		scheduler, err := service.NewReconcileScheduler(cfg.Reconcile.Cron, cfg.Location(), log, func(ctx context.Context) error {
			_, err := app.reconciler.ReconcileAll(ctx)
			return err
		})
		if err != nil {
			app.Close()
			return nil, err
		}
		app.scheduler = scheduler
	}

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() *logrus.Logger {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
	return logrus.StandardLogger()
}

// connectStore opens the configured backend and builds its repositories
func (app *App) connectStore(ctx context.Context) (stores, error) {
	cfg := app.Config

	switch cfg.App.StoreDriver {
	case config.StoreDriverMongo:
		client, db, err := database.NewMongoConnection(ctx, cfg.Mongo, app.Log)
		if err != nil {
			return stores{}, err
		}
		app.MongoClient = client
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return stores{}, fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
		}
		if !cfg.Mongo.Transactions {
			app.Log.Warn("MongoDB transactions disabled, relying on version checks and reconciliation")
		}

		return stores{
			transactor:      mongostore.NewTransactor(client, cfg.Mongo.Transactions),
			doctorRepo:      mongostore.NewDoctorRepository(db),
			scheduleRepo:    mongostore.NewDoctorScheduleRepository(db),
			appointmentRepo: mongostore.NewAppointmentRepository(db),
			auditRepo:       mongostore.NewAuditLogRepository(db),
		}, nil

	default:
		db, err := database.NewPostgresConnection(ctx, cfg.DB, cfg.App.Timezone, cfg.App.Env, app.Log)
		if err != nil {
			return stores{}, err
		}
		app.DB = db

		return stores{
			transactor:      gormRepo.NewTransactor(db),
			doctorRepo:      gormRepo.NewDoctorRepository(db),
			scheduleRepo:    gormRepo.NewDoctorScheduleRepository(db),
			appointmentRepo: gormRepo.NewAppointmentRepository(db),
			auditRepo:       gormRepo.NewAuditLogRepository(db),
		}, nil
	}
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer(s stores) *http.Server {
	cfg := app.Config
	log := app.Log
	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }
	window := cfg.App.AvailabilityWindow

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize services
	if cfg.Lock.Driver == config.LockDriverRedis {
		app.slotLocker = service.NewRedisSlotLocker(app.RedisClient, log, cfg.Lock.TTL)
	} else {
		app.slotLocker = service.NewLocalSlotLocker(log)
	}

	availabilityCache := service.NewNoopAvailabilityCache()
	if app.RedisClient != nil {
		availabilityCache = service.NewRedisAvailabilityCache(app.RedisClient, log, app.Metrics, cfg.Cache.AvailabilityTTL)
	}

	auditService := service.NewAuditService(log, s.auditRepo)

	// Initialize usecases
	resolver := usecase.NewDoctorResolver(log, s.scheduleRepo, cfg.Cache.DirectoryTTL)
	app.reconciler = usecase.NewReconcileUsecase(log, app.Metrics, s.transactor, s.scheduleRepo, s.appointmentRepo,
		app.slotLocker, availabilityCache, auditService, now, window)
	appointmentUsecase := usecase.NewAppointmentUsecase(log, app.Metrics, s.transactor, s.appointmentRepo, s.scheduleRepo,
		s.doctorRepo, resolver, app.slotLocker, availabilityCache, auditService, now, window)
	availabilityUsecase := usecase.NewAvailabilityUsecase(log, s.scheduleRepo, resolver, availabilityCache, now, window)
	directoryUsecase := usecase.NewDoctorDirectoryUsecase(log, app.Metrics, s.transactor, s.doctorRepo, s.scheduleRepo,
		s.appointmentRepo, app.slotLocker, auditService, availabilityCache, resolver, cfg.Cache.DirectoryTTL, now, window)
	auditLogUsecase := usecase.NewAuditLogUsecase(log, s.auditRepo)

	// Initialize handlers
	legacyHandler := handler.NewLegacyHandler(directoryUsecase, availabilityUsecase, appointmentUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(directoryUsecase, availabilityUsecase, app.reconciler, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase, customValidator)

	// Initialize middleware
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins...)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(log, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	loggingMiddleware := middleware.NewLoggingMiddleware(log, app.Metrics)

	// Initialize router
	router := deliveryHttp.NewRouter(legacyHandler, doctorHandler, appointmentHandler, auditLogHandler,
		corsMiddleware, rateLimitMiddleware, loggingMiddleware, app.Metrics)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Reconcile runs one reconciliation pass over every doctor
func (app *App) Reconcile(ctx context.Context) error {
	summary, err := app.reconciler.ReconcileAll(ctx)
	if summary != nil {
		app.Log.Infof("Reconciled %d doctors, %d failed", summary.Doctors, summary.Failed)
	}
	return err
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() error {
	if app.scheduler != nil {
		app.scheduler.Start()
		app.Log.Infof("Reconciliation scheduled at %q (%s)", app.Config.Reconcile.Cron, app.Config.App.Timezone)
	}

	errCh := make(chan error, 1)
	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s, store: %s", app.Config.App.Env, app.Config.App.StoreDriver)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal or a failing listener
	return app.waitForShutdown(errCh)
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown(errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case <-quit:
		app.Log.Info("Shutting down server...")
	case serveErr = <-errCh:
		app.Log.Errorf("Server failed: %v", serveErr)
	}

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
	return serveErr
}

// Close stops background work and closes all connections
func (app *App) Close() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.slotLocker != nil {
		app.slotLocker.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.MongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.MongoClient.Disconnect(ctx); err != nil {
			app.Log.Warnf("Failed to disconnect MongoDB: %v", err)
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
