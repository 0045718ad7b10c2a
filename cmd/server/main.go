package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/pluvyt/backend/internal/application/identity"
	loyaltyapp "github.com/pluvyt/backend/internal/application/loyalty"
	"github.com/pluvyt/backend/internal/application/notification"
	orderingapp "github.com/pluvyt/backend/internal/application/ordering"
	"github.com/pluvyt/backend/internal/infrastructure/auth"
	"github.com/pluvyt/backend/internal/infrastructure/config"
	"github.com/pluvyt/backend/internal/infrastructure/logger"
	notificationinfra "github.com/pluvyt/backend/internal/infrastructure/notification"
	"github.com/pluvyt/backend/internal/infrastructure/persistence"
	"github.com/pluvyt/backend/internal/infrastructure/telemetry"
	"github.com/pluvyt/backend/internal/interfaces/http/handler"
	"github.com/pluvyt/backend/internal/interfaces/http/middleware"
	"github.com/pluvyt/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Pluvyt Backend API
//	@version		1.0
//	@description	Loyalty points ledger, comandas, tables and access control

//	@contact.name	Pluvyt

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.FromConfig(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting pluvyt backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.ConfigFrom(cfg.Telemetry, version), log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Ship every entry at the configured level to the collector as well
	logsProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfigFrom(cfg.Telemetry, version), log)
	if err != nil {
		log.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}
	defer func() {
		if err := logsProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = logsProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	db, err := persistence.NewDatabase(cfg.Database, persistence.Options{
		Logger:        log,
		LogLevel:      cfg.Log.Level,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
		Tracing:       cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Redis backs the token blacklist and the redis notification driver
	var redisClient *redis.Client
	if cfg.Auth.BlacklistDriver == "redis" || cfg.Notification.Driver == notificationinfra.DriverRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}

	blacklist, err := auth.NewTokenBlacklist(cfg.Auth.BlacklistDriver, redisClient)
	if err != nil {
		log.Fatal("Failed to initialize token blacklist", zap.Error(err))
	}

	publisher, err := notificationinfra.NewPublisher(cfg.Notification, redisClient, log)
	if err != nil {
		log.Fatal("Failed to initialize notification publisher", zap.Error(err))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("Error closing notification publisher", zap.Error(err))
		}
	}()
	log.Info("Notification publisher ready", zap.String("driver", cfg.Notification.Driver))

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	groupRepo := persistence.NewGormAccessGroupRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	pointTxRepo := persistence.NewGormPointTransactionRepository(db.DB)
	tableRepo := persistence.NewGormTableRepository(db.DB)
	comandaRepo := persistence.NewGormComandaRepository(db.DB)

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics()
	}

	// Identity
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, groupRepo, jwtService, blacklist, log)
	permissionService := identityapp.NewPermissionService(userRepo, groupRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	groupService := identityapp.NewAccessGroupService(groupRepo, log)
	announcer := notification.NewAnnouncer(publisher, cfg.Notification.PublishTimeout, log)
	registrationTenant, ok := cfg.Loyalty.RegistrationTenant()
	if !ok {
		log.Info("Self-registration disabled: loyalty.registration_tenant_id is not set")
	}
	registrationService := identityapp.NewRegistrationService(
		userRepo,
		persistence.NewRegistrationTransactionScope(db.DB),
		announcer,
		identityapp.RegistrationOptions{
			TenantID:        registrationTenant,
			VerificationTTL: cfg.Auth.VerificationTTL,
			ResendCooldown:  cfg.Auth.VerificationResendCooldown,
		},
		log,
	)

	// Loyalty
	ledger := loyaltyapp.NewLedger(clientRepo, pointTxRepo, persistence.NewLoyaltyTransactionScope(db.DB), log)
	pointsService := loyaltyapp.NewPointsService(
		ledger,
		identityapp.NewUserAccountVerifier(userRepo),
		loyaltyapp.ParseVerificationPolicy(cfg.Loyalty.VerificationPolicy),
		log,
	)
	clientService := loyaltyapp.NewClientService(ledger)

	// Ordering
	orderingScope := persistence.NewOrderingTransactionScope(db.DB)
	comandaService := orderingapp.NewComandaService(comandaRepo, orderingScope, announcer, log)
	tableService := orderingapp.NewTableService(tableRepo, orderingScope, log)

	if metrics != nil {
		ledger.SetRecorder(metrics)
		comandaService.SetRecorder(metrics)
		tableService.SetRecorder(metrics)
	}

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = tracerProvider.IsEnabled()
	if cfg.Telemetry.ServiceName != "" {
		tracing.ServiceName = cfg.Telemetry.ServiceName
	}

	engine, err := router.NewEngine(router.Handlers{
		Health:       handler.NewHealthHandler(db),
		Auth:         handler.NewAuthHandler(authService),
		Registration: handler.NewRegistrationHandler(registrationService),
		Points:       handler.NewPointsHandler(pointsService),
		Clients:      handler.NewClientHandler(clientService),
		Comandas:     handler.NewComandaHandler(comandaService),
		Tables:       handler.NewTableHandler(tableService),
		UserAccess:   handler.NewUserAccessHandler(permissionService),
		AccessGroups: handler.NewAccessGroupHandler(groupService),
	}, router.Options{
		HTTP:           cfg.HTTP,
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
		Tracing:        tracing,
		Metrics:        metrics,
		MetricsPath:    cfg.Telemetry.MetricsPath,
		Swagger:        cfg.Swagger,
		Profiling:      profiler.IsEnabled(),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
