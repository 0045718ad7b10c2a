package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	_ "github.com/pluvyt/backend/docs"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/infrastructure/auth"
	"github.com/pluvyt/backend/internal/infrastructure/config"
	"github.com/pluvyt/backend/internal/infrastructure/logger"
	"github.com/pluvyt/backend/internal/infrastructure/telemetry"
	"github.com/pluvyt/backend/internal/interfaces/http/handler"
	"github.com/pluvyt/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers bundles every HTTP handler the API exposes
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Registration *handler.RegistrationHandler
	Points       *handler.PointsHandler
	Clients      *handler.ClientHandler
	Comandas     *handler.ComandaHandler
	Tables       *handler.TableHandler
	UserAccess   *handler.UserAccessHandler
	AccessGroups *handler.AccessGroupHandler
}

// Options carries the infrastructure the engine is built on
type Options struct {
	HTTP           config.HTTPConfig
	JWTService     *auth.JWTService
	TokenBlacklist auth.TokenBlacklist
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	// Metrics is optional; nil disables request metrics and the scrape route
	Metrics     *telemetry.Metrics
	MetricsPath string
	Swagger     config.SwaggerConfig
	// Profiling labels API requests for the continuous profiler
	Profiling bool
}

// NewEngine builds the gin engine with the full middleware chain and every
// route of the API.
func NewEngine(h Handlers, opts Options) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()
	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(opts.Tracing))
	if opts.Metrics != nil {
		engine.Use(opts.Metrics.GinMiddleware())
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.HTTP)))
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	engine.GET("/health", h.Health.Check)
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}

	jwtConfig := middleware.DefaultJWTConfig(opts.JWTService)
	jwtConfig.TokenBlacklist = opts.TokenBlacklist
	jwtConfig.Logger = log
	jwtAuth := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     opts.Swagger.Enabled,
			RequireAuth: opts.Swagger.RequireAuth,
			AllowedIPs:  opts.Swagger.AllowedIPs,
		}, jwtAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(jwtAuth)
	r.Use(middleware.TracingAttributeInjector())
	if opts.Profiling {
		r.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))
	}

	permissionConfig := middleware.PermissionConfig{Logger: log}
	guard := func(feature string) gin.HandlerFunc {
		return middleware.RequireFeatureWithConfig(feature, permissionConfig)
	}

	groups := []*DomainGroup{
		authRoutes(h.Auth, h.Registration, opts.HTTP),
		publicRoutes(h.Comandas, opts.HTTP),
		clientRoutes(h.Clients).Use(guard(identity.FeaturePointTransactions)),
		pointRoutes(h.Points).Use(guard(identity.FeaturePointTransactions)),
		comandaRoutes(h.Comandas).Use(guard(identity.FeatureComandas)),
		tableRoutes(h.Tables).Use(guard(identity.FeatureMesas)),
		accessGroupRoutes(h.AccessGroups).Use(guard(identity.FeatureAccessGroups)),
		userRoutes(h.UserAccess).Use(guard(identity.FeatureUsers)),
	}
	for _, g := range groups {
		log.Debug("Registering route group", zap.String("group", g.Name()), zap.String("prefix", g.Prefix()))
		r.Register(g)
	}
	r.Setup()

	return engine, nil
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}

// limiterFor returns nil when the limiter is disabled in configuration
func limiterFor(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	return middleware.RateLimit(middleware.NewRateLimiter(rps, burst))
}

func withLimiter(limiter gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{limiter, h}
}

// authRoutes needs no feature. Login, refresh and the sign-up endpoints are
// skipped by the JWT middleware and share one limiter per client IP.
func authRoutes(h *handler.AuthHandler, reg *handler.RegistrationHandler, cfg config.HTTPConfig) *DomainGroup {
	limiter := limiterFor(cfg.AuthRateLimit, cfg.AuthRateBurst)
	g := NewDomainGroup("auth", "/auth").
		POST("/login", withLimiter(limiter, h.Login)...).
		POST("/refresh", withLimiter(limiter, h.Refresh)...).
		POST("/logout", h.Logout).
		GET("/me", h.Me).
		POST("/confirm-email", h.ConfirmEmail).
		POST("/check-permission", h.CheckPermission)
	if reg != nil {
		g.POST("/register", withLimiter(limiter, reg.Register)...).
			POST("/resend-verification", withLimiter(limiter, reg.ResendVerification)...).
			GET("/verify-email", withLimiter(limiter, reg.VerifyEmail)...)
	}
	return g
}

func publicRoutes(h *handler.ComandaHandler, cfg config.HTTPConfig) *DomainGroup {
	limiter := limiterFor(cfg.PublicRateLimit, cfg.PublicRateBurst)
	return NewDomainGroup("public", "/public").
		POST("/comandas", withLimiter(limiter, h.OpenPublic)...)
}

func clientRoutes(h *handler.ClientHandler) *DomainGroup {
	return NewDomainGroup("clients", "/clients").
		POST("", h.Enroll).
		GET("", h.List).
		GET("/:id", h.Get).
		GET("/:id/transactions", h.History).
		GET("/:id/audit", h.Audit)
}

func pointRoutes(h *handler.PointsHandler) *DomainGroup {
	return NewDomainGroup("point-transactions", "/point-transactions").
		POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.Get).
		DELETE("/:id", h.Reverse)
}

func comandaRoutes(h *handler.ComandaHandler) *DomainGroup {
	g := NewDomainGroup("comandas", "/comandas").
		POST("", h.Open).
		GET("", h.List).
		GET("/:id", h.Get).
		PATCH("/:id/status", h.Transition)
	g.Group("itens", "/:id/itens").
		POST("", h.AddItem).
		DELETE("/:itemId", h.RemoveItem).
		PATCH("/:itemId/status", h.SetItemStatus)
	return g
}

func tableRoutes(h *handler.TableHandler) *DomainGroup {
	return NewDomainGroup("mesas", "/mesas").
		POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		PATCH("/:id/status", h.SetStatus).
		DELETE("/:id", h.Delete).
		POST("/:id/close", h.Close)
}

func accessGroupRoutes(h *handler.AccessGroupHandler) *DomainGroup {
	return NewDomainGroup("grupos-acesso", "/grupos-acesso").
		GET("", h.List).
		GET("/:id", h.Get).
		POST("", h.Create).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete)
}

func userRoutes(h *handler.UserAccessHandler) *DomainGroup {
	return NewDomainGroup("users", "/users").
		GET("/:id/effective-permissions", h.EffectivePermissions).
		PUT("/:id/access", h.SetAccess)
}
