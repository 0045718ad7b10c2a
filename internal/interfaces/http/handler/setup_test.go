package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/pluvyt/backend/internal/application/identity"
	loyaltyapp "github.com/pluvyt/backend/internal/application/loyalty"
	"github.com/pluvyt/backend/internal/application/notification"
	orderingapp "github.com/pluvyt/backend/internal/application/ordering"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/infrastructure/auth"
	"github.com/pluvyt/backend/internal/infrastructure/config"
	"github.com/pluvyt/backend/internal/infrastructure/persistence"
	"github.com/pluvyt/backend/internal/infrastructure/persistence/models"
	"github.com/pluvyt/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type published struct {
	TenantID uuid.UUID
	Event    string
	Payload  any
}

// recordingPublisher keeps every published event in memory
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, tenantID uuid.UUID, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{TenantID: tenantID, Event: event, Payload: payload})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

// testServer wires real services over an in-memory sqlite database
type testServer struct {
	engine    *gin.Engine
	db        *gorm.DB
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	publisher *recordingPublisher
	users     *persistence.GormUserRepository
	tenantID  uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&models.ClientModel{},
		&models.PointTransactionModel{},
		&models.MesaModel{},
		&models.ComandaModel{},
		&models.ComandaItemModel{},
		&models.UserModel{},
		&models.AccessGroupModel{},
		&models.AccessGroupMembershipModel{},
	))

	log := zap.NewNop()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-0123456789abcdef",
		RefreshSecret:          "handler-test-refresh-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "pluvyt-test",
		MaxRefreshCount:        5,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	publisher := &recordingPublisher{}

	users := persistence.NewGormUserRepository(db)
	groups := persistence.NewGormAccessGroupRepository(db)
	clients := persistence.NewGormClientRepository(db)
	txs := persistence.NewGormPointTransactionRepository(db)
	tables := persistence.NewGormTableRepository(db)
	comandas := persistence.NewGormComandaRepository(db)

	ledger := loyaltyapp.NewLedger(clients, txs, persistence.NewLoyaltyTransactionScope(db), log)
	pointsService := loyaltyapp.NewPointsService(ledger, identityapp.NewUserAccountVerifier(users), loyaltyapp.VerificationPolicyAll, log)
	clientService := loyaltyapp.NewClientService(ledger)
	orderingScope := persistence.NewOrderingTransactionScope(db)
	comandaService := orderingapp.NewComandaService(comandas, orderingScope,
		notification.NewAnnouncer(publisher, time.Second, log), log)
	tableService := orderingapp.NewTableService(tables, orderingScope, log)
	authService := identityapp.NewAuthService(users, groups, jwtService, blacklist, log)
	permissionService := identityapp.NewPermissionService(users, groups, blacklist, time.Hour, log)
	groupService := identityapp.NewAccessGroupService(groups, log)
	tenantID := uuid.New()
	registrationService := identityapp.NewRegistrationService(users, persistence.NewRegistrationTransactionScope(db),
		notification.NewAnnouncer(publisher, time.Second, log),
		identityapp.RegistrationOptions{TenantID: tenantID, VerificationTTL: 24 * time.Hour, ResendCooldown: time.Minute}, log)

	points := NewPointsHandler(pointsService)
	clientHandler := NewClientHandler(clientService)
	comandaHandler := NewComandaHandler(comandaService)
	tableHandler := NewTableHandler(tableService)
	authHandler := NewAuthHandler(authService)
	registration := NewRegistrationHandler(registrationService)
	userAccess := NewUserAccessHandler(permissionService)
	groupHandler := NewAccessGroupHandler(groupService)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = blacklist

	v1 := engine.Group("/api/v1")
	v1.POST("/public/comandas", comandaHandler.OpenPublic)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/refresh", authHandler.Refresh)
	v1.POST("/auth/register", registration.Register)
	v1.POST("/auth/resend-verification", registration.ResendVerification)
	v1.GET("/auth/verify-email", registration.VerifyEmail)

	secured := v1.Group("")
	secured.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)
	secured.POST("/auth/confirm-email", authHandler.ConfirmEmail)
	secured.POST("/auth/check-permission", authHandler.CheckPermission)

	secured.POST("/clients", clientHandler.Enroll)
	secured.GET("/clients", clientHandler.List)
	secured.GET("/clients/:id", clientHandler.Get)
	secured.GET("/clients/:id/transactions", clientHandler.History)
	secured.GET("/clients/:id/audit", clientHandler.Audit)

	secured.POST("/point-transactions", points.Create)
	secured.GET("/point-transactions", points.List)
	secured.GET("/point-transactions/:id", points.Get)
	secured.DELETE("/point-transactions/:id", points.Reverse)

	secured.POST("/mesas", tableHandler.Create)
	secured.GET("/mesas", tableHandler.List)
	secured.GET("/mesas/:id", tableHandler.Get)
	secured.PUT("/mesas/:id", tableHandler.Update)
	secured.PATCH("/mesas/:id/status", tableHandler.SetStatus)
	secured.DELETE("/mesas/:id", tableHandler.Delete)
	secured.POST("/mesas/:id/close", tableHandler.Close)

	secured.POST("/comandas", comandaHandler.Open)
	secured.GET("/comandas", comandaHandler.List)
	secured.GET("/comandas/:id", comandaHandler.Get)
	secured.POST("/comandas/:id/itens", comandaHandler.AddItem)
	secured.DELETE("/comandas/:id/itens/:itemId", comandaHandler.RemoveItem)
	secured.PATCH("/comandas/:id/itens/:itemId/status", comandaHandler.SetItemStatus)
	secured.PATCH("/comandas/:id/status", comandaHandler.Transition)

	secured.GET("/users/:id/effective-permissions", userAccess.EffectivePermissions)
	secured.PUT("/users/:id/access", userAccess.SetAccess)

	secured.GET("/grupos-acesso", groupHandler.List)
	secured.GET("/grupos-acesso/:id", groupHandler.Get)
	secured.POST("/grupos-acesso", groupHandler.Create)
	secured.PUT("/grupos-acesso/:id", groupHandler.Update)
	secured.DELETE("/grupos-acesso/:id", groupHandler.Delete)

	return &testServer{
		engine:    engine,
		db:        db,
		jwt:       jwtService,
		blacklist: blacklist,
		publisher: publisher,
		users:     users,
		tenantID:  tenantID,
	}
}

// token issues an access token for a synthetic staff user of the test tenant
func (s *testServer) token(t *testing.T, permissions ...string) string {
	t.Helper()
	return s.tokenFor(t, s.tenantID, permissions...)
}

func (s *testServer) tokenFor(t *testing.T, tenantID uuid.UUID, permissions ...string) string {
	t.Helper()
	pair, err := s.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID:    tenantID,
		UserID:      uuid.New(),
		Username:    "caixa",
		Permissions: permissions,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

// createUser stores a real account so login and access endpoints can find it
func (s *testServer) createUser(t *testing.T, login, password string) *identity.User {
	t.Helper()
	user, err := identity.NewUser(s.tenantID, login, login+"@pluvyt.test", password, "seed")
	require.NoError(t, err)
	require.NoError(t, s.users.Create(context.Background(), user))
	return user
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors dto.Response with a raw data payload
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, rec, nil)
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error.Code
}
