package main

import (
	"context"
	"testing"
	"time"

	identityapp "github.com/pluvyt/backend/internal/application/identity"
	loyaltyapp "github.com/pluvyt/backend/internal/application/loyalty"
	orderingapp "github.com/pluvyt/backend/internal/application/ordering"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/auth"
	"github.com/pluvyt/backend/internal/infrastructure/persistence"
	"github.com/pluvyt/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestParsePreset(t *testing.T) {
	t.Run("embedded default", func(t *testing.T) {
		p, err := LoadPreset("")
		require.NoError(t, err)
		assert.Equal(t, "admin", p.Admin.Login)
		assert.Len(t, p.Groups, 3)
		assert.Equal(t, 12, p.Tables.Count)
	})

	tests := []struct {
		name string
		yaml string
	}{
		{"bad tenant", "tenant_id: nope\nadmin: {login: a, email: a@b.c, password: x}"},
		{"missing admin", "tenant_id: 6f1c2a5e-3b0d-4c8e-9a7f-2d1e0b9c8a71"},
		{"duplicate group", `
tenant_id: 6f1c2a5e-3b0d-4c8e-9a7f-2d1e0b9c8a71
admin: {login: a, email: a@b.c, password: x}
groups:
  - {code: CAIXA, name: Caixa}
  - {code: CAIXA, name: Outro}`},
		{"capacity range", `
tenant_id: 6f1c2a5e-3b0d-4c8e-9a7f-2d1e0b9c8a71
admin: {login: a, email: a@b.c, password: x}
tables: {count: 2, min_capacity: 4, max_capacity: 2}`},
		{"points range", `
tenant_id: 6f1c2a5e-3b0d-4c8e-9a7f-2d1e0b9c8a71
admin: {login: a, email: a@b.c, password: x}
clients: {count: 1, min_points: 10, max_points: 5}`},
		{"unknown feature", `
tenant_id: 6f1c2a5e-3b0d-4c8e-9a7f-2d1e0b9c8a71
admin: {login: a, email: a@b.c, password: x}
groups:
  - {code: CAIXA, name: Caixa, features: [cardapio]}`},
		{"not yaml", "tenant_id: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePreset([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func newSeeder(t *testing.T) *Seeder {
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
	users := persistence.NewGormUserRepository(db)
	groups := persistence.NewGormAccessGroupRepository(db)
	ledger := loyaltyapp.NewLedger(
		persistence.NewGormClientRepository(db),
		persistence.NewGormPointTransactionRepository(db),
		persistence.NewLoyaltyTransactionScope(db),
		log,
	)
	return &Seeder{
		users:       users,
		groups:      identityapp.NewAccessGroupService(groups, log),
		permissions: identityapp.NewPermissionService(users, groups, auth.NewInMemoryTokenBlacklist(), time.Hour, log),
		clients:     loyaltyapp.NewClientService(ledger),
		points:      loyaltyapp.NewPointsService(ledger, identityapp.NewUserAccountVerifier(users), loyaltyapp.VerificationPolicyAll, log),
		tables:      orderingapp.NewTableService(persistence.NewGormTableRepository(db), persistence.NewOrderingTransactionScope(db), log),
		logger:      log,
	}
}

func TestSeederRun(t *testing.T) {
	ctx := context.Background()
	preset, err := ParsePreset([]byte(`
tenant_id: 6f1c2a5e-3b0d-4c8e-9a7f-2d1e0b9c8a71
seed: 7
admin: {login: gerente, email: gerente@pluvyt.test, password: senha-forte-9}
groups:
  - {code: CAIXA, name: Caixa, features: [point-transactions, mesas]}
  - {code: COZINHA, name: Cozinha, features: [comandas]}
tables: {count: 3, min_capacity: 2, max_capacity: 4}
clients: {count: 4, min_points: 5, max_points: 50}
`))
	require.NoError(t, err)

	s := newSeeder(t)
	summary, err := s.Run(ctx, preset)
	require.NoError(t, err)

	assert.Equal(t, preset.Tenant(), summary.TenantID)
	assert.Equal(t, 2, summary.Groups)
	assert.Equal(t, 3, summary.Tables)
	assert.Equal(t, 4, summary.Clients)
	assert.GreaterOrEqual(t, summary.Points, int64(4*5))
	assert.LessOrEqual(t, summary.Points, int64(4*50))

	t.Run("admin holds every group feature", func(t *testing.T) {
		perms, err := s.permissions.EffectivePermissions(ctx, summary.TenantID, summary.AdminID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"comandas", "mesas", "point-transactions"}, perms.Permissions)
	})

	t.Run("tables are numbered from one", func(t *testing.T) {
		tables, err := s.tables.List(ctx, summary.TenantID)
		require.NoError(t, err)
		require.Len(t, tables, 3)
		for _, table := range tables {
			assert.Contains(t, []string{"1", "2", "3"}, table.Number)
			assert.GreaterOrEqual(t, table.Capacity, 2)
			assert.LessOrEqual(t, table.Capacity, 4)
		}
	})

	t.Run("balances match the ledger", func(t *testing.T) {
		clients, total, err := s.clients.List(ctx, summary.TenantID, shared.Filter{}.Normalize())
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		var sum int64
		for _, c := range clients {
			audit, err := s.clients.Audit(ctx, summary.TenantID, c.ID)
			require.NoError(t, err)
			assert.True(t, audit.Consistent)
			sum += c.Balance
		}
		assert.Equal(t, summary.Points, sum)
	})

	t.Run("second run collides", func(t *testing.T) {
		_, err := s.Run(ctx, preset)
		assert.Error(t, err)
	})
}
