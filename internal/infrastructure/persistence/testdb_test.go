package persistence

import (
	"testing"

	"github.com/pluvyt/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory sqlite database with every table
// migrated. A single connection keeps the in-memory schema visible to all
// queries.
func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}
