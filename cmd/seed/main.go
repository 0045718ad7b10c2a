package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	identityapp "github.com/pluvyt/backend/internal/application/identity"
	loyaltyapp "github.com/pluvyt/backend/internal/application/loyalty"
	orderingapp "github.com/pluvyt/backend/internal/application/ordering"
	"github.com/pluvyt/backend/internal/infrastructure/auth"
	"github.com/pluvyt/backend/internal/infrastructure/config"
	"github.com/pluvyt/backend/internal/infrastructure/logger"
	"github.com/pluvyt/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		presetPath string
		logLevel   string
	)
	flag.StringVar(&presetPath, "preset", "", "YAML preset file (default: built-in demo tenant)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	preset, err := LoadPreset(presetPath)
	if err != nil {
		log.Fatal("Invalid preset", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(cfg.Database, persistence.Options{Logger: log, LogLevel: "warn"})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Seeding runs offline, so access changes need no shared blacklist
	blacklist := auth.NewInMemoryTokenBlacklist()
	users := persistence.NewGormUserRepository(db.DB)
	groups := persistence.NewGormAccessGroupRepository(db.DB)
	ledger := loyaltyapp.NewLedger(
		persistence.NewGormClientRepository(db.DB),
		persistence.NewGormPointTransactionRepository(db.DB),
		persistence.NewLoyaltyTransactionScope(db.DB),
		log,
	)

	seeder := &Seeder{
		users:       users,
		groups:      identityapp.NewAccessGroupService(groups, log),
		permissions: identityapp.NewPermissionService(users, groups, blacklist, cfg.JWT.RefreshTokenExpiration, log),
		clients:     loyaltyapp.NewClientService(ledger),
		points: loyaltyapp.NewPointsService(ledger, identityapp.NewUserAccountVerifier(users),
			loyaltyapp.ParseVerificationPolicy(cfg.Loyalty.VerificationPolicy), log),
		tables: orderingapp.NewTableService(
			persistence.NewGormTableRepository(db.DB),
			persistence.NewOrderingTransactionScope(db.DB),
			log,
		),
		logger: log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := seeder.Run(ctx, preset)
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	fmt.Printf("tenant %s seeded: admin=%s groups=%d tables=%d clients=%d points=%d\n",
		summary.TenantID, summary.AdminID, summary.Groups, summary.Tables, summary.Clients, summary.Points)
}
