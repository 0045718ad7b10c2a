package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	identityapp "github.com/pluvyt/backend/internal/application/identity"
	loyaltyapp "github.com/pluvyt/backend/internal/application/loyalty"
	orderingapp "github.com/pluvyt/backend/internal/application/ordering"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"go.uber.org/zap"
)

const seedActor = "seed"

// Seeder creates a demo tenant through the application services, so seeded
// data obeys the same rules as data entered through the API
type Seeder struct {
	users       identity.UserRepository
	groups      *identityapp.AccessGroupService
	permissions *identityapp.PermissionService
	clients     *loyaltyapp.ClientService
	points      *loyaltyapp.PointsService
	tables      *orderingapp.TableService
	logger      *zap.Logger
}

// Summary reports what a run created
type Summary struct {
	TenantID uuid.UUID
	AdminID  uuid.UUID
	Groups   int
	Tables   int
	Clients  int
	Points   int64
}

// Run seeds the preset. It stops at the first failure; rows created before
// it are kept.
func (s *Seeder) Run(ctx context.Context, preset *Preset) (*Summary, error) {
	tenantID := preset.Tenant()
	faker := gofakeit.New(preset.Seed)
	summary := &Summary{TenantID: tenantID}

	groupIDs := make([]uuid.UUID, 0, len(preset.Groups))
	for _, g := range preset.Groups {
		group, err := s.groups.Create(ctx, tenantID, seedActor, identityapp.CreateAccessGroupRequest{
			Code:        g.Code,
			Name:        g.Name,
			Description: g.Description,
			Features:    g.Features,
		})
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Code, err)
		}
		groupIDs = append(groupIDs, group.ID)
		summary.Groups++
	}

	admin, err := identity.NewUser(tenantID, preset.Admin.Login, preset.Admin.Email, preset.Admin.Password, seedActor)
	if err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	if len(groupIDs) > 0 {
		if _, err := s.permissions.SetUserAccess(ctx, tenantID, admin.ID, seedActor, identityapp.SetUserAccessRequest{
			GroupIDs: groupIDs,
		}); err != nil {
			return nil, fmt.Errorf("admin access: %w", err)
		}
	}
	summary.AdminID = admin.ID

	for i := 1; i <= preset.Tables.Count; i++ {
		_, err := s.tables.Create(ctx, tenantID, seedActor, orderingapp.CreateTableRequest{
			Number:   strconv.Itoa(i),
			Capacity: faker.IntRange(preset.Tables.MinCapacity, preset.Tables.MaxCapacity),
		})
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
		summary.Tables++
	}

	for i := 0; i < preset.Clients.Count; i++ {
		client, err := s.clients.Enroll(ctx, tenantID, seedActor, loyaltyapp.EnrollClientRequest{
			PersonID: uuid.MustParse(faker.UUID()),
		})
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", i, err)
		}
		summary.Clients++

		points := int64(faker.IntRange(int(preset.Clients.MinPoints), int(preset.Clients.MaxPoints)))
		if points == 0 {
			continue
		}
		if _, err := s.points.Create(ctx, tenantID, seedActor, loyaltyapp.CreatePointTransactionRequest{
			ClientID: client.ID,
			Kind:     string(loyalty.KindCredit),
			Points:   points,
			Origin:   string(loyalty.OriginPromo),
			Note:     "Welcome credit for " + faker.Name(),
		}); err != nil {
			return nil, fmt.Errorf("client %d credit: %w", i, err)
		}
		summary.Points += points
	}

	s.logger.Info("Tenant seeded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("admin_id", admin.ID.String()),
		zap.Int("groups", summary.Groups),
		zap.Int("tables", summary.Tables),
		zap.Int("clients", summary.Clients),
		zap.Int64("points", summary.Points),
	)
	return summary, nil
}
